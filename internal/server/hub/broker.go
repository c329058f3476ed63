package hub

import (
	"context"
	"sync"

	"github.com/iudanet/notesync/pkg/api"
)

// Event набор документов пользователя, принятых одним из соединений
// (или HTTP update), для рассылки остальным.
type Event struct {
	UserID string         `json:"user_id"`
	Origin string         `json:"origin,omitempty"` // id соединения-источника, ему не отправляем
	Docs   []api.Document `json:"docs"`
}

// Broker доставляет события всем экземплярам сервера
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe блокируется до отмены ctx, вызывая handler на каждое событие
	Subscribe(ctx context.Context, handler func(Event)) error
	Close() error
}

// MemoryBroker брокер в пределах одного процесса
type MemoryBroker struct {
	events chan Event
	once   sync.Once
	done   chan struct{}
}

// NewMemoryBroker создает брокер с буфером на size событий
func NewMemoryBroker(size int) *MemoryBroker {
	return &MemoryBroker{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// Publish кладет событие в очередь, блокируется если буфер полон
func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	select {
	case b.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}
}

// Subscribe читает события до отмены ctx или Close
func (b *MemoryBroker) Subscribe(ctx context.Context, handler func(Event)) error {
	for {
		select {
		case ev := <-b.events:
			handler(ev)
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		}
	}
}

// Close останавливает брокер
func (b *MemoryBroker) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
