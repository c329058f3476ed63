package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName имя JetStream-потока с обновлениями документов
	StreamName = "NOTESYNC_DOCS"
	// subjectPrefix subject формата notesync.docs.<userID>
	subjectPrefix = "notesync.docs."
)

// NatsBroker рассылает события между экземплярами сервера через JetStream.
// Каждый экземпляр читает поток своим ordered consumer, начиная с новых сообщений.
type NatsBroker struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewNatsBroker подключается к NATS и создает поток, если его нет
func NewNatsBroker(ctx context.Context, url string, logger *slog.Logger) (*NatsBroker, error) {
	nc, err := nats.Connect(url,
		nats.Name("notesync-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to init jetstream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.MemoryStorage,
		Retention: jetstream.LimitsPolicy,
		// живые обновления нужны только подключенным клиентам
		MaxAge: time.Minute,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return &NatsBroker{nc: nc, js: js, logger: logger}, nil
}

// Subject возвращает subject для пользователя.
// Точки и wildcard-символы в id заменяются, чтобы не ломать маршрутизацию.
func Subject(userID string) string {
	r := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return subjectPrefix + r.Replace(userID)
}

// Publish публикует событие в поток
func (b *NatsBroker) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := b.js.Publish(ctx, Subject(ev.UserID), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe читает поток до отмены ctx
func (b *NatsBroker) Subscribe(ctx context.Context, handler func(Event)) error {
	consumer, err := b.js.OrderedConsumer(ctx, StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{subjectPrefix + ">"},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			b.logger.Warn("dropping malformed event", slog.Any("error", err))
			return
		}
		handler(ev)
	})
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}
	defer cc.Stop()

	<-ctx.Done()
	return nil
}

// Close закрывает соединение с NATS
func (b *NatsBroker) Close() error {
	return b.nc.Drain()
}
