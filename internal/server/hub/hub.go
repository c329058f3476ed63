// Package hub ведет реестр live-соединений и рассылает принятые документы
// остальным соединениям того же пользователя.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// ErrClosed брокер или соединение закрыты
var ErrClosed = errors.New("hub closed")

// sendBuffer емкость очереди исходящих сообщений соединения
const sendBuffer = 64

// Client одно live-соединение.
// До ready обновления копятся в pending и уходят в сокет сразу после ready:
// документ, принятый между /sync/begin клиента и его ready, не теряется.
type Client struct {
	send    chan api.Message
	closed  chan struct{}
	ID      string
	UserID  string
	pending []api.Message
	once    sync.Once
	mu      sync.Mutex
	ready   bool
}

// Send очередь сообщений для записи в сокет
func (c *Client) Send() <-chan api.Message {
	return c.send
}

// Closed закрывается, когда hub отключил клиента (например, переполнение очереди)
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

// markReady клиент завершил полную синхронизацию: накопленные обновления
// ставятся в очередь отправки перед всеми последующими
func (c *Client) markReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ready = true
	for _, msg := range c.pending {
		if !c.trySend(msg) {
			c.pending = nil
			return false
		}
	}
	c.pending = nil
	return true
}

// Ready готов ли клиент принимать поток обновлений
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// enqueue ставит сообщение в очередь отправки или в pending до ready.
// false означает переполнение, клиент должен быть отключен.
func (c *Client) enqueue(msg api.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		if len(c.pending) >= sendBuffer {
			return false
		}
		c.pending = append(c.pending, msg)
		return true
	}
	return c.trySend(msg)
}

func (c *Client) trySend(msg api.Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.closed) })
}

// Hub реестр соединений: userID -> connID -> Client
type Hub struct {
	broker  Broker
	logger  *slog.Logger
	clients map[string]map[string]*Client
	mu      sync.RWMutex
}

// New создает hub поверх брокера
func New(broker Broker, logger *slog.Logger) *Hub {
	return &Hub{
		broker:  broker,
		logger:  logger,
		clients: make(map[string]map[string]*Client),
	}
}

// Register добавляет соединение пользователя
func (h *Hub) Register(userID string) *Client {
	c := &Client{
		ID:     ulid.Make().String(),
		UserID: userID,
		send:   make(chan api.Message, sendBuffer),
		closed: make(chan struct{}),
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[string]*Client)
	}
	h.clients[userID][c.ID] = c
	h.mu.Unlock()

	h.logger.Debug("live client registered", slog.String("user_id", userID), slog.String("conn_id", c.ID))
	return c
}

// Unregister удаляет соединение
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[c.UserID]; ok {
		delete(conns, c.ID)
		if len(conns) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()

	c.close()
	h.logger.Debug("live client unregistered", slog.String("user_id", c.UserID), slog.String("conn_id", c.ID))
}

// Count число соединений пользователя
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish отправляет принятые документы в брокер.
// origin - id соединения-источника ("" для HTTP update).
func (h *Hub) Publish(ctx context.Context, userID, origin string, docs []*models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return h.broker.Publish(ctx, Event{
		UserID: userID,
		Origin: origin,
		Docs:   models.DocumentsToAPI(docs),
	})
}

// Run читает события брокера и раздает их соединениям до отмены ctx
func (h *Hub) Run(ctx context.Context) error {
	return h.broker.Subscribe(ctx, h.deliver)
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[ev.UserID]))
	for id, c := range h.clients[ev.UserID] {
		if id == ev.Origin {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	msg := api.Message{Type: api.MessageDocUpdate, Docs: ev.Docs}
	for _, c := range targets {
		if !c.enqueue(msg) {
			h.dropSlow(c)
		}
	}
}

// dropSlow отключает клиента с переполненной очередью,
// после переподключения он пройдет полную синхронизацию
func (h *Hub) dropSlow(c *Client) {
	h.logger.Warn("live client too slow, disconnecting",
		slog.String("user_id", c.UserID),
		slog.String("conn_id", c.ID))
	c.close()
}

// MarkReady переводит клиента в поток обновлений и отправляет накопленное
func (h *Hub) MarkReady(c *Client) {
	if !c.markReady() {
		h.dropSlow(c)
	}
}
