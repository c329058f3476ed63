package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/reconcile"
	"github.com/iudanet/notesync/internal/server/hub"
	"github.com/iudanet/notesync/internal/server/storage"
	"github.com/iudanet/notesync/pkg/api"
)

const (
	liveWriteTimeout = 10 * time.Second
	liveReadLimit    = 8 << 20
)

// LiveHandler обслуживает GET /sync/live (websocket).
// После подключения клиент выполняет полную синхронизацию по HTTP, присылает
// ready и только после этого получает поток docUpdate.
type LiveHandler struct {
	logger         *slog.Logger
	storage        storage.DocumentStorage
	hub            *hub.Hub
	originPatterns []string
}

// NewLiveHandler creates a new live channel handler
func NewLiveHandler(logger *slog.Logger, storage storage.DocumentStorage, h *hub.Hub, originPatterns []string) *LiveHandler {
	return &LiveHandler{
		logger:         logger,
		storage:        storage,
		hub:            h,
		originPatterns: originPatterns,
	}
}

// Serve принимает websocket соединение
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	// таймауты http.Server не должны обрывать долгоживущее соединение
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.Any("error", err))
		return
	}
	defer func() {
		_ = conn.CloseNow()
	}()
	conn.SetReadLimit(liveReadLimit)

	client := h.hub.Register(userID)
	defer h.hub.Unregister(client)

	logger := h.logger.With(slog.String("user_id", userID), slog.String("conn_id", client.ID))
	logger.Info("live channel connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	acks := make(chan api.Message, 8)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.readLoop(gctx, conn, client, acks, logger)
	})
	g.Go(func() error {
		return h.writeLoop(gctx, conn, client, acks)
	})

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("live channel closed")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		logger.Info("live channel closed by client")
	default:
		logger.Warn("live channel closed with error", slog.Any("error", err))
	}
}

func (h *LiveHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client, acks chan<- api.Message, logger *slog.Logger) error {
	for {
		var msg api.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}

		switch msg.Type {
		case api.MessageReady:
			h.hub.MarkReady(client)
			logger.Debug("live client ready")
		case api.MessageDocUpdate:
			ack, err := h.applyUpdate(ctx, client, msg.Docs)
			if err != nil {
				logger.Warn("live update rejected", slog.Any("error", err))
				return err
			}
			select {
			case acks <- ack:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			logger.Warn("unknown live message", slog.String("type", string(msg.Type)))
		}
	}
}

// applyUpdate сохраняет документы клиента и рассылает принятые остальным соединениям.
// В ack попадают все обработанные stubs, включая пропущенные как устаревшие.
func (h *LiveHandler) applyUpdate(ctx context.Context, client *hub.Client, in []api.Document) (api.Message, error) {
	for _, d := range in {
		if _, err := reconcile.ParseRevision(d.Rev); err != nil {
			return api.Message{}, fmt.Errorf("document %s: %w", d.ID, err)
		}
	}

	docs := models.DocumentsFromAPI(in)
	accepted, err := h.storage.ApplyDocuments(ctx, client.UserID, docs)
	if err != nil {
		return api.Message{}, fmt.Errorf("apply documents: %w", err)
	}

	if err := h.hub.Publish(ctx, client.UserID, client.ID, accepted); err != nil {
		h.logger.Warn("failed to publish live update", slog.Any("error", err))
	}

	acked := make([]api.Stub, 0, len(docs))
	for _, d := range docs {
		acked = append(acked, api.Stub{ID: d.ID, Rev: d.Rev, Deleted: d.Deleted})
	}

	return api.Message{Type: api.MessageAck, Acked: acked}, nil
}

func (h *LiveHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client, acks <-chan api.Message) error {
	for {
		var msg api.Message
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-client.Closed():
			_ = conn.Close(websocket.StatusPolicyViolation, "too slow")
			return errors.New("client disconnected by hub")
		case msg = <-acks:
		case msg = <-client.Send():
		}

		wctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
		err := wsjson.Write(wctx, conn, msg)
		cancel()
		if err != nil {
			return err
		}
	}
}
