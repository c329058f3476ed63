package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/reconcile"
	"github.com/iudanet/notesync/internal/server/storage"
	"github.com/iudanet/notesync/internal/validation"
	"github.com/iudanet/notesync/pkg/api"
)

// Publisher рассылает принятые документы live-соединениям пользователя
type Publisher interface {
	Publish(ctx context.Context, userID, origin string, docs []*models.Document) error
}

// SyncHandler обрабатывает /sync/begin, /sync/request и /sync/update.
// Состояния между запросами не хранит: пользователь определяется по токену.
type SyncHandler struct {
	logger    *slog.Logger
	storage   storage.DocumentStorage
	publisher Publisher
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, storage storage.DocumentStorage, publisher Publisher) *SyncHandler {
	return &SyncHandler{
		logger:    logger,
		storage:   storage,
		publisher: publisher,
	}
}

// Begin обрабатывает POST /sync/begin.
// Сверяет инвентарь клиента с инвентарем сервера и возвращает план.
func (h *SyncHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.BeginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode begin request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	serverStubs, err := h.storage.AllStubs(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load inventory", slog.Any("error", err), slog.String("user_id", userID))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	plan, err := reconcile.Reconcile(serverStubs, models.StubsFromAPI(req.Docs))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid client inventory", slog.Any("error", err), slog.String("user_id", userID))
		sendError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}

	for _, c := range plan.Conflicts {
		h.logger.WarnContext(ctx, "revision conflict detected",
			slog.String("user_id", userID),
			slog.String("id", c.ID),
			slog.String("server_rev", c.Server),
			slog.String("client_rev", c.Client))
	}

	h.logger.InfoContext(ctx, "sync begin",
		slog.String("user_id", userID),
		slog.Int("client_docs", len(req.Docs)),
		slog.Int("server_docs", len(serverStubs)),
		slog.Int("to_server", len(plan.ToServer)),
		slog.Int("to_client", len(plan.ToClient)))

	sendJSON(w, h.logger, api.BeginResponse{
		Server: models.StubsToAPI(plan.ToServer),
		Client: models.StubsToAPI(plan.ToClient),
	}, http.StatusOK)
}

// Request обрабатывает POST /sync/request: возвращает полные документы по stubs
func (h *SyncHandler) Request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.DocsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode request body", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	ids := make([]string, 0, len(req.Docs))
	for _, s := range req.Docs {
		ids = append(ids, s.ID)
	}

	docs, err := h.storage.GetDocuments(ctx, userID, ids)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get documents", slog.Any("error", err), slog.String("user_id", userID))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.DebugContext(ctx, "sync request", slog.String("user_id", userID), slog.Int("requested", len(ids)), slog.Int("found", len(docs)))

	sendJSON(w, h.logger, models.DocumentsToAPI(docs), http.StatusOK)
}

// Update обрабатывает POST /sync/update: сохраняет присланные документы.
// Документ с counter не больше сохраненного пропускается.
func (h *SyncHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode update request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	for _, d := range req.Docs {
		if err := validation.ValidateDocumentID(d.ID); err != nil {
			sendError(w, h.logger, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := reconcile.ParseRevision(d.Rev); err != nil {
			sendError(w, h.logger, err.Error(), http.StatusBadRequest)
			return
		}
	}

	accepted, err := h.storage.ApplyDocuments(ctx, userID, models.DocumentsFromAPI(req.Docs))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to apply documents", slog.Any("error", err), slog.String("user_id", userID))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "sync update",
		slog.String("user_id", userID),
		slog.Int("received", len(req.Docs)),
		slog.Int("accepted", len(accepted)))

	if h.publisher != nil && len(accepted) > 0 {
		if err := h.publisher.Publish(ctx, userID, "", accepted); err != nil {
			// документы уже сохранены, клиенты догонят при следующей синхронизации
			h.logger.WarnContext(ctx, "failed to publish update", slog.Any("error", err))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
