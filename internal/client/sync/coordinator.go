package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
)

// DefaultBatchSize количество документов в одном запросе push/pull
const DefaultBatchSize = 20

var (
	// ErrSyncInProgress синхронизация уже выполняется
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrGuestSession гостевая сессия не синхронизируется
	ErrGuestSession = errors.New("guest session does not sync")
	// ErrSyncAborted состояние покинуло syncing (обрыв канала) во время синхронизации
	ErrSyncAborted = errors.New("sync aborted")
)

//go:generate moq -out session_mock.go . Session

// Session источник учетных данных для синхронизации
type Session interface {
	// IsGuest сообщает, что текущая сессия гостевая
	IsGuest(ctx context.Context) (bool, error)
	// AccessToken возвращает действующий access token, при необходимости обновляя его.
	// Отказ сервера возвращается как api.ErrUnauthorized.
	AccessToken(ctx context.Context) (string, error)
}

// Result итог одного прохода синхронизации
type Result struct {
	Pushed  int
	Pulled  int
	Deleted int
	Skipped int
}

// Coordinator выполняет план синхронизации пачками: сначала push, затем pull
type Coordinator struct {
	api       api.ClientAPI
	store     storage.DocumentStore
	meta      storage.MetadataStorage
	session   Session
	state     *State
	queue     *StaleQueue
	logger    *slog.Logger
	now       func() time.Time
	batchSize int
	running   atomic.Bool
}

// NewCoordinator создает Coordinator. batchSize <= 0 заменяется на DefaultBatchSize.
func NewCoordinator(
	apiClient api.ClientAPI,
	store storage.DocumentStore,
	meta storage.MetadataStorage,
	session Session,
	state *State,
	queue *StaleQueue,
	logger *slog.Logger,
	batchSize int,
) *Coordinator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Coordinator{
		api:       apiClient,
		store:     store,
		meta:      meta,
		session:   session,
		state:     state,
		queue:     queue,
		logger:    logger,
		now:       time.Now,
		batchSize: batchSize,
	}
}

// State возвращает состояние соединения, которым управляет Coordinator
func (c *Coordinator) State() *State {
	return c.state
}

// Queue возвращает очередь неподтвержденных live-записей
func (c *Coordinator) Queue() *StaleQueue {
	return c.queue
}

// Sync выполняет полную синхронизацию.
// Повторный вызов во время работы возвращает ErrSyncInProgress без побочных эффектов.
// Любая ошибка отражается в State: 401 -> disconnected + NeedsReauth,
// недоступность сети -> disconnected, остальное -> error.
func (c *Coordinator) Sync(ctx context.Context) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer c.running.Store(false)

	guest, err := c.session.IsGuest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if guest {
		return nil, ErrGuestSession
	}

	if c.state.Current() != StateRequested {
		c.state.Set(StateRequested)
	}
	// полная синхронизация перекрывает все, что ждало отправки по live-каналу
	c.queue.Clear()
	c.state.Set(StateSyncing)
	c.state.setProgress(nil)

	result, err := c.run(ctx)
	c.state.setProgress(nil)
	if err != nil {
		c.fail(ctx, err)
		return nil, err
	}

	if !c.state.Transition(StateSyncing, StateCompleted) {
		return nil, ErrSyncAborted
	}
	c.state.SetNeedsReauth(false)

	if err := c.meta.SaveLastSync(ctx, c.now()); err != nil {
		c.logger.WarnContext(ctx, "Failed to save last sync time", slog.Any("error", err))
	}

	c.logger.InfoContext(ctx, "Sync completed",
		slog.Int("pushed", result.Pushed),
		slog.Int("pulled", result.Pulled),
		slog.Int("deleted", result.Deleted),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

func (c *Coordinator) run(ctx context.Context) (*Result, error) {
	token, err := c.session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	local, err := c.store.AllStubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local inventory: %w", err)
	}

	plan, err := c.api.SyncBegin(ctx, token, models.StubsToAPI(local))
	if err != nil {
		return nil, fmt.Errorf("sync begin: %w", err)
	}
	if err := c.checkActive(); err != nil {
		return nil, err
	}

	toServer := models.StubsFromAPI(plan.Server)
	toClient := models.StubsFromAPI(plan.Client)
	total := len(toServer) + len(toClient)

	c.logger.DebugContext(ctx, "Sync plan received",
		slog.Int("local", len(local)),
		slog.Int("to_server", len(toServer)),
		slog.Int("to_client", len(toClient)))

	result := &Result{}
	var done int

	for _, batch := range chunk(toServer, c.batchSize) {
		if err := c.push(ctx, token, batch); err != nil {
			return nil, err
		}
		result.Pushed += len(batch)
		done += len(batch)
		c.report(done, total)
	}

	for _, batch := range chunk(toClient, c.batchSize) {
		pulled, deleted, skipped, err := c.pull(ctx, token, batch)
		if err != nil {
			return nil, err
		}
		result.Pulled += pulled
		result.Deleted += deleted
		result.Skipped += skipped
		done += len(batch)
		c.report(done, total)
	}

	return result, nil
}

// push отправляет пачку локальных документов. Tombstone уходит без чтения тела.
func (c *Coordinator) push(ctx context.Context, token string, batch []models.Stub) error {
	docs := make([]*models.Document, 0, len(batch))
	var ids []string
	for _, s := range batch {
		if s.Deleted {
			docs = append(docs, s.Tombstone())
			continue
		}
		ids = append(ids, s.ID)
	}

	if len(ids) > 0 {
		bodies, err := c.store.GetMany(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to read local documents: %w", err)
		}
		docs = append(docs, bodies...)
	}

	if err := c.api.SyncUpdate(ctx, token, models.DocumentsToAPI(docs)); err != nil {
		return fmt.Errorf("sync update: %w", err)
	}
	return c.checkActive()
}

// pull применяет пачку: удаления синтезируются из stub, тела запрашиваются у сервера
func (c *Coordinator) pull(ctx context.Context, token string, batch []models.Stub) (pulled, deleted, skipped int, err error) {
	var tombstones []*models.Document
	var writes []models.Stub
	for _, s := range batch {
		if s.Deleted {
			tombstones = append(tombstones, s.Tombstone())
			continue
		}
		writes = append(writes, s)
	}

	incoming := tombstones
	if len(writes) > 0 {
		docs, err := c.api.SyncRequest(ctx, token, models.StubsToAPI(writes))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("sync request: %w", err)
		}
		if err := c.checkActive(); err != nil {
			return 0, 0, 0, err
		}
		incoming = append(incoming, models.DocumentsFromAPI(docs)...)
	}

	applied, err := ApplyRemote(ctx, c.store, incoming)
	if err != nil {
		return 0, 0, 0, err
	}

	for _, d := range applied {
		if d.Deleted {
			deleted++
		} else {
			pulled++
		}
	}
	return pulled, deleted, len(incoming) - len(applied), nil
}

// fail переводит State по классу ошибки
func (c *Coordinator) fail(ctx context.Context, err error) {
	switch {
	case errors.Is(err, ErrSyncAborted):
		c.logger.InfoContext(ctx, "Sync aborted", slog.String("state", string(c.state.Current())))
	case errors.Is(err, api.ErrUnauthorized):
		c.logger.WarnContext(ctx, "Sync rejected, re-authentication required", slog.Any("error", err))
		c.state.SetNeedsReauth(true)
		c.state.Set(StateDisconnected)
	case errors.Is(err, api.ErrNetworkUnreachable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		c.logger.InfoContext(ctx, "Server unreachable, staying offline", slog.Any("error", err))
		c.state.Set(StateDisconnected)
	default:
		c.logger.ErrorContext(ctx, "Sync failed", slog.Any("error", err))
		c.state.Fail(err)
	}
}

// checkActive останавливает проход, если состояние сменилось извне
func (c *Coordinator) checkActive() error {
	if c.state.Current() != StateSyncing {
		return ErrSyncAborted
	}
	return nil
}

func (c *Coordinator) report(done, total int) {
	if total == 0 {
		return
	}
	p := math.Round(float64(done)/float64(total)*1000) / 10
	c.state.setProgress(&p)
}

// ApplyRemote записывает удаленные документы, пропуская те, чей counter не больше
// локального: локальная правка новее и уйдет на сервер следующей синхронизацией.
// Возвращает примененные документы.
func ApplyRemote(ctx context.Context, store storage.DocumentStore, docs []*models.Document) ([]*models.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	applied, err := store.ApplyNewer(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to apply remote documents: %w", err)
	}
	return applied, nil
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
