package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/storage"
	clientsync "github.com/iudanet/notesync/internal/client/sync"
	"github.com/iudanet/notesync/internal/models"
	pkgapi "github.com/iudanet/notesync/pkg/api"
)

// Options параметры Manager
type Options struct {
	// Debounce задержка отправки накопленных локальных записей
	Debounce time.Duration
	// ReconnectMin начальная пауза между попытками подключения
	ReconnectMin time.Duration
	// ReconnectMax верхняя граница паузы
	ReconnectMax time.Duration
}

// DefaultOptions значения по умолчанию
func DefaultOptions() Options {
	return Options{
		Debounce:     time.Second,
		ReconnectMin: time.Second,
		ReconnectMax: time.Minute,
	}
}

// Manager держит live-канал: на каждом подключении выполняет полную синхронизацию,
// затем обменивается docUpdate в обе стороны до обрыва.
type Manager struct {
	apiClient api.ClientAPI
	store     storage.DocumentStore
	session   clientsync.Session
	coord     *clientsync.Coordinator
	dialer    Dialer
	display   *DisplaySet
	logger    *slog.Logger
	opts      Options

	retry chan struct{}
	kick  chan struct{}

	mu sync.Mutex
	// conn текущее соединение; выставляется только в состоянии connected
	conn     Conn
	live     bool
	deferred []*models.Document
}

// NewManager создает Manager. display может быть nil.
func NewManager(
	apiClient api.ClientAPI,
	store storage.DocumentStore,
	session clientsync.Session,
	coord *clientsync.Coordinator,
	dialer Dialer,
	display *DisplaySet,
	logger *slog.Logger,
	opts Options,
) *Manager {
	def := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = def.ReconnectMin
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = max(def.ReconnectMax, opts.ReconnectMin)
	}
	if display == nil {
		display = NewDisplaySet("", nil)
	}

	return &Manager{
		apiClient: apiClient,
		store:     store,
		session:   session,
		coord:     coord,
		dialer:    dialer,
		display:   display,
		logger:    logger,
		opts:      opts,
		retry:     make(chan struct{}, 1),
		kick:      make(chan struct{}, 1),
	}
}

// State состояние соединения
func (m *Manager) State() *clientsync.State {
	return m.coord.State()
}

// Display набор показанных документов
func (m *Manager) Display() *DisplaySet {
	return m.display
}

// Retry снимает состояние error и запускает новую попытку подключения
func (m *Manager) Retry() {
	select {
	case m.retry <- struct{}{}:
	default:
	}
}

// Run работает до отмены ctx. Возвращает ErrGuestSession для гостевой сессии
// (без попытки подключения) и api.ErrUnauthorized, если сервер отверг учетные данные.
func (m *Manager) Run(ctx context.Context) error {
	guest, err := m.session.IsGuest(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if guest {
		return clientsync.ErrGuestSession
	}

	// подписка живет не дольше Run: иначе непрочитанный канал заблокирует запись в хранилище
	g, gctx := errgroup.WithContext(ctx)
	changes := m.store.Changes(gctx)

	g.Go(func() error {
		return m.outbound(gctx, changes)
	})
	g.Go(func() error {
		return m.connectLoop(gctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Manager) connectLoop(ctx context.Context) error {
	state := m.State()
	backoff := m.opts.ReconnectMin

	for {
		connected, err := m.connectOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch {
		case errors.Is(err, api.ErrUnauthorized):
			state.SetNeedsReauth(true)
			state.Set(clientsync.StateDisconnected)
			return err
		case errors.Is(err, clientsync.ErrGuestSession):
			return err
		}

		if connected {
			backoff = m.opts.ReconnectMin
		}

		if state.Current() == clientsync.StateError {
			// не переподключаемся к стабильно сломанному серверу без явного Retry
			m.logger.WarnContext(ctx, "Live channel halted, waiting for retry", slog.Any("error", state.Err()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.retry:
				backoff = m.opts.ReconnectMin
				continue
			}
		}

		m.logger.DebugContext(ctx, "Live channel reconnecting",
			slog.Duration("backoff", backoff),
			slog.Any("error", err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-m.retry:
			timer.Stop()
		case <-timer.C:
		}
		backoff = min(backoff*2, m.opts.ReconnectMax)
	}
}

// connectOnce обслуживает одно соединение от подключения до обрыва.
// connected сообщает, дошло ли соединение до состояния connected.
func (m *Manager) connectOnce(ctx context.Context) (connected bool, err error) {
	state := m.State()

	token, err := m.session.AccessToken(ctx)
	if err != nil {
		if !quietFailure(err) && ctx.Err() == nil {
			state.Fail(err)
		}
		return false, err
	}
	url, err := m.apiClient.LiveURL(token)
	if err != nil {
		state.Fail(err)
		return false, err
	}

	conn, err := m.dialer.Dial(ctx, url)
	if err != nil {
		if !quietFailure(err) && ctx.Err() == nil {
			state.Fail(err)
		}
		return false, err
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	state.Set(clientsync.StateRequested)
	m.logger.InfoContext(ctx, "Live channel connected, syncing")

	readErr := make(chan error, 1)
	go func() {
		err := m.readLoop(connCtx, conn)
		// обрыв во время синхронизации останавливает ее дальнейшие шаги
		m.markDisconnected()
		readErr <- err
	}()

	if _, err := m.coord.Sync(connCtx); err != nil {
		cancel()
		<-readErr
		return false, err
	}

	if err := conn.WriteJSON(pkgapi.Message{Type: pkgapi.MessageReady}); err != nil {
		cancel()
		<-readErr
		m.markDisconnected()
		return false, fmt.Errorf("%w: send ready: %w", api.ErrNetworkUnreachable, err)
	}

	if !state.Transition(clientsync.StateCompleted, clientsync.StateConnected) {
		cancel()
		return false, <-readErr
	}
	m.goLive(connCtx, conn)
	m.logger.InfoContext(ctx, "Live channel ready")

	err = <-readErr
	m.goOffline()
	m.logger.InfoContext(ctx, "Live channel lost", slog.Any("error", err))
	return true, err
}

// quietFailure ошибки, которые connectLoop обрабатывает сам: сеть уходит в backoff,
// 401 и гостевая сессия останавливают Run
func quietFailure(err error) bool {
	return errors.Is(err, api.ErrNetworkUnreachable) ||
		errors.Is(err, api.ErrUnauthorized) ||
		errors.Is(err, clientsync.ErrGuestSession)
}

// goLive публикует соединение для отправки и применяет отложенные входящие обновления
func (m *Manager) goLive(ctx context.Context, conn Conn) {
	m.mu.Lock()
	m.conn = conn
	m.live = true
	pending := m.deferred
	m.deferred = nil
	m.mu.Unlock()

	if len(pending) > 0 {
		m.logger.DebugContext(ctx, "Applying deferred live updates", slog.Int("count", len(pending)))
		m.apply(ctx, pending)
	}

	// записи, сделанные во время синхронизации, ждут в очереди
	if m.coord.Queue().Len() > 0 {
		select {
		case m.kick <- struct{}{}:
		default:
		}
	}
}

func (m *Manager) goOffline() {
	m.mu.Lock()
	m.conn = nil
	m.live = false
	m.deferred = nil
	m.mu.Unlock()
	m.markDisconnected()
}

func (m *Manager) markDisconnected() {
	state := m.State()
	if state.Current() != clientsync.StateError {
		state.Set(clientsync.StateDisconnected)
	}
}

func (m *Manager) readLoop(ctx context.Context, conn Conn) error {
	for {
		var msg pkgapi.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch msg.Type {
		case pkgapi.MessageDocUpdate:
			m.receive(ctx, models.DocumentsFromAPI(msg.Docs))
		case pkgapi.MessageAck:
			n := m.coord.Queue().Ack(models.StubsFromAPI(msg.Acked))
			m.logger.DebugContext(ctx, "Live push acknowledged", slog.Int("cleared", n))
		default:
			m.logger.WarnContext(ctx, "Unknown live message", slog.String("type", string(msg.Type)))
		}
	}
}

// receive применяет входящие документы или откладывает их до состояния connected
func (m *Manager) receive(ctx context.Context, docs []*models.Document) {
	m.mu.Lock()
	if !m.live {
		m.deferred = append(m.deferred, docs...)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.apply(ctx, docs)
}

func (m *Manager) apply(ctx context.Context, docs []*models.Document) {
	applied, err := clientsync.ApplyRemote(ctx, m.store, docs)
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to apply live update", slog.Any("error", err))
		return
	}
	m.display.Merge(applied)
}

// outbound ставит локальные записи в очередь и отправляет ее не чаще раза в Debounce
func (m *Manager) outbound(ctx context.Context, changes <-chan storage.ChangeEvent) error {
	queue := m.coord.Queue()

	var timer *time.Timer
	var timerC <-chan time.Time
	arm := func() {
		if timerC == nil {
			timer = time.NewTimer(m.opts.Debounce)
			timerC = timer.C
		}
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-changes:
			if !ok {
				return nil
			}
			if ev.Remote {
				continue
			}
			doc, err := m.store.Get(ctx, ev.ID)
			if err != nil {
				m.logger.WarnContext(ctx, "Failed to read changed document",
					slog.String("id", ev.ID), slog.Any("error", err))
				continue
			}
			queue.Add(doc)
			m.display.Merge([]*models.Document{doc})
			arm()
		case <-m.kick:
			arm()
		case <-timerC:
			timerC = nil
			m.flush(ctx)
		}
	}
}

// flush отправляет очередь одним docUpdate, только в состоянии connected.
// Очередь очищается по ack, не здесь.
func (m *Manager) flush(ctx context.Context) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil || m.State().Current() != clientsync.StateConnected {
		return
	}

	docs := m.coord.Queue().Pending()
	if len(docs) == 0 {
		return
	}

	msg := pkgapi.Message{Type: pkgapi.MessageDocUpdate, Docs: models.DocumentsToAPI(docs)}
	if err := conn.WriteJSON(msg); err != nil {
		m.logger.WarnContext(ctx, "Failed to send live update", slog.Any("error", err))
		_ = conn.Close()
		return
	}
	m.logger.DebugContext(ctx, "Live update sent", slog.Int("count", len(docs)))
}
