package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/client/storage/boltdb"
	clientsync "github.com/iudanet/notesync/internal/client/sync"
	"github.com/iudanet/notesync/internal/models"
	pkgapi "github.com/iudanet/notesync/pkg/api"
)

const waitFor = 2 * time.Second

var errConnClosed = errors.New("connection closed")

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeConn соединение в памяти: тест играет роль сервера
type fakeConn struct {
	toClient   chan pkgapi.Message
	fromClient chan pkgapi.Message
	closed     chan struct{}
	once       sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		toClient:   make(chan pkgapi.Message, 16),
		fromClient: make(chan pkgapi.Message, 16),
		closed:     make(chan struct{}),
	}
}

func (c *fakeConn) ReadJSON(v any) error {
	select {
	case msg := <-c.toClient:
		*v.(*pkgapi.Message) = msg
		return nil
	case <-c.closed:
		return errConnClosed
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	select {
	case c.fromClient <- v.(pkgapi.Message):
		return nil
	case <-c.closed:
		return errConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// expect ждет следующее сообщение клиента заданного типа
func (c *fakeConn) expect(t *testing.T, typ pkgapi.MessageType) pkgapi.Message {
	t.Helper()
	select {
	case msg := <-c.fromClient:
		require.Equal(t, typ, msg.Type)
		return msg
	case <-time.After(waitFor):
		t.Fatalf("no %s message from client", typ)
		return pkgapi.Message{}
	}
}

type fakeDialer struct {
	conns chan *fakeConn
	errs  []error
	urls  []string
	mu    sync.Mutex
}

func newFakeDialer(errs ...error) *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 8), errs: errs}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = append(d.urls, url)
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		return nil, err
	}
	c := newFakeConn()
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) next(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(waitFor):
		t.Fatal("client did not dial")
		return nil
	}
}

type liveFixture struct {
	api     *api.ClientAPIMock
	store   *boltdb.Storage
	state   *clientsync.State
	queue   *clientsync.StaleQueue
	session *clientsync.SessionMock
	dialer  *fakeDialer
	display *DisplaySet
	mgr     *Manager
	done    chan error
	cancel  context.CancelFunc
}

func emptyPlan(ctx context.Context, token string, docs []pkgapi.Stub) (*pkgapi.BeginResponse, error) {
	return &pkgapi.BeginResponse{}, nil
}

func newLiveFixture(t *testing.T, apiMock *api.ClientAPIMock, dialer *fakeDialer) *liveFixture {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)

	if apiMock.SyncBeginFunc == nil {
		apiMock.SyncBeginFunc = emptyPlan
	}
	if apiMock.SyncUpdateFunc == nil {
		apiMock.SyncUpdateFunc = func(ctx context.Context, token string, docs []pkgapi.Document) error {
			return nil
		}
	}
	apiMock.LiveURLFunc = func(accessToken string) (string, error) {
		return "ws://server/sync/live?token=" + accessToken, nil
	}

	f := &liveFixture{
		api:   apiMock,
		store: store,
		state: clientsync.NewState(),
		queue: clientsync.NewStaleQueue(),
		session: &clientsync.SessionMock{
			IsGuestFunc: func(ctx context.Context) (bool, error) {
				return false, nil
			},
			AccessTokenFunc: func(ctx context.Context) (string, error) {
				return "token", nil
			},
		},
		dialer:  dialer,
		display: NewDisplaySet("", nil),
		done:    make(chan error, 1),
	}
	meta := &storage.MetadataStorageMock{
		SaveLastSyncFunc: func(ctx context.Context, at time.Time) error {
			return nil
		},
	}
	coord := clientsync.NewCoordinator(f.api, store, meta, f.session, f.state, f.queue, setupTestLogger(), clientsync.DefaultBatchSize)
	f.mgr = NewManager(f.api, store, f.session, coord, dialer, f.display, setupTestLogger(), Options{
		Debounce:     20 * time.Millisecond,
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 50 * time.Millisecond,
	})

	t.Cleanup(func() {
		if f.cancel != nil {
			f.cancel()
			select {
			case <-f.done:
			case <-time.After(waitFor):
				t.Error("manager did not stop")
			}
		}
		_ = store.Close()
	})
	return f
}

func (f *liveFixture) start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() {
		f.done <- f.mgr.Run(ctx)
	}()
}

func (f *liveFixture) waitState(t *testing.T, want clientsync.ConnectionState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.state.Current() == want
	}, waitFor, 5*time.Millisecond, "state %s not reached, got %s", want, f.state.Current())
}

func (f *liveFixture) connect(t *testing.T) *fakeConn {
	t.Helper()
	conn := f.dialer.next(t)
	conn.expect(t, pkgapi.MessageReady)
	f.waitState(t, clientsync.StateConnected)
	return conn
}

func doc(id, rev, text string) pkgapi.Document {
	return pkgapi.Document{ID: id, Rev: rev, Body: json.RawMessage(`{"text":"` + text + `"}`)}
}

func TestManager_ConnectSyncsBeforeReady(t *testing.T) {
	f := newLiveFixture(t, &api.ClientAPIMock{}, newFakeDialer())
	f.start()

	f.connect(t)
	assert.Len(t, f.api.SyncBeginCalls(), 1)
	assert.Equal(t, []string{"ws://server/sync/live?token=token"}, f.dialer.urls)
}

func TestManager_PushesLocalWritesAndClearsOnAck(t *testing.T) {
	f := newLiveFixture(t, &api.ClientAPIMock{}, newFakeDialer())
	f.start()
	conn := f.connect(t)

	local, err := f.store.Put(context.Background(), &models.Document{ID: "note:plain:1", Body: json.RawMessage(`{"text":"a"}`)})
	require.NoError(t, err)

	msg := conn.expect(t, pkgapi.MessageDocUpdate)
	require.Len(t, msg.Docs, 1)
	assert.Equal(t, local.Rev, msg.Docs[0].Rev)
	assert.Equal(t, 1, f.queue.Len())

	conn.toClient <- pkgapi.Message{Type: pkgapi.MessageAck, Acked: []pkgapi.Stub{{ID: local.ID, Rev: local.Rev}}}
	require.Eventually(t, func() bool { return f.queue.Len() == 0 }, waitFor, 5*time.Millisecond)

	// локальная запись сразу видна в наборе отображения
	require.Len(t, f.display.Docs(), 1)
}

func TestManager_RapidEditsCoalesce(t *testing.T) {
	f := newLiveFixture(t, &api.ClientAPIMock{}, newFakeDialer())
	f.mgr.opts.Debounce = 100 * time.Millisecond
	f.start()
	conn := f.connect(t)

	ctx := context.Background()
	d, err := f.store.Put(ctx, &models.Document{ID: "a", Body: json.RawMessage(`{"v":1}`)})
	require.NoError(t, err)
	for i := range 3 {
		d, err = f.store.Put(ctx, &models.Document{ID: "a", Rev: d.Rev, Body: json.RawMessage(`{"v":` + strconv.Itoa(i+2) + `}`)})
		require.NoError(t, err)
	}

	msg := conn.expect(t, pkgapi.MessageDocUpdate)
	require.Len(t, msg.Docs, 1)
	assert.Equal(t, d.Rev, msg.Docs[0].Rev)
}

func TestManager_InboundDeferredUntilConnected(t *testing.T) {
	syncing := make(chan struct{}, 1)
	release := make(chan struct{})
	apiMock := &api.ClientAPIMock{
		SyncBeginFunc: func(ctx context.Context, token string, docs []pkgapi.Stub) (*pkgapi.BeginResponse, error) {
			select {
			case syncing <- struct{}{}:
			default:
			}
			<-release
			return &pkgapi.BeginResponse{}, nil
		},
	}
	f := newLiveFixture(t, apiMock, newFakeDialer())
	f.start()

	conn := f.dialer.next(t)
	<-syncing
	assert.Equal(t, clientsync.StateSyncing, f.state.Current())

	conn.toClient <- pkgapi.Message{Type: pkgapi.MessageDocUpdate, Docs: []pkgapi.Document{doc("a", "1-remote", "a")}}
	assert.Never(t, func() bool {
		_, err := f.store.Get(context.Background(), "a")
		return err == nil
	}, 100*time.Millisecond, 10*time.Millisecond)

	close(release)
	conn.expect(t, pkgapi.MessageReady)

	require.Eventually(t, func() bool {
		got, err := f.store.Get(context.Background(), "a")
		return err == nil && got.Rev == "1-remote"
	}, waitFor, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(f.display.Docs()) == 1 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, clientsync.StateConnected, f.state.Current())
}

func TestManager_LocalWritesHeldUntilConnected(t *testing.T) {
	syncing := make(chan struct{}, 1)
	release := make(chan struct{})
	apiMock := &api.ClientAPIMock{
		SyncBeginFunc: func(ctx context.Context, token string, docs []pkgapi.Stub) (*pkgapi.BeginResponse, error) {
			select {
			case syncing <- struct{}{}:
			default:
			}
			<-release
			return &pkgapi.BeginResponse{}, nil
		},
	}
	f := newLiveFixture(t, apiMock, newFakeDialer())
	f.start()

	conn := f.dialer.next(t)
	<-syncing

	_, err := f.store.Put(context.Background(), &models.Document{ID: "a", Body: json.RawMessage(`{}`)})
	require.NoError(t, err)

	// debounce истек, но состояние не connected: ничего не отправлено
	select {
	case msg := <-conn.fromClient:
		t.Fatalf("unexpected %s before connected", msg.Type)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 1, f.queue.Len())

	close(release)
	conn.expect(t, pkgapi.MessageReady)
	msg := conn.expect(t, pkgapi.MessageDocUpdate)
	assert.Equal(t, "a", msg.Docs[0].ID)
}

func TestManager_InboundOlderRevisionIgnored(t *testing.T) {
	f := newLiveFixture(t, &api.ClientAPIMock{}, newFakeDialer())
	ctx := context.Background()

	local, err := f.store.Put(ctx, &models.Document{ID: "a", Body: json.RawMessage(`{}`)})
	require.NoError(t, err)
	local, err = f.store.Put(ctx, &models.Document{ID: "a", Rev: local.Rev, Body: json.RawMessage(`{"v":2}`)})
	require.NoError(t, err)

	f.start()
	conn := f.connect(t)

	conn.toClient <- pkgapi.Message{Type: pkgapi.MessageDocUpdate, Docs: []pkgapi.Document{
		doc("a", "1-stale", "old"),
		{ID: "b", Rev: "4-gone", Deleted: true},
	}}

	require.Eventually(t, func() bool {
		_, err := f.store.Get(ctx, "b")
		return err == nil
	}, waitFor, 5*time.Millisecond)

	got, err := f.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, local.Rev, got.Rev)
}

func TestManager_GuestNeverDials(t *testing.T) {
	dialer := newFakeDialer()
	f := newLiveFixture(t, &api.ClientAPIMock{}, dialer)
	f.session.IsGuestFunc = func(ctx context.Context) (bool, error) {
		return true, nil
	}

	err := f.mgr.Run(context.Background())
	assert.ErrorIs(t, err, clientsync.ErrGuestSession)
	assert.Zero(t, dialer.Dials())
}

func TestManager_UnauthorizedStops(t *testing.T) {
	apiMock := &api.ClientAPIMock{
		SyncBeginFunc: func(ctx context.Context, token string, docs []pkgapi.Stub) (*pkgapi.BeginResponse, error) {
			return nil, &api.StatusError{StatusCode: 401}
		},
	}
	f := newLiveFixture(t, apiMock, newFakeDialer())

	err := f.mgr.Run(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.True(t, f.state.NeedsReauth())
	assert.Equal(t, clientsync.StateDisconnected, f.state.Current())
	assert.Equal(t, 1, f.dialer.Dials())
}

func TestManager_HandshakeUnauthorizedStops(t *testing.T) {
	dialer := newFakeDialer(api.ErrUnauthorized)
	f := newLiveFixture(t, &api.ClientAPIMock{}, dialer)

	err := f.mgr.Run(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.True(t, f.state.NeedsReauth())
	assert.Empty(t, f.api.SyncBeginCalls())
}

func TestManager_StopReleasesChangeFeed(t *testing.T) {
	dialer := newFakeDialer(api.ErrUnauthorized)
	f := newLiveFixture(t, &api.ClientAPIMock{}, dialer)

	// ctx остается живым после выхода Run
	err := f.mgr.Run(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)

	written := make(chan error, 1)
	go func() {
		for i := 0; i < 200; i++ {
			if _, err := f.store.Put(context.Background(), &models.Document{
				ID:   "note:plain:" + strconv.Itoa(i),
				Body: json.RawMessage(`{}`),
			}); err != nil {
				written <- err
				return
			}
		}
		written <- nil
	}()

	select {
	case err := <-written:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("local writes blocked after Run returned")
	}
}

func TestManager_SessionReadFailureSetsError(t *testing.T) {
	dialer := newFakeDialer()
	f := newLiveFixture(t, &api.ClientAPIMock{}, dialer)

	var mu sync.Mutex
	broken := true
	f.session.AccessTokenFunc = func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if broken {
			return "", errors.New("read session: database not open")
		}
		return "token", nil
	}
	f.start()

	f.waitState(t, clientsync.StateError)
	require.Error(t, f.state.Err())
	assert.Zero(t, dialer.Dials())

	mu.Lock()
	broken = false
	mu.Unlock()

	f.mgr.Retry()
	f.connect(t)
	assert.Nil(t, f.state.Err())
}

func TestManager_NetworkErrorRetriesSilently(t *testing.T) {
	dialer := newFakeDialer(api.ErrNetworkUnreachable, api.ErrNetworkUnreachable)
	f := newLiveFixture(t, &api.ClientAPIMock{}, dialer)
	f.start()

	f.connect(t)
	assert.Equal(t, 3, dialer.Dials())
	assert.Nil(t, f.state.Err())
}

func TestManager_ErrorStateWaitsForRetry(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	apiMock := &api.ClientAPIMock{
		SyncBeginFunc: func(ctx context.Context, token string, docs []pkgapi.Stub) (*pkgapi.BeginResponse, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return nil, &api.StatusError{StatusCode: 500, Message: "boom"}
			}
			return &pkgapi.BeginResponse{}, nil
		},
	}
	dialer := newFakeDialer()
	f := newLiveFixture(t, apiMock, dialer)
	f.start()

	dialer.next(t)
	f.waitState(t, clientsync.StateError)
	require.Error(t, f.state.Err())

	// без Retry повторных подключений нет
	assert.Never(t, func() bool { return dialer.Dials() > 1 }, 150*time.Millisecond, 10*time.Millisecond)

	f.mgr.Retry()
	f.connect(t)
	assert.Nil(t, f.state.Err())
}

func TestManager_ReconnectsAfterDrop(t *testing.T) {
	dialer := newFakeDialer()
	f := newLiveFixture(t, &api.ClientAPIMock{}, dialer)
	f.start()

	first := f.connect(t)
	require.NoError(t, first.Close())

	f.connect(t)
	assert.Len(t, f.api.SyncBeginCalls(), 2)
}

func TestManager_DropDuringSyncAborts(t *testing.T) {
	var conn *fakeConn
	var once sync.Once
	apiMock := &api.ClientAPIMock{
		SyncBeginFunc: func(ctx context.Context, token string, docs []pkgapi.Stub) (*pkgapi.BeginResponse, error) {
			first := false
			once.Do(func() { first = true })
			if first {
				// соединение обрывается, пока запрос в полете
				_ = conn.Close()
				time.Sleep(20 * time.Millisecond)
				return &pkgapi.BeginResponse{Server: docs}, nil
			}
			return &pkgapi.BeginResponse{}, nil
		},
	}
	dialer := newFakeDialer()
	f := newLiveFixture(t, apiMock, dialer)
	_, err := f.store.Put(context.Background(), &models.Document{ID: "a", Body: json.RawMessage(`{}`)})
	require.NoError(t, err)

	// первое соединение создаем заранее, чтобы SyncBegin мог его закрыть
	conn = newFakeConn()
	f.mgr.dialer = &preparedDialer{first: conn, next: dialer}
	f.start()

	f.connect(t)
	// push первого прохода не выполнялся: обрыв остановил синхронизацию
	assert.Empty(t, f.api.SyncUpdateCalls())
}

// preparedDialer отдает заранее созданное соединение, затем делегирует
type preparedDialer struct {
	first *fakeConn
	next  *fakeDialer
	used  bool
	mu    sync.Mutex
}

func (d *preparedDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	if !d.used {
		d.used = true
		d.mu.Unlock()
		return d.first, nil
	}
	d.mu.Unlock()
	return d.next.Dial(ctx, url)
}
