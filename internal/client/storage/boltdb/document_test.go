package boltdb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/reconcile"
)

func body(s string) json.RawMessage {
	return json.RawMessage(`{"text":"` + s + `"}`)
}

func counter(t *testing.T, rev string) int64 {
	t.Helper()
	c, err := reconcile.Counter(rev)
	require.NoError(t, err)
	return c
}

func TestPut_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	created, err := store.Put(ctx, &models.Document{ID: "note:plain:1", Body: body("a")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counter(t, created.Rev))
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := store.Get(ctx, "note:plain:1")
	require.NoError(t, err)
	assert.Equal(t, created.Rev, got.Rev)
	assert.JSONEq(t, `{"text":"a"}`, string(got.Body))

	updated, err := store.Put(ctx, &models.Document{ID: "note:plain:1", Rev: created.Rev, Body: body("b")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter(t, updated.Rev))

	revs, err := store.Revisions(ctx, "note:plain:1")
	require.NoError(t, err)
	assert.Equal(t, []string{updated.Rev, created.Rev}, revs)
}

func TestPut_Conflict(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	first, err := store.Put(ctx, &models.Document{ID: "a", Body: body("a")})
	require.NoError(t, err)

	tests := []struct {
		name string
		rev  string
	}{
		{"new doc over existing", ""},
		{"stale rev", "1-0000000000000000"},
		{"future rev", "5-abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Put(ctx, &models.Document{ID: "a", Rev: tt.rev, Body: body("x")})
			assert.ErrorIs(t, err, storage.ErrConflict)
		})
	}

	// rev для несуществующего документа
	_, err = store.Put(ctx, &models.Document{ID: "b", Rev: first.Rev})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestPut_DeleteKeepsTombstone(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	doc, err := store.Put(ctx, &models.Document{ID: "a", Body: body("a")})
	require.NoError(t, err)

	tomb, err := store.Put(ctx, &models.Document{ID: "a", Rev: doc.Rev, Body: body("ignored"), Deleted: true})
	require.NoError(t, err)
	assert.True(t, tomb.Deleted)
	assert.Nil(t, tomb.Body)
	assert.Equal(t, int64(2), counter(t, tomb.Rev))

	stubs, err := store.AllStubs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Stub{{ID: "a", Rev: tomb.Rev, Deleted: true}}, stubs)

	list, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPut_InvalidInput(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.Put(context.Background(), nil)
	assert.Error(t, err)
	_, err = store.Put(context.Background(), &models.Document{})
	assert.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Revisions(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetMany_SkipsMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Put(ctx, &models.Document{ID: id, Body: body(id)})
		require.NoError(t, err)
	}

	docs, err := store.GetMany(ctx, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestBulkPutOverride_ReplacesChain(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	local, err := store.Put(ctx, &models.Document{ID: "a", Body: body("local")})
	require.NoError(t, err)
	local, err = store.Put(ctx, &models.Document{ID: "a", Rev: local.Rev, Body: body("local2")})
	require.NoError(t, err)

	remote := []*models.Document{
		{ID: "a", Rev: "7-remote", Body: body("remote")},
		{ID: "b", Rev: "3-gone", Body: body("dropped"), Deleted: true},
	}
	require.NoError(t, store.BulkPutOverride(ctx, remote))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "7-remote", got.Rev)
	assert.JSONEq(t, `{"text":"remote"}`, string(got.Body))

	// локальная цепочка удалена, осталась только удаленная ревизия
	revs, err := store.Revisions(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"7-remote"}, revs)

	tomb, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, tomb.Deleted)
	assert.Nil(t, tomb.Body)

	// обычная запись продолжает цепочку от удаленной ревизии
	next, err := store.Put(ctx, &models.Document{ID: "a", Rev: "7-remote", Body: body("next")})
	require.NoError(t, err)
	assert.Equal(t, int64(8), counter(t, next.Rev))
}

func TestBulkPutOverride_MalformedRevisionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	err := store.BulkPutOverride(ctx, []*models.Document{
		{ID: "a", Rev: "1-ok", Body: body("a")},
		{ID: "b", Rev: "garbage", Body: body("b")},
	})
	require.ErrorIs(t, err, reconcile.ErrMalformedRevision)

	// транзакция откатилась целиком
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestApplyNewer(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	local, err := store.Put(ctx, &models.Document{ID: "a", Body: body("v1")})
	require.NoError(t, err)
	local, err = store.Put(ctx, &models.Document{ID: "a", Rev: local.Rev, Body: body("v2")})
	require.NoError(t, err)

	events := store.Changes(ctx)

	applied, err := store.ApplyNewer(ctx, []*models.Document{
		{ID: "a", Rev: "1-old", Body: body("old")},
		{ID: "a", Rev: "2-branch", Body: body("branch")},
		{ID: "b", Rev: "4-new", Body: body("b4")},
		{ID: "b", Rev: "3-stale", Body: body("b3")},
		{ID: "c", Rev: "1-gone", Deleted: true},
	})
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "4-new", applied[0].Rev)
	assert.Equal(t, "1-gone", applied[1].Rev)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, local.Rev, got.Rev)
	assert.JSONEq(t, `{"text":"v2"}`, string(got.Body))

	// внутри одной пачки более старая ревизия не перетирает только что записанную
	got, err = store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "4-new", got.Rev)

	for _, want := range []string{"b", "c"} {
		select {
		case ev := <-events:
			assert.Equal(t, want, ev.ID)
			assert.True(t, ev.Remote)
		case <-time.After(time.Second):
			t.Fatalf("no event for %s", want)
		}
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestApplyNewer_LocalEditsNeverRolledBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	first, err := store.Put(ctx, &models.Document{ID: "a", Body: body("v1")})
	require.NoError(t, err)

	const edits = 50
	done := make(chan string)
	go func() {
		rev := first.Rev
		for i := 0; i < edits; i++ {
			doc, err := store.Put(ctx, &models.Document{ID: "a", Rev: rev, Body: body("local")})
			if err != nil {
				// удаленная ревизия успела лечь раньше, продолжаем от нее
				cur, getErr := store.Get(ctx, "a")
				if getErr != nil {
					break
				}
				rev = cur.Rev
				continue
			}
			rev = doc.Rev
		}
		done <- rev
	}()

	for i := 0; i < edits; i++ {
		_, err := store.ApplyNewer(ctx, []*models.Document{{ID: "a", Rev: "2-remote", Body: body("remote")}})
		require.NoError(t, err)
	}
	last := <-done

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, last, got.Rev)
	assert.GreaterOrEqual(t, counter(t, got.Rev), int64(2))
}

func TestList_Prefix(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	for _, id := range []string{"note:plain:2", "note:plain:1", "list:todo:1", "note:check:1"} {
		_, err := store.Put(ctx, &models.Document{ID: id, Body: body(id)})
		require.NoError(t, err)
	}

	docs, err := store.List(ctx, "note:")
	require.NoError(t, err)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"note:check:1", "note:plain:1", "note:plain:2"}, ids)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestChanges_LocalAndRemote(t *testing.T) {
	store := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())

	events := store.Changes(ctx)

	doc, err := store.Put(context.Background(), &models.Document{ID: "a", Body: body("a")})
	require.NoError(t, err)
	require.NoError(t, store.BulkPutOverride(context.Background(), []*models.Document{
		{ID: "b", Rev: "2-x", Deleted: true},
	}))

	expect := []storage.ChangeEvent{
		{ID: "a", Rev: doc.Rev},
		{ID: "b", Rev: "2-x", Deleted: true, Remote: true},
	}
	for _, want := range expect {
		select {
		case ev := <-events:
			assert.Equal(t, want, ev)
		case <-time.After(time.Second):
			t.Fatalf("no event for %s", want.ID)
		}
	}

	cancel()
	// после отмены канал закрывается
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// запись без подписчиков не блокируется
	_, err = store.Put(context.Background(), &models.Document{ID: "c", Body: body("c")})
	require.NoError(t, err)
}

func TestDocuments_Closed(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	require.NoError(t, store.Close())

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.Put(ctx, &models.Document{ID: "a"})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.BulkPutOverride(ctx, []*models.Document{{ID: "a", Rev: "1-a"}}), storage.ErrStorageClosed)
	_, err = store.AllStubs(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.List(ctx, "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.GetMany(ctx, []string{"a"})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
