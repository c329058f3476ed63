package reconcile

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/models"
)

func stub(id, rev string) models.Stub {
	return models.Stub{ID: id, Rev: rev}
}

func tomb(id, rev string) models.Stub {
	return models.Stub{ID: id, Rev: rev, Deleted: true}
}

func TestReconcile_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		server       []models.Stub
		client       []models.Stub
		wantToServer []models.Stub
		wantToClient []models.Stub
	}{
		{
			name:         "both empty",
			wantToServer: []models.Stub{},
			wantToClient: []models.Stub{},
		},
		{
			name:         "new on client",
			client:       []models.Stub{stub("a", "1-x")},
			wantToServer: []models.Stub{stub("a", "1-x")},
			wantToClient: []models.Stub{},
		},
		{
			name:         "tombstone only on server",
			server:       []models.Stub{tomb("a", "1-x")},
			wantToServer: []models.Stub{},
			wantToClient: []models.Stub{tomb("a", "1-x")},
		},
		{
			name:         "equal revisions",
			server:       []models.Stub{stub("a", "3-x")},
			client:       []models.Stub{stub("a", "3-x")},
			wantToServer: []models.Stub{},
			wantToClient: []models.Stub{},
		},
		{
			name:         "client delete newer than server doc",
			server:       []models.Stub{stub("a", "1-y")},
			client:       []models.Stub{tomb("a", "2-x")},
			wantToServer: []models.Stub{tomb("a", "2-x")},
			wantToClient: []models.Stub{},
		},
		{
			name:         "server doc newer than client delete resurrects",
			server:       []models.Stub{stub("a", "3-z")},
			client:       []models.Stub{tomb("a", "2-x")},
			wantToServer: []models.Stub{},
			wantToClient: []models.Stub{stub("a", "3-z")},
		},
		{
			name:         "counters compare numerically",
			server:       []models.Stub{stub("a", "9-z")},
			client:       []models.Stub{stub("a", "10-a")},
			wantToServer: []models.Stub{stub("a", "10-a")},
			wantToClient: []models.Stub{},
		},
		{
			name: "mixed",
			server: []models.Stub{
				stub("a", "2-s"),
				stub("b", "1-s"),
				tomb("c", "4-s"),
			},
			client: []models.Stub{
				stub("b", "3-c"),
				stub("d", "1-c"),
				stub("a", "1-c"),
			},
			wantToServer: []models.Stub{stub("b", "3-c"), stub("d", "1-c")},
			wantToClient: []models.Stub{stub("a", "2-s"), tomb("c", "4-s")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Reconcile(tt.server, tt.client)
			require.NoError(t, err)
			assert.Equal(t, tt.wantToServer, plan.ToServer)
			assert.Equal(t, tt.wantToClient, plan.ToClient)
			assert.Empty(t, plan.Conflicts)
		})
	}
}

func TestReconcile_ConflictDetectedNotResolved(t *testing.T) {
	plan, err := Reconcile(
		[]models.Stub{stub("a", "2-aaa")},
		[]models.Stub{stub("a", "2-bbb")},
	)
	require.NoError(t, err)

	assert.Empty(t, plan.ToServer)
	assert.Empty(t, plan.ToClient)
	require.Len(t, plan.Conflicts, 1)
	assert.Equal(t, Conflict{ID: "a", Server: "2-aaa", Client: "2-bbb"}, plan.Conflicts[0])
}

func TestReconcile_InvalidInput(t *testing.T) {
	_, err := Reconcile([]models.Stub{stub("a", "1-x"), stub("a", "2-x")}, nil)
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = Reconcile(nil, []models.Stub{stub("a", "1-x"), stub("a", "1-x")})
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = Reconcile(nil, []models.Stub{stub("a", "garbage")})
	require.ErrorIs(t, err, ErrMalformedRevision)
}

// apply переносит план на обе стороны так, как это делает синхронизация
func apply(server, client []models.Stub, plan Plan) ([]models.Stub, []models.Stub) {
	upsert := func(inv []models.Stub, s models.Stub) []models.Stub {
		for i := range inv {
			if inv[i].ID == s.ID {
				inv[i] = s
				return inv
			}
		}
		return append(inv, s)
	}
	for _, s := range plan.ToServer {
		server = upsert(server, s)
	}
	for _, s := range plan.ToClient {
		client = upsert(client, s)
	}
	return server, client
}

func randomInventories(r *rand.Rand) ([]models.Stub, []models.Stub) {
	var server, client []models.Stub
	for i := range 40 {
		id := fmt.Sprintf("note:item:%d", i)
		mk := func() models.Stub {
			s := models.Stub{ID: id, Rev: fmt.Sprintf("%d-h%d", r.IntN(5)+1, r.IntN(2)), Deleted: r.IntN(4) == 0}
			return s
		}
		switch r.IntN(4) {
		case 0:
			server = append(server, mk())
		case 1:
			client = append(client, mk())
		case 2:
			server = append(server, mk())
			client = append(client, mk())
		}
	}
	return server, client
}

func TestReconcile_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for iter := range 200 {
		server, client := randomInventories(r)

		plan, err := Reconcile(server, client)
		require.NoError(t, err, "iteration %d", iter)

		serverIdx := map[string]models.Stub{}
		for _, s := range server {
			serverIdx[s.ID] = s
		}
		clientIdx := map[string]models.Stub{}
		for _, c := range client {
			clientIdx[c.ID] = c
		}

		// id никогда не попадает в оба списка
		seen := map[string]string{}
		for _, s := range plan.ToServer {
			seen[s.ID] = "server"
			assert.Equal(t, clientIdx[s.ID], s, "higher-counter client stub is transmitted")
		}
		for _, s := range plan.ToClient {
			_, dup := seen[s.ID]
			assert.False(t, dup, "id %s in both lists", s.ID)
			assert.Equal(t, serverIdx[s.ID], s, "higher-counter server stub is transmitted")
		}

		for id, s := range serverIdx {
			c, ok := clientIdx[id]
			if !ok {
				assert.Contains(t, plan.ToClient, s)
				continue
			}
			sc, _ := Counter(s.Rev)
			cc, _ := Counter(c.Rev)
			switch {
			case sc == cc:
				assert.NotContains(t, plan.ToClient, s)
				assert.NotContains(t, plan.ToServer, c)
			case sc > cc:
				assert.Contains(t, plan.ToClient, s)
			default:
				assert.Contains(t, plan.ToServer, c)
			}
		}
		for id, c := range clientIdx {
			if _, ok := serverIdx[id]; !ok {
				assert.Contains(t, plan.ToServer, c)
			}
		}

		// идемпотентность: после применения план пуст
		server, client = apply(server, client, plan)
		second, err := Reconcile(server, client)
		require.NoError(t, err)
		assert.True(t, second.Empty(), "iteration %d: second pass must be empty", iter)
	}
}
