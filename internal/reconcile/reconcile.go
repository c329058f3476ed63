// Package reconcile вычисляет план синхронизации двух инвентарей документов.
//
// Сравнение идет только по counter ревизии: побеждает больший counter,
// tombstone сравнивается так же, как живой документ. Равные counter с разным
// hash фиксируются как конфликт, но не разрешаются.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/iudanet/notesync/internal/models"
)

// ErrDuplicateID в одном инвентаре встретился повторяющийся id
var ErrDuplicateID = errors.New("duplicate id in inventory")

// Conflict две независимые записи с одинаковым counter
type Conflict struct {
	ID     string
	Server string
	Client string
}

// Plan результат сверки.
// ToServer - stubs, которые клиент должен отправить; ToClient - которые должен забрать.
// Id никогда не попадает в оба списка.
type Plan struct {
	ToServer  []models.Stub
	ToClient  []models.Stub
	Conflicts []Conflict
}

// Empty true, если переносить нечего
func (p Plan) Empty() bool {
	return len(p.ToServer) == 0 && len(p.ToClient) == 0
}

// Total количество документов в плане
func (p Plan) Total() int {
	return len(p.ToServer) + len(p.ToClient)
}

// Reconcile сверяет инвентарь сервера с инвентарем клиента.
// Чистая функция: без I/O, результат детерминирован порядком входа
// (сначала id сервера в его порядке, затем id только клиента в порядке клиента).
// Ошибка возможна только на некорректном входе.
func Reconcile(server, client []models.Stub) (Plan, error) {
	serverIdx, err := index(server)
	if err != nil {
		return Plan{}, fmt.Errorf("server inventory: %w", err)
	}
	clientIdx, err := index(client)
	if err != nil {
		return Plan{}, fmt.Errorf("client inventory: %w", err)
	}

	plan := Plan{
		ToServer: []models.Stub{},
		ToClient: []models.Stub{},
	}

	for _, s := range server {
		c, ok := clientIdx[s.ID]
		if !ok {
			// клиент этот id еще не видел
			plan.ToClient = append(plan.ToClient, s)
			continue
		}

		sr := serverIdx[s.ID].rev
		cr := c.rev
		switch {
		case sr.Counter > cr.Counter:
			plan.ToClient = append(plan.ToClient, s)
		case cr.Counter > sr.Counter:
			plan.ToServer = append(plan.ToServer, c.stub)
		case sr.Hash != cr.Hash:
			plan.Conflicts = append(plan.Conflicts, Conflict{ID: s.ID, Server: s.Rev, Client: c.stub.Rev})
		}
	}

	for _, c := range client {
		if _, ok := serverIdx[c.ID]; !ok {
			plan.ToServer = append(plan.ToServer, c)
		}
	}

	return plan, nil
}

type indexed struct {
	stub models.Stub
	rev  Revision
}

func index(stubs []models.Stub) (map[string]indexed, error) {
	idx := make(map[string]indexed, len(stubs))
	for _, s := range stubs {
		if _, dup := idx[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
		}
		rev, err := ParseRevision(s.Rev)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", s.ID, err)
		}
		idx[s.ID] = indexed{stub: s, rev: rev}
	}
	return idx, nil
}
