package sync

import (
	"slices"
	"strings"
	"sync"

	"github.com/iudanet/notesync/internal/models"
)

// StaleQueue локальные записи, еще не подтвержденные live-каналом.
// Хранит только последнюю версию каждого документа.
type StaleQueue struct {
	docs map[string]*models.Document
	mu   sync.Mutex
}

// NewStaleQueue создает пустую очередь
func NewStaleQueue() *StaleQueue {
	return &StaleQueue{docs: make(map[string]*models.Document)}
}

// Add кладет документ в очередь, заменяя предыдущую версию с тем же id
func (q *StaleQueue) Add(doc *models.Document) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.docs[doc.ID] = doc
}

// Pending возвращает содержимое очереди, упорядоченное по id, не очищая ее
func (q *StaleQueue) Pending() []*models.Document {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.Document, 0, len(q.docs))
	for _, d := range q.docs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *models.Document) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Ack удаляет подтвержденные документы. Запись с другой ревизией остается:
// ее поставили в очередь уже после отправки.
func (q *StaleQueue) Ack(stubs []models.Stub) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var removed int
	for _, s := range stubs {
		if d, ok := q.docs[s.ID]; ok && d.Rev == s.Rev {
			delete(q.docs, s.ID)
			removed++
		}
	}
	return removed
}

// Clear сбрасывает очередь целиком: полная синхронизация ее перекрывает
func (q *StaleQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.docs)
}

// Len количество документов в очереди
func (q *StaleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.docs)
}
