package live

import (
	"slices"
	"strings"
	"sync"

	"github.com/iudanet/notesync/internal/models"
)

// DisplaySet документы, которые сейчас показаны пользователю.
// Удаленные и локальные изменения сливаются в него без ручного обновления.
type DisplaySet struct {
	docs     map[string]*models.Document
	onChange func([]*models.Document)
	prefix   string
	mu       sync.Mutex
}

// NewDisplaySet создает набор для документов с id, начинающимся на prefix.
// onChange вызывается с измененными документами (tombstone означает удаление из набора).
func NewDisplaySet(prefix string, onChange func([]*models.Document)) *DisplaySet {
	return &DisplaySet{
		docs:     make(map[string]*models.Document),
		onChange: onChange,
		prefix:   prefix,
	}
}

// Show заменяет содержимое набора
func (d *DisplaySet) Show(docs []*models.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()

	clear(d.docs)
	for _, doc := range docs {
		if !doc.Deleted && strings.HasPrefix(doc.ID, d.prefix) {
			d.docs[doc.ID] = doc
		}
	}
}

// Merge применяет изменения: tombstone убирает документ, новая ревизия заменяет старую
func (d *DisplaySet) Merge(docs []*models.Document) {
	var changed []*models.Document

	d.mu.Lock()
	for _, doc := range docs {
		if !strings.HasPrefix(doc.ID, d.prefix) {
			continue
		}
		current, shown := d.docs[doc.ID]
		switch {
		case doc.Deleted && shown:
			delete(d.docs, doc.ID)
		case doc.Deleted:
			continue
		case shown && current.Rev == doc.Rev:
			continue
		default:
			d.docs[doc.ID] = doc
		}
		changed = append(changed, doc)
	}
	onChange := d.onChange
	d.mu.Unlock()

	if len(changed) > 0 && onChange != nil {
		onChange(changed)
	}
}

// Docs возвращает показанные документы, упорядоченные по id
func (d *DisplaySet) Docs() []*models.Document {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*models.Document, 0, len(d.docs))
	for _, doc := range d.docs {
		out = append(out, doc)
	}
	slices.SortFunc(out, func(a, b *models.Document) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
