package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Document единица синхронизации.
// Rev имеет вид "<counter>-<hash>", counter растет при каждой записи.
// Удаленный документ (tombstone) хранится с ревизией и без тела.
type Document struct {
	UpdatedAt time.Time       `json:"updated_at"`
	ID        string          `json:"_id"`
	Rev       string          `json:"_rev"`
	Body      json.RawMessage `json:"body,omitempty"`
	Deleted   bool            `json:"_deleted,omitempty"`
}

// Stub возвращает инвентарную запись документа
func (d *Document) Stub() Stub {
	return Stub{ID: d.ID, Rev: d.Rev, Deleted: d.Deleted}
}

// Stub минимальная тройка {id, rev, deleted} для сравнения инвентарей
type Stub struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev"`
	Deleted bool   `json:"_deleted,omitempty"`
}

// Tombstone строит удаленный документ из stub без обращения за телом
func (s Stub) Tombstone() *Document {
	return &Document{ID: s.ID, Rev: s.Rev, Deleted: true}
}

// DocumentKind возвращает тип документа из id вида kind:subkind:uuid
func DocumentKind(id string) (kind, subkind string) {
	parts := strings.SplitN(id, ":", 3)
	switch len(parts) {
	case 3:
		return parts[0], parts[1]
	case 2:
		return parts[0], ""
	default:
		return "", ""
	}
}
