package models

import "github.com/iudanet/notesync/pkg/api"

// StubsFromAPI конвертирует stubs из wire-формата
func StubsFromAPI(in []api.Stub) []Stub {
	out := make([]Stub, 0, len(in))
	for _, s := range in {
		out = append(out, Stub{ID: s.ID, Rev: s.Rev, Deleted: s.Deleted})
	}
	return out
}

// StubsToAPI конвертирует stubs в wire-формат
func StubsToAPI(in []Stub) []api.Stub {
	out := make([]api.Stub, 0, len(in))
	for _, s := range in {
		out = append(out, api.Stub{ID: s.ID, Rev: s.Rev, Deleted: s.Deleted})
	}
	return out
}

// DocumentsFromAPI конвертирует документы из wire-формата
func DocumentsFromAPI(in []api.Document) []*Document {
	out := make([]*Document, 0, len(in))
	for _, d := range in {
		doc := &Document{ID: d.ID, Rev: d.Rev, Deleted: d.Deleted}
		// у tombstone тело не передается
		if !d.Deleted {
			doc.Body = d.Body
		}
		out = append(out, doc)
	}
	return out
}

// DocumentsToAPI конвертирует документы в wire-формат.
// Tombstone уходит минимальным {id, rev, deleted}.
func DocumentsToAPI(in []*Document) []api.Document {
	out := make([]api.Document, 0, len(in))
	for _, d := range in {
		if d.Deleted {
			out = append(out, api.Document{ID: d.ID, Rev: d.Rev, Deleted: true})
			continue
		}
		out = append(out, api.Document{ID: d.ID, Rev: d.Rev, Body: d.Body})
	}
	return out
}
