package boltdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/reconcile"
	"github.com/iudanet/notesync/internal/validation"
)

// changesBuffer размер буфера канала подписчика Changes
const changesBuffer = 64

// Get retrieves the current revision of a document
func (s *Storage) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc *models.Document
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		doc, err = readDoc(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetMany retrieves documents by ids, skipping unknown ones
func (s *Storage) GetMany(ctx context.Context, ids []string) ([]*models.Document, error) {
	docs := make([]*models.Document, 0, len(ids))
	err := s.view(func(tx *bbolt.Tx) error {
		for _, id := range ids {
			doc, err := readDoc(tx, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// Put writes a new revision of the document with optimistic revision check
func (s *Storage) Put(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}
	if err := validation.ValidateDocumentID(doc.ID); err != nil {
		return nil, err
	}

	var stored *models.Document
	err := s.update(func(tx *bbolt.Tx) error {
		var current string
		existing, err := readDoc(tx, doc.ID)
		switch {
		case err == nil:
			current = existing.Rev
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		if doc.Rev != current {
			return fmt.Errorf("%w: %s is at %q, got %q", storage.ErrConflict, doc.ID, current, doc.Rev)
		}

		body := doc.Body
		if doc.Deleted {
			body = nil
		}
		rev, err := reconcile.NextRevision(current, body, doc.Deleted)
		if err != nil {
			return fmt.Errorf("failed to compute revision: %w", err)
		}

		stored = &models.Document{
			ID:        doc.ID,
			Rev:       rev,
			Body:      body,
			Deleted:   doc.Deleted,
			UpdatedAt: time.Now().UTC(),
		}
		return writeDoc(tx, stored)
	})
	if err != nil {
		return nil, err
	}

	s.notify(storage.ChangeEvent{ID: stored.ID, Rev: stored.Rev, Deleted: stored.Deleted})
	return stored, nil
}

// BulkPutOverride stores remote documents verbatim: delete the local chain, then insert
func (s *Storage) BulkPutOverride(ctx context.Context, docs []*models.Document) error {
	_, err := s.override(docs, false)
	return err
}

// ApplyNewer stores remote documents like BulkPutOverride, but only those whose
// revision counter is greater than the local one. Сравнение и запись идут в одной
// транзакции, поэтому локальный Put не может оказаться между ними.
func (s *Storage) ApplyNewer(ctx context.Context, docs []*models.Document) ([]*models.Document, error) {
	return s.override(docs, true)
}

func (s *Storage) override(docs []*models.Document, onlyNewer bool) ([]*models.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var applied []*models.Document
	err := s.update(func(tx *bbolt.Tx) error {
		applied = applied[:0]
		docsBucket := tx.Bucket(bucketDocs)
		revsBucket := tx.Bucket(bucketRevs)

		for _, doc := range docs {
			if _, err := reconcile.ParseRevision(doc.Rev); err != nil {
				return fmt.Errorf("document %s: %w", doc.ID, err)
			}

			if onlyNewer {
				newer, err := isNewer(tx, doc)
				if err != nil {
					return err
				}
				if !newer {
					continue
				}
			}

			key := []byte(doc.ID)
			if revsBucket.Bucket(key) != nil {
				if err := revsBucket.DeleteBucket(key); err != nil {
					return fmt.Errorf("failed to drop revisions of %s: %w", doc.ID, err)
				}
			}
			if err := docsBucket.Delete(key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", doc.ID, err)
			}

			remote := &models.Document{
				ID:        doc.ID,
				Rev:       doc.Rev,
				Deleted:   doc.Deleted,
				UpdatedAt: doc.UpdatedAt,
			}
			if !doc.Deleted {
				remote.Body = doc.Body
			}
			if remote.UpdatedAt.IsZero() {
				remote.UpdatedAt = time.Now().UTC()
			}
			if err := writeDoc(tx, remote); err != nil {
				return err
			}
			applied = append(applied, remote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	events := make([]storage.ChangeEvent, 0, len(applied))
	for _, d := range applied {
		events = append(events, storage.ChangeEvent{ID: d.ID, Rev: d.Rev, Deleted: d.Deleted, Remote: true})
	}
	s.notify(events...)
	return applied, nil
}

// isNewer сравнивает counter удаленного документа с текущей локальной ревизией
func isNewer(tx *bbolt.Tx, doc *models.Document) (bool, error) {
	local, err := readDoc(tx, doc.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	cmp, err := reconcile.Compare(doc.Rev, local.Rev)
	if err != nil {
		return false, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	return cmp > 0, nil
}

// AllStubs returns the full local inventory including tombstones
func (s *Storage) AllStubs(ctx context.Context) ([]models.Stub, error) {
	var stubs []models.Stub
	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var stub models.Stub
			if err := json.Unmarshal(v, &stub); err != nil {
				return fmt.Errorf("failed to unmarshal document %s: %w", k, err)
			}
			stubs = append(stubs, stub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return stubs, nil
}

// List returns live documents whose id starts with prefix, ordered by id
func (s *Storage) List(ctx context.Context, prefix string) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.view(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketDocs).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			doc := &models.Document{}
			if err := json.Unmarshal(v, doc); err != nil {
				return fmt.Errorf("failed to unmarshal document %s: %w", k, err)
			}
			if doc.Deleted {
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// Revisions returns the locally known revision chain, newest first
func (s *Storage) Revisions(ctx context.Context, id string) ([]string, error) {
	var revs []string
	err := s.view(func(tx *bbolt.Tx) error {
		chain := tx.Bucket(bucketRevs).Bucket([]byte(id))
		if chain == nil {
			return storage.ErrNotFound
		}
		c := chain.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			revs = append(revs, string(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return revs, nil
}

type subscriber struct {
	ch   chan storage.ChangeEvent
	done chan struct{}
}

// Changes subscribes to local writes until ctx is canceled.
// Запись блокируется, пока подписчик не вычитает событие, поэтому канал нужно читать постоянно.
func (s *Storage) Changes(ctx context.Context) <-chan storage.ChangeEvent {
	sub := &subscriber{
		ch:   make(chan storage.ChangeEvent, changesBuffer),
		done: make(chan struct{}),
	}

	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		close(sub.done)

		s.subsMu.Lock()
		delete(s.subs, sub)
		s.subsMu.Unlock()

		close(sub.ch)
	}()

	return sub.ch
}

func (s *Storage) notify(events ...storage.ChangeEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	for sub := range s.subs {
		for _, ev := range events {
			select {
			case sub.ch <- ev:
			case <-sub.done:
			}
		}
	}
}

func readDoc(tx *bbolt.Tx, id string) (*models.Document, error) {
	data := tx.Bucket(bucketDocs).Get([]byte(id))
	if data == nil {
		return nil, storage.ErrNotFound
	}

	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}
	return doc, nil
}

func writeDoc(tx *bbolt.Tx, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}
	if err := tx.Bucket(bucketDocs).Put([]byte(doc.ID), data); err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}

	rev, err := reconcile.ParseRevision(doc.Rev)
	if err != nil {
		return err
	}
	chain, err := tx.Bucket(bucketRevs).CreateBucketIfNotExists([]byte(doc.ID))
	if err != nil {
		return fmt.Errorf("failed to open revisions of %s: %w", doc.ID, err)
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(rev.Counter))
	if err := chain.Put(key, []byte(doc.Rev)); err != nil {
		return fmt.Errorf("failed to save revision of %s: %w", doc.ID, err)
	}
	return nil
}
