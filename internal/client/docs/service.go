package docs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/validation"
)

//go:generate moq -out service_mock.go . Service

var (
	// ErrDeleted документ существует только как tombstone
	ErrDeleted     = errors.New("document is deleted")
	ErrInvalidBody = validation.ErrInvalidBody
	ErrInvalidKind = validation.ErrInvalidKind
)

// Service определяет интерфейс для работы с локальными документами.
// Все записи идут в локальное хранилище, синхронизация отдельно.
type Service interface {
	Create(ctx context.Context, kind, subkind string, body json.RawMessage) (*models.Document, error)
	// Update пишет новую ревизию. Пустой rev означает текущую ревизию.
	Update(ctx context.Context, id, rev string, body json.RawMessage) (*models.Document, error)
	Delete(ctx context.Context, id string) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, prefix string) ([]*models.Document, error)
	History(ctx context.Context, id string) ([]string, error)
}

type service struct {
	store storage.DocumentStore
}

// NewService creates a new document service
func NewService(store storage.DocumentStore) Service {
	return &service{store: store}
}

// Create создает документ с id вида kind:subkind:uuid
func (s *service) Create(ctx context.Context, kind, subkind string, body json.RawMessage) (*models.Document, error) {
	if err := validation.ValidateKind(kind); err != nil {
		return nil, err
	}
	if err := validation.ValidateKind(subkind); err != nil {
		return nil, err
	}
	if err := validation.ValidateBody(body); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:   kind + ":" + subkind + ":" + uuid.New().String(),
		Body: body,
	}
	saved, err := s.store.Put(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return saved, nil
}

func (s *service) Update(ctx context.Context, id, rev string, body json.RawMessage) (*models.Document, error) {
	if err := validation.ValidateBody(body); err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Deleted {
		return nil, fmt.Errorf("%w: %s", ErrDeleted, id)
	}
	if rev == "" {
		rev = current.Rev
	}

	saved, err := s.store.Put(ctx, &models.Document{ID: id, Rev: rev, Body: body})
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return saved, nil
}

// Delete записывает tombstone поверх текущей ревизии.
// Повторное удаление возвращает ErrDeleted.
func (s *service) Delete(ctx context.Context, id string) (*models.Document, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Deleted {
		return nil, fmt.Errorf("%w: %s", ErrDeleted, id)
	}

	saved, err := s.store.Put(ctx, &models.Document{ID: id, Rev: current.Rev, Deleted: true})
	if err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	return saved, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Deleted {
		return nil, fmt.Errorf("%w: %s", ErrDeleted, id)
	}
	return doc, nil
}

func (s *service) List(ctx context.Context, prefix string) ([]*models.Document, error) {
	return s.store.List(ctx, prefix)
}

func (s *service) History(ctx context.Context, id string) ([]string, error) {
	return s.store.Revisions(ctx, id)
}
