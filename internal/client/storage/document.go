package storage

import (
	"context"

	"github.com/iudanet/notesync/internal/models"
)

//go:generate moq -out document_mock.go . DocumentStore

// ChangeEvent уведомление об одной записи в локальное хранилище.
// Remote выставлен для записей, пришедших с сервера (BulkPutOverride),
// чтобы live-канал не отправлял их обратно.
type ChangeEvent struct {
	ID      string
	Rev     string
	Deleted bool
	Remote  bool
}

// DocumentStore локальное ревизионное хранилище документов
type DocumentStore interface {
	// Get возвращает текущую версию документа (включая tombstone).
	// Returns ErrNotFound if the id was never written.
	Get(ctx context.Context, id string) (*models.Document, error)

	// GetMany возвращает документы по списку id в том же порядке, пропуская отсутствующие
	GetMany(ctx context.Context, ids []string) ([]*models.Document, error)

	// Put записывает новую ревизию документа.
	// doc.Rev должен совпадать с текущей ревизией (пустой для нового документа),
	// иначе ErrConflict. Ревизию назначает хранилище.
	Put(ctx context.Context, doc *models.Document) (*models.Document, error)

	// BulkPutOverride записывает документы с ревизией, заданной удаленной стороной:
	// цепочка ревизий удаляется и документ вставляется как есть, все в одной транзакции.
	BulkPutOverride(ctx context.Context, docs []*models.Document) error

	// ApplyNewer как BulkPutOverride, но записывает только документы с counter больше
	// локального; проверка и запись атомарны. Возвращает записанные документы.
	ApplyNewer(ctx context.Context, docs []*models.Document) ([]*models.Document, error)

	// AllStubs возвращает полный инвентарь, включая tombstone
	AllStubs(ctx context.Context) ([]models.Stub, error)

	// List возвращает не удаленные документы, id которых начинается с prefix
	List(ctx context.Context, prefix string) ([]*models.Document, error)

	// Revisions возвращает известную локально цепочку ревизий документа, от новой к старой
	Revisions(ctx context.Context, id string) ([]string, error)

	// Changes подписывает на поток изменений до отмены ctx
	Changes(ctx context.Context) <-chan ChangeEvent
}
