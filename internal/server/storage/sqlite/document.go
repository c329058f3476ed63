package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/reconcile"
)

// AllStubs returns the user's full inventory, tombstones included
func (s *Storage) AllStubs(ctx context.Context, userID string) ([]models.Stub, error) {
	query := `
		SELECT id, rev, deleted
		FROM documents
		WHERE user_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stubs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	stubs := make([]models.Stub, 0)
	for rows.Next() {
		var st models.Stub
		if err := rows.Scan(&st.ID, &st.Rev, &st.Deleted); err != nil {
			return nil, fmt.Errorf("failed to scan stub: %w", err)
		}
		stubs = append(stubs, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return stubs, nil
}

// GetDocuments returns documents for the given ids, unknown ids are skipped
func (s *Storage) GetDocuments(ctx context.Context, userID string, ids []string) ([]*models.Document, error) {
	if len(ids) == 0 {
		return []*models.Document{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `
		SELECT id, rev, deleted, body, updated_at
		FROM documents
		WHERE user_id = ? AND id IN (` + placeholders + `)
	`

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	found := make(map[string]*models.Document, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		found[doc.ID] = doc
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	docs := make([]*models.Document, 0, len(found))
	for _, id := range ids {
		if doc, ok := found[id]; ok {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// GetDocument returns a single document
// Returns storage.ErrDocumentNotFound if it doesn't exist
func (s *Storage) GetDocument(ctx context.Context, userID, id string) (*models.Document, error) {
	docs, err := s.GetDocuments(ctx, userID, []string{id})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errDocumentNotFound(id)
	}
	return docs[0], nil
}

// ApplyDocuments persists documents newer than the stored revision.
// Первая запись id идет через INSERT; если параллельный запрос успел вставить
// тот же id, вставка повторяется как условный UPDATE.
func (s *Storage) ApplyDocuments(ctx context.Context, userID string, docs []*models.Document) ([]*models.Document, error) {
	accepted := make([]*models.Document, 0, len(docs))
	if len(docs) == 0 {
		return accepted, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, doc := range docs {
		counter, err := reconcile.Counter(doc.Rev)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}

		var body []byte
		if !doc.Deleted {
			body = doc.Body
		}

		ok, err := s.applyOne(ctx, tx, userID, doc, counter, body, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.DebugContext(ctx, "skipping stale document",
				slog.String("user_id", userID),
				slog.String("id", doc.ID),
				slog.String("rev", doc.Rev))
			continue
		}

		accepted = append(accepted, &models.Document{
			ID:        doc.ID,
			Rev:       doc.Rev,
			Body:      body,
			Deleted:   doc.Deleted,
			UpdatedAt: now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit documents: %w", err)
	}

	return accepted, nil
}

func (s *Storage) applyOne(ctx context.Context, tx *sql.Tx, userID string, doc *models.Document, counter int64, body []byte, now time.Time) (bool, error) {
	var stored int64
	err := tx.QueryRowContext(ctx,
		`SELECT rev_counter FROM documents WHERE user_id = ? AND id = ?`,
		userID, doc.ID,
	).Scan(&stored)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (user_id, id, rev, rev_counter, deleted, body, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, userID, doc.ID, doc.Rev, counter, doc.Deleted, body, now)
		if err == nil {
			return true, nil
		}
		if !isUniqueViolation(err) {
			return false, fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
		}
		// id успели создать параллельно
		s.logger.DebugContext(ctx, "insert raced, retrying as update", slog.String("id", doc.ID))
	case err != nil:
		return false, fmt.Errorf("failed to read document %s: %w", doc.ID, err)
	case counter <= stored:
		return false, nil
	}

	return s.updateIfNewer(ctx, tx, userID, doc, counter, body, now)
}

func (s *Storage) updateIfNewer(ctx context.Context, tx *sql.Tx, userID string, doc *models.Document, counter int64, body []byte, now time.Time) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE documents
		SET rev = ?, rev_counter = ?, deleted = ?, body = ?, updated_at = ?
		WHERE user_id = ? AND id = ? AND rev_counter < ?
	`, doc.Rev, counter, doc.Deleted, body, now, userID, doc.ID, counter)
	if err != nil {
		return false, fmt.Errorf("failed to update document %s: %w", doc.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	doc := &models.Document{}
	var body []byte
	if err := row.Scan(&doc.ID, &doc.Rev, &doc.Deleted, &body, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	if len(body) > 0 {
		doc.Body = body
	}
	return doc, nil
}
