package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const documentColumns = `id, path, content_hash, title, content_type, language, summary, tags, category, created_at, updated_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*Document, error) {
	d := &Document{}
	err := row.Scan(&d.ID, &d.Path, &d.ContentHash, &d.Title, &d.ContentType,
		&d.Language, &d.Summary, pq.Array(&d.Tags), &d.Category, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

// GetByPath returns (nil, nil) when no document exists at path.
func (r *PostgresRepo) GetByPath(ctx context.Context, path string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE path = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (r *PostgresRepo) ListChunks(ctx context.Context, docID int64) ([]Chunk, error) {
	query := `SELECT id, document_id, chunk_text, start_line, end_line, language, intent
		FROM chunks WHERE document_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkText, &c.StartLine, &c.EndLine, &c.Language, &c.Intent); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *PostgresRepo) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addCondition("content_type", filter.ContentType)
	addCondition("category", filter.Category)
	addCondition("language", filter.Language)

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := `SELECT ` + documentColumns + ` FROM documents` + where +
		fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.PageSize, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ListResult{
		Documents: docs,
		Total:     total,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}, nil
}

// CreateWithChunks replaces a document and its chunks in one transaction.
// beforeCommit runs after all rows are staged but before COMMIT, so external
// writes keyed by the new document id can veto the transaction. When
// replaceID is non-zero the previous document row (and its chunks, via
// cascade) is deleted inside the same transaction.
func (r *PostgresRepo) CreateWithChunks(ctx context.Context, doc *Document, chunks []Chunk, replaceID int64, beforeCommit func(docID int64, chunkIDs []int64) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if replaceID != 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, replaceID); err != nil {
			return err
		}
	}

	insertDoc := `INSERT INTO documents (path, content_hash, title, content_type, language, summary, tags, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insertDoc,
		doc.Path, doc.ContentHash, doc.Title, doc.ContentType,
		doc.Language, doc.Summary, pq.Array(doc.Tags), doc.Category,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return err
	}

	insertChunk := `INSERT INTO chunks (document_id, chunk_text, start_line, end_line, language, intent)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	chunkIDs := make([]int64, 0, len(chunks))
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		if err := tx.QueryRowContext(ctx, insertChunk,
			doc.ID, chunks[i].ChunkText, chunks[i].StartLine, chunks[i].EndLine,
			chunks[i].Language, chunks[i].Intent,
		).Scan(&chunks[i].ID); err != nil {
			return err
		}
		chunkIDs = append(chunkIDs, chunks[i].ID)
	}

	if beforeCommit != nil {
		if err := beforeCommit(doc.ID, chunkIDs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepo) UpdateMetadata(ctx context.Context, id int64, title, category *string, tags *[]string) (*Document, error) {
	var sets []string
	var args []interface{}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if title != nil {
		addSet("title", *title)
	}
	if category != nil {
		addSet("category", *category)
	}
	if tags != nil {
		addSet("tags", pq.Array(*tags))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE documents SET %s WHERE id = $%d RETURNING `+documentColumns,
		strings.Join(sets, ", "), len(args))

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) AllTags(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT unnest(tags) AS tag FROM documents ORDER BY tag`
	return r.stringList(ctx, query)
}

func (r *PostgresRepo) AllCategories(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT category FROM documents WHERE category <> '' ORDER BY category`
	return r.stringList(ctx, query)
}

func (r *PostgresRepo) stringList(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *PostgresRepo) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Categories: map[string]int{},
		Languages:  map[string]int{},
		Tags:       map[string]int{},
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&stats.TotalDocuments); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.TotalChunks); err != nil {
		return nil, err
	}

	countBy := func(column string, dest map[string]int) error {
		query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM documents WHERE %s <> '' GROUP BY %s`, column, column, column)
		rows, err := r.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				return err
			}
			dest[key] = count
		}
		return rows.Err()
	}
	if err := countBy("category", stats.Categories); err != nil {
		return nil, err
	}
	if err := countBy("language", stats.Languages); err != nil {
		return nil, err
	}

	tagRows, err := r.db.QueryContext(ctx, `SELECT tag, COUNT(*) FROM documents, unnest(tags) AS tag GROUP BY tag`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag string
		var count int
		if err := tagRows.Scan(&tag, &count); err != nil {
			return nil, err
		}
		stats.Tags[tag] = count
	}
	if err := tagRows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
