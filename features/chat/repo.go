package chat

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, conv *Conversation) error {
	query := `INSERT INTO conversations (query, response) VALUES ($1, $2) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, conv.Query, conv.Response).Scan(&conv.ID, &conv.CreatedAt)
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

func (r *PostgresRepo) Recent(ctx context.Context, limit int) ([]Conversation, error) {
	query := `SELECT id, query, response, created_at FROM conversations ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Query, &c.Response, &c.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
