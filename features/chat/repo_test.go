package chat_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devkb/features/chat"
)

func TestPostgresRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := chat.NewPostgresRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO conversations (query, response) VALUES ($1, $2) RETURNING id, created_at`)).
		WithArgs("how does auth work", "it uses jwt").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), now))

	conv := &chat.Conversation{Query: "how does auth work", Response: "it uses jwt"}
	require.NoError(t, repo.Save(context.Background(), conv))

	assert.Equal(t, int64(5), conv.ID)
	assert.Equal(t, now, conv.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Recent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := chat.NewPostgresRepo(db)

	rows := sqlmock.NewRows([]string{"id", "query", "response", "created_at"}).
		AddRow(int64(2), "q2", "r2", time.Now()).
		AddRow(int64(1), "q1", "r1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, query, response, created_at FROM conversations ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(10).
		WillReturnRows(rows)

	convs, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "q2", convs[0].Query)
	assert.NoError(t, mock.ExpectationsWereMet())
}
