package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "processed_messages", []string{"message_id", "processed_at"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"processed_messages"}, []string{"message_id", "processed_at"}).WillReturnResult(3)

	rows := [][]any{{"m1", "t"}, {"m2", "t"}, {"m3", "t"}}
	n, err := CopyFrom(context.Background(), mock, "processed_messages", []string{"message_id", "processed_at"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"processed_messages"}, []string{"message_id", "processed_at"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"m1", "t"}}
	_, err = CopyFrom(context.Background(), mock, "processed_messages", []string{"message_id", "processed_at"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO processed_messages")
	assert.NoError(t, mock.ExpectationsWereMet())
}
