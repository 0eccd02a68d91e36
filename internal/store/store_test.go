package store

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTable(t *testing.T) {
	for _, stage := range []string{StageQueue, StageProcessing, StageProcessed, StageFailed} {
		table, err := stageTable(stage)
		require.NoError(t, err)
		assert.Equal(t, stage, table)
	}

	_, err := stageTable("archived")
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: uniqueViolation}
	assert.True(t, isUniqueViolation(pgErr))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert failed: %w", pgErr)))

	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestUnmarshalJobData(t *testing.T) {
	t.Run("empty payload leaves record untouched", func(t *testing.T) {
		var rec JobRecord
		require.NoError(t, unmarshalJobData(nil, &rec))
		assert.Nil(t, rec.JobData)
	})

	t.Run("valid payload", func(t *testing.T) {
		var rec JobRecord
		payload := []byte(`{"title":"Data Engineer","description":"Build pipelines"}`)
		require.NoError(t, unmarshalJobData(payload, &rec))
		require.NotNil(t, rec.JobData)
		assert.Equal(t, "Data Engineer", rec.JobData.Title)
	})

	t.Run("malformed payload", func(t *testing.T) {
		rec := JobRecord{ID: 7}
		err := unmarshalJobData([]byte(`{not json`), &rec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "record 7")
	})
}
