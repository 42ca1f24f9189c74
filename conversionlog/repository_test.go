package conversionlog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svoer/FhirConverter/util"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *Repository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB, zerolog.Nop())
	return sqlxDB, mock, repo
}

func TestSave_AssignsGeneratedID(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	entry := &ConversionLog{
		OriginalFilename: "adt_a01.hl7",
		OutputFilename:   util.StringPtr("adt_a01_x.json"),
		Status:           StatusSuccess,
		SegmentCount:     util.IntPtr(2),
		Source:           SourceFileMonitor,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: util.Int64Ptr(3),
	}

	mock.ExpectQuery(`INSERT INTO conversion_logs`).
		WithArgs(entry.OriginalFilename, *entry.OutputFilename, string(entry.Status),
			nil, *entry.SegmentCount, string(entry.Source), sqlmock.AnyArg(), *entry.ProcessingTimeMs).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, repo.Save(context.Background(), entry))
	assert.Equal(t, int64(42), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_ErrorEntry(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	entry := &ConversionLog{
		OriginalFilename: "broken.hl7",
		Status:           StatusError,
		ErrorMessage:     util.StringPtr("empty HL7 message"),
		Source:           SourceAPI,
		Timestamp:        time.Now().UTC(),
	}

	mock.ExpectQuery(`INSERT INTO conversion_logs`).
		WithArgs(entry.OriginalFilename, nil, string(entry.Status),
			*entry.ErrorMessage, nil, string(entry.Source), sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	require.NoError(t, repo.Save(context.Background(), entry))
	assert.Equal(t, int64(7), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func logColumns() []string {
	return []string{"id", "original_filename", "output_filename", "status",
		"error_message", "segment_count", "source", "timestamp", "processing_time_ms"}
}

func TestList_ReturnsPageAndTotal(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM conversion_logs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(`SELECT id, original_filename`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(logColumns()).
			AddRow(int64(2), "b.hl7", nil, "ERROR", "parse failed", nil, "API", now, int64(1)).
			AddRow(int64(1), "a.hl7", "a_x.json", "SUCCESS", nil, 2, "FILE_MONITOR", now, int64(3)))

	logs, total, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, logs, 2)
	assert.Equal(t, "b.hl7", logs[0].OriginalFilename)
	assert.Equal(t, StatusError, logs[0].Status)
	assert.Nil(t, logs[0].OutputFilename)
	require.NotNil(t, logs[1].SegmentCount)
	assert.Equal(t, 2, *logs[1].SegmentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, original_filename`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	entry, err := repo.Get(context.Background(), 99)
	assert.Nil(t, entry)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats_ComputesSuccessRate(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "success", "error"}).
			AddRow(int64(8), int64(6), int64(2)))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.Total)
	assert.Equal(t, int64(6), stats.Success)
	assert.Equal(t, int64(2), stats.Error)
	assert.Equal(t, "75.00%", stats.SuccessRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats_EmptyHistory(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "success", "error"}).
			AddRow(int64(0), int64(0), int64(0)))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0%", stats.SuccessRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
