package savequoteversion

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/models"
	"cpq-workers/internal/pricing/provider"
)

func validInput() *Input {
	return &Input{
		LeadID:      "lead-7",
		QuoteNumber: "Q-2026-0042",
		Snapshot: &provider.Snapshot{
			TotalPrice: 18450.50,
			PricingBreakdown: map[string]interface{}{
				"items": []interface{}{},
			},
			InternalCosts: &models.InternalCostBreakdown{
				ModelingCost: 9000,
				TravelCost:   1200,
				TotalCost:    10200,
			},
			IntegrityStatus: models.IntegrityPass,
			EngineVersion:   "1.4.0",
		},
		Areas: []models.AreaSnapshot{{Name: "HQ", SquareFeet: 10000}},
		Risks: []string{"occupied"},
	}
}

func TestExecuteIncrementsVersionAndFlipsLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Lead currently at version 3: the save must mint version 4 and flip
	// version 3's is_latest inside the same transaction.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version_number`).
		WithArgs("lead-7").
		WillReturnRows(sqlmock.NewRows([]string{"version_number"}).AddRow(3))
	mock.ExpectExec(`UPDATE quote_versions`).
		WithArgs("lead-7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO quote_versions`).
		WithArgs(
			sqlmock.AnyArg(), "lead-7", 4, "Q-2026-0042", 18450.50,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			nil, "1.4.0", models.IntegrityPass, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := NewHandler(LoadConfig(), db, nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, 4, output.VersionNumber)
	assert.True(t, output.IsLatest)
	assert.Equal(t, "Q-2026-0042", output.QuoteNumber)
	assert.Equal(t, 18450.50, output.TotalPrice)
	assert.NotEmpty(t, output.VersionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteFirstVersionSkipsFlip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version_number`).
		WithArgs("lead-7").
		WillReturnRows(sqlmock.NewRows([]string{"version_number"}))
	mock.ExpectExec(`INSERT INTO quote_versions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := NewHandler(LoadConfig(), db, nil, logger.NewNoOpLogger())

	input := validInput()
	input.QuoteNumber = ""

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 1, output.VersionNumber)
	assert.Equal(t, "Q-lead-7-1", output.QuoteNumber, "quote number is generated when absent")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteCachesLatestVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version_number`).
		WillReturnRows(sqlmock.NewRows([]string{"version_number"}).AddRow(1))
	mock.ExpectExec(`UPDATE quote_versions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO quote_versions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := NewHandler(LoadConfig(), db, rdb, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), validInput())
	require.NoError(t, err)

	cached, err := rdb.Get(context.Background(), latestCacheKeyPrefix+"lead-7").Result()
	require.NoError(t, err)

	var entry models.QuoteVersion
	require.NoError(t, json.Unmarshal([]byte(cached), &entry))
	assert.Equal(t, output.VersionNumber, entry.VersionNumber)
	assert.True(t, entry.IsLatest)
	assert.Equal(t, models.IntegrityPass, entry.IntegrityStatus)
}

func TestExecuteRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version_number`).
		WillReturnRows(sqlmock.NewRows([]string{"version_number"}).AddRow(2))
	mock.ExpectExec(`UPDATE quote_versions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO quote_versions`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	h := NewHandler(LoadConfig(), db, nil, logger.NewNoOpLogger())

	_, err = h.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteValidatesInput(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, nil, logger.NewNoOpLogger())

	t.Run("missing lead id", func(t *testing.T) {
		input := validInput()
		input.LeadID = ""
		_, err := h.Execute(context.Background(), input)
		assert.ErrorIs(t, err, ErrMissingLeadID)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		input := validInput()
		input.Snapshot = nil
		_, err := h.Execute(context.Background(), input)
		assert.ErrorIs(t, err, ErrMissingSnapshot)
	})
}
