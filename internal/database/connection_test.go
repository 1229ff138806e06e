package database

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/history"
	"github.com/hf-risk-server/internal/scoring"
)

func TestMigrationsAndPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("PostgreSQL container unavailable: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	databaseURL, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	runner, err := NewMigrationRunner(databaseURL, logger)
	require.NoError(t, err)
	defer runner.Close()

	require.NoError(t, runner.Up(ctx))
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// a second run is a no-op
	require.NoError(t, runner.Up(ctx))

	db, err := NewConnection(ctx, domain.HistoryConfig{
		DatabaseURL:     databaseURL,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Health(ctx))

	store, err := history.NewPostgresStore(db.DB)
	require.NoError(t, err)

	profile := domain.PatientProfile{
		Age: 64, Sex: domain.FEMALE, BMI: 29, SystolicBP: 142, DiastolicBP: 88,
		HeartRate: 84, EjectionFraction: 38, BNP: domain.Float(420),
	}
	result, err := scoring.Compute(profile, nil)
	require.NoError(t, err)

	rec := &history.Record{PatientRef: "container", Profile: profile, Result: *result}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Result, got.Result)
	assert.Equal(t, rec.Profile, got.Profile)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, history.ErrNotFound)

	require.NoError(t, runner.Down(ctx))
	version, _, err = runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
