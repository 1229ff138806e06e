package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/scoring"
)

func sampleProfile() domain.PatientProfile {
	return domain.PatientProfile{
		Age:              70,
		Sex:              domain.MALE,
		BMI:              32,
		SystolicBP:       150,
		DiastolicBP:      95,
		HeartRate:        100,
		EjectionFraction: 25,
		BNP:              domain.Float(900),
		Smoking:          domain.SMOKING_FORMER,
		Labs:             map[string]float64{domain.LabSodium: 131},
	}
}

func sampleRecord(t *testing.T, patientRef string) *Record {
	t.Helper()
	profile := sampleProfile()
	result, err := scoring.Compute(profile, nil)
	require.NoError(t, err)
	return &Record{PatientRef: patientRef, Profile: profile, Result: *result}
}

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "assessments.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	rec := sampleRecord(t, "patient-1")
	require.NoError(t, store.Save(ctx, rec))
	assert.NotEqual(t, uuid.Nil, rec.ID, "ID should be assigned")
	assert.False(t, rec.CreatedAt.IsZero(), "CreatedAt should be set")

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "patient-1", got.PatientRef)
	assert.Equal(t, rec.Profile, got.Profile)
	assert.Equal(t, rec.Result, got.Result)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestSQLiteStore_SaveKeepsProvidedIdentity(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	id := uuid.New()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord(t, "")
	rec.ID = id
	rec.CreatedAt = created

	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, id, rec.ID)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt), "got %v", got.CreatedAt)

	// duplicate ids are rejected
	assert.Error(t, store.Save(ctx, rec))
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListAndCount(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, ref := range []string{"first", "second", "third"} {
		rec := sampleRecord(t, ref)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Save(ctx, rec))
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	all, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].PatientRef)
	assert.Equal(t, "first", all[2].PatientRef)

	page, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].PatientRef)

	empty, err := store.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	rec := sampleRecord(t, "to-delete")
	require.NoError(t, store.Save(ctx, rec))

	require.NoError(t, store.Delete(ctx, rec.ID))

	_, err := store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, rec.ID), ErrNotFound)
}

func TestSQLiteStore_ExportImport(t *testing.T) {
	source := createTestStore(t)
	defer source.Close()
	ctx := context.Background()

	for _, ref := range []string{"a", "b", "c"} {
		require.NoError(t, source.Save(ctx, sampleRecord(t, ref)))
	}

	var buf bytes.Buffer
	require.NoError(t, source.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, ExportVersion, export.Version)
	assert.Equal(t, 3, export.Count)
	assert.Len(t, export.Assessments, 3)

	target := createTestStore(t)
	defer target.Close()

	imported, skipped, err := target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, imported)
	assert.Equal(t, 0, skipped)

	imported, skipped, err = target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 3, skipped)

	for _, rec := range export.Assessments {
		got, err := target.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.Result, got.Result)
	}
}

func TestSQLiteStore_ExportEmpty(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(context.Background(), &buf))
	assert.Contains(t, buf.String(), `"assessments": []`)
}

func TestSQLiteStore_ImportInvalid(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	_, _, err := store.ImportJSON(ctx, strings.NewReader("{not json"))
	assert.ErrorIs(t, err, ErrInvalidExport)

	_, _, err = store.ImportJSON(ctx, strings.NewReader(`{"version":"9.9","assessments":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidExport)
	assert.Contains(t, err.Error(), "unsupported export version")
}
