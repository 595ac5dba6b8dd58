package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	return store
}

func sampleFeedback(fingerprint string) *Feedback {
	return &Feedback{
		Fingerprint:      fingerprint,
		NarrativeExcerpt: "Administered Lisinopril 10mg PO at 0900.",
		UnitType:         domain.UnitMedSurg,
		DetectedFormat:   domain.FormatMedicationAdministration,
		CorrectedFormat:  domain.FormatMedicationAdministration,
		Confidence:       0.88,
		Notes:            "Correct format",
	}
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

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

	fb := sampleFeedback("abc")
	require.NoError(t, store.Save(ctx, fb))
	assert.NotZero(t, fb.ID)
	assert.True(t, fb.Agreed)
	assert.False(t, fb.CreatedAt.IsZero())

	got, err := store.Get(ctx, "abc", domain.UnitMedSurg)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fb.ID, got.ID)
	assert.Equal(t, domain.FormatMedicationAdministration, got.CorrectedFormat)
	assert.Equal(t, domain.UnitMedSurg, got.UnitType)
	assert.InDelta(t, 0.88, got.Confidence, 1e-9)

	missing, err := store.Get(ctx, "abc", domain.UnitICU)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_SaveUpdates(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	fb := sampleFeedback("abc")
	require.NoError(t, store.Save(ctx, fb))
	originalID := fb.ID

	correction := sampleFeedback("abc")
	correction.CorrectedFormat = domain.FormatSOAP
	correction.Notes = "Should be SOAP"
	require.NoError(t, store.Save(ctx, correction))
	assert.Equal(t, originalID, correction.ID)
	assert.False(t, correction.Agreed)

	got, err := store.Get(ctx, "abc", domain.UnitMedSurg)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatSOAP, got.CorrectedFormat)
	assert.False(t, got.Agreed)
	assert.Equal(t, "Should be SOAP", got.Notes)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteStore_SaveRejectsInvalid(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	fb := sampleFeedback("abc")
	fb.CorrectedFormat = "limerick"

	err := store.Save(context.Background(), fb)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "corrected_format", vErr.Field)
}

func TestSQLiteStore_ListCountDelete(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	for _, fp := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, sampleFeedback(fp)))
	}

	all, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Fingerprint, "newest first")

	page, err := store.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	require.NoError(t, store.Delete(ctx, all[0].ID))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_Agreement(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleFeedback("a")))
	require.NoError(t, store.Save(ctx, sampleFeedback("b")))
	wrong := sampleFeedback("c")
	wrong.CorrectedFormat = domain.FormatNarrative
	require.NoError(t, store.Save(ctx, wrong))
	soap := sampleFeedback("d")
	soap.DetectedFormat = domain.FormatSOAP
	soap.CorrectedFormat = domain.FormatSOAP
	require.NoError(t, store.Save(ctx, soap))

	agreement, err := store.Agreement(ctx)
	require.NoError(t, err)
	assert.Equal(t, []FormatAgreement{
		{Format: domain.FormatMedicationAdministration, Total: 3, Agreed: 2},
		{Format: domain.FormatSOAP, Total: 1, Agreed: 1},
	}, agreement)
	assert.InDelta(t, 2.0/3.0, agreement[0].Rate(), 1e-9)
}

func TestSQLiteStore_ExportImport(t *testing.T) {
	source := createTestStore(t)
	defer source.Close()
	ctx := context.Background()

	require.NoError(t, source.Save(ctx, sampleFeedback("a")))
	require.NoError(t, source.Save(ctx, sampleFeedback("b")))

	var buf bytes.Buffer
	require.NoError(t, source.ExportJSON(ctx, &buf))

	var export FeedbackExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 2, export.Count)

	target := createTestStore(t)
	defer target.Close()
	require.NoError(t, target.Save(ctx, sampleFeedback("a")))

	imported, skipped, err := target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)

	count, err := target.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_ImportSkipsInvalid(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	payload := `{"version":"1.0","count":2,"feedback":[
		{"fingerprint":"ok","detected_format":"soap","corrected_format":"dar"},
		{"fingerprint":"bad","detected_format":"soap","corrected_format":"sonnet"}
	]}`
	imported, skipped, err := store.ImportJSON(context.Background(), bytes.NewBufferString(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)

	_, _, err = store.ImportJSON(context.Background(), bytes.NewBufferString("not json"))
	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short"))
	long := Excerpt(string(bytes.Repeat([]byte("x"), 200)))
	assert.Len(t, []rune(long), MaxExcerptLength+3)
}
