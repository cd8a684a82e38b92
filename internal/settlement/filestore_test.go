package settlement

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleDetail(title string) *models.SettlementDetail {
	createdAt := "2025-06-01T10:00:00.000Z"
	return &models.SettlementDetail{
		Title:        title,
		CreatedAt:    &createdAt,
		Participants: []string{"민수", "영희", "철수"},
		Payments: []models.Payment{
			{ID: 1, Item: "저녁", Amount: 5000, Payer: "민수", Target: []string{"민수", "영희"}, Ratio: []float64{0.5, 0.5}},
			{ID: 2, Item: "카페", Amount: 3000, Payer: "영희", Target: []string{"영희", "철수"}, Ratio: []float64{0.5, 0.5}},
		},
		IsCompleted: false,
	}
}

func TestUpdate_DerivesSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stored, err := store.Update(ctx, "trip-1", sampleDetail("제주 여행"))
	require.NoError(t, err)
	assert.Equal(t, "trip-1", stored.ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	entry := list[0]
	assert.Equal(t, "trip-1", entry.ID)
	assert.Equal(t, "제주 여행", entry.Title)
	assert.Equal(t, 3, entry.ParticipantCount)
	assert.Equal(t, int64(8000), entry.TotalAmount)
	require.NotNil(t, entry.CreatedAt)
	assert.Equal(t, "2025-06-01T10:00:00.000Z", *entry.CreatedAt)
}

func TestUpdate_ReplacesEntryInPlace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "trip-1", sampleDetail("제주 여행"))
	require.NoError(t, err)
	_, err = store.Update(ctx, "trip-2", sampleDetail("부산 여행"))
	require.NoError(t, err)

	updated := sampleDetail("제주 여행 수정")
	updated.IsCompleted = true
	_, err = store.Update(ctx, "trip-1", updated)
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// The entry keeps its position; no duplicate appears.
	assert.Equal(t, "trip-1", list[0].ID)
	assert.Equal(t, "제주 여행 수정", list[0].Title)
	assert.True(t, list[0].IsCompleted)
	assert.Equal(t, "trip-2", list[1].ID)
}

func TestUpdate_RepairsMissingSummaryEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "trip-1", sampleDetail("제주 여행"))
	require.NoError(t, err)

	// Simulate a lost summary write.
	require.NoError(t, os.WriteFile(store.summaryPath(), []byte("[]"), 0o644))

	_, err = store.Update(ctx, "trip-1", sampleDetail("제주 여행"))
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "trip-1", list[0].ID)
}

func TestUpdate_RejectsInvalidRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*models.SettlementDetail)
	}{
		{"empty title", func(d *models.SettlementDetail) { d.Title = "" }},
		{"no participants", func(d *models.SettlementDetail) { d.Participants = nil }},
		{"no payments", func(d *models.SettlementDetail) { d.Payments = nil }},
		{"empty item", func(d *models.SettlementDetail) { d.Payments[0].Item = "" }},
		{"zero amount", func(d *models.SettlementDetail) { d.Payments[0].Amount = 0 }},
		{"negative amount", func(d *models.SettlementDetail) { d.Payments[0].Amount = -100 }},
		{"no targets", func(d *models.SettlementDetail) {
			d.Payments[0].Target = nil
			d.Payments[0].Ratio = nil
		}},
		{"ratio shorter than targets", func(d *models.SettlementDetail) { d.Payments[0].Ratio = []float64{1} }},
		{"ratio does not sum to 1", func(d *models.SettlementDetail) { d.Payments[0].Ratio = []float64{0.5, 0.3} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := sampleDetail("잘못된 정산")
			tc.mutate(record)

			_, err := store.Update(ctx, "bad-1", record)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)

			// Neither tier changed.
			_, err = store.Read(ctx, "bad-1")
			assert.ErrorIs(t, err, ErrNotFound)
			list, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestUpdate_RejectsUnsafeID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Update(context.Background(), "../escape", sampleDetail("탈출"))

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRead_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRead_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "trip-1", sampleDetail("제주 여행"))
	require.NoError(t, err)

	record, err := store.Read(ctx, "trip-1")
	require.NoError(t, err)

	assert.Equal(t, "trip-1", record.ID)
	assert.Equal(t, "제주 여행", record.Title)
	require.Len(t, record.Payments, 2)
	assert.Equal(t, []string{"민수", "영희"}, record.Payments[0].Target)
	assert.Equal(t, []float64{0.5, 0.5}, record.Payments[0].Ratio)
}

func TestUpdate_NullCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := sampleDetail("날짜 없음")
	record.CreatedAt = nil
	_, err := store.Update(ctx, "trip-1", record)
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].CreatedAt)
}

func TestRebuildSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "trip-1", sampleDetail("제주 여행"))
	require.NoError(t, err)
	_, err = store.Update(ctx, "trip-2", sampleDetail("부산 여행"))
	require.NoError(t, err)

	// Wipe the projection entirely.
	require.NoError(t, os.Remove(store.summaryPath()))

	require.NoError(t, store.RebuildSummary(ctx))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "trip-1", list[0].ID)
	assert.Equal(t, int64(8000), list[0].TotalAmount)
	assert.Equal(t, "trip-2", list[1].ID)
}

func TestDeriveSummary_EmptyPayments(t *testing.T) {
	record := &models.SettlementDetail{
		ID:           "empty-1",
		Title:        "빈 정산",
		Participants: []string{"민수"},
	}

	summary := DeriveSummary(record)

	assert.Equal(t, int64(0), summary.TotalAmount)
	assert.Equal(t, 1, summary.ParticipantCount)
}
