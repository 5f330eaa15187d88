package syncer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thanhpv/boat-sync/internal/model"
	"gorm.io/datatypes"
)

var mergeNow = time.Date(2025, time.February, 1, 10, 30, 0, 0, time.UTC)

func testSnapshot() Snapshot {
	return Snapshot{Price: 1000, Discount: 0, CreatedAt: mergeNow}
}

func TestSnapshotKeyIsDayOfRun(t *testing.T) {
	require.Equal(t, "2025-02-01T00:00:00Z", SnapshotKey(mergeNow))

	// Hai lần chạy trong cùng ngày sinh cùng khóa
	later := mergeNow.Add(9 * time.Hour)
	require.Equal(t, SnapshotKey(mergeNow), SnapshotKey(later))
}

func TestDecideInsertsWhenRowAbsent(t *testing.T) {
	tsKey := SnapshotKey(mergeNow)

	d := Decide(nil, false, "bavaria-46", 2025, "week_5", tsKey, testSnapshot())

	require.Equal(t, InsertRow, d.Kind)
	require.NotNil(t, d.Row)
	require.Equal(t, "bavaria-46", d.Row.Slug)
	require.Equal(t, 2025, d.Row.Year)

	slot, ok := d.Row.Weeks["week_5"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, slot, tsKey)
}

func TestDecideWritesWhenSlotKeyMissing(t *testing.T) {
	tsKey := SnapshotKey(mergeNow)
	existing := &model.YearWeek{
		Slug: "bavaria-46",
		Year: 2025,
		Weeks: datatypes.JSONMap{
			"week_1": map[string]interface{}{"2025-01-04T00:00:00Z": map[string]interface{}{"price": 900.0}},
		},
	}

	d := Decide(existing, true, "bavaria-46", 2025, "week_5", tsKey, testSnapshot())

	require.Equal(t, WriteWeeks, d.Kind)
	require.Contains(t, d.Weeks, "week_1")
	require.Contains(t, d.Weeks, "week_5")
}

func TestDecideOverwritesNullSentinel(t *testing.T) {
	tsKey := SnapshotKey(mergeNow)
	existing := &model.YearWeek{
		Slug:  "bavaria-46",
		Year:  2025,
		Weeks: datatypes.JSONMap{"week_5": nil},
	}

	d := Decide(existing, true, "bavaria-46", 2025, "week_5", tsKey, testSnapshot())

	require.Equal(t, WriteWeeks, d.Kind)
	slot, ok := d.Weeks["week_5"].(map[string]interface{})
	require.True(t, ok)
	require.Len(t, slot, 1)
	require.Contains(t, slot, tsKey)
}

func TestDecideNoopOnDuplicateTimestamp(t *testing.T) {
	tsKey := SnapshotKey(mergeNow)
	existing := &model.YearWeek{
		Slug: "bavaria-46",
		Year: 2025,
		Weeks: datatypes.JSONMap{
			"week_5": map[string]interface{}{
				tsKey: map[string]interface{}{"price": 1000.0, "discount": 0.0},
			},
		},
	}

	d := Decide(existing, true, "bavaria-46", 2025, "week_5", tsKey, testSnapshot())
	require.Equal(t, Noop, d.Kind)
}

func TestDecideMergesNewTimestampAdditively(t *testing.T) {
	oldKey := "2025-02-01T00:00:00Z"
	newKey := "2025-02-08T00:00:00Z"
	existing := &model.YearWeek{
		Slug: "bavaria-46",
		Year: 2025,
		Weeks: datatypes.JSONMap{
			"week_5": map[string]interface{}{
				oldKey: map[string]interface{}{"price": 1000.0},
			},
		},
	}

	snap := Snapshot{Price: 950, Discount: 5, CreatedAt: mergeNow.AddDate(0, 0, 7)}
	d := Decide(existing, true, "bavaria-46", 2025, "week_5", newKey, snap)

	require.Equal(t, WriteWeeks, d.Kind)
	slot, ok := d.Weeks["week_5"].(map[string]interface{})
	require.True(t, ok)
	require.Len(t, slot, 2)
	require.Contains(t, slot, oldKey)
	require.Contains(t, slot, newKey)

	// Map của dòng đã đọc không bị sửa tại chỗ
	prior := existing.Weeks["week_5"].(map[string]interface{})
	require.Len(t, prior, 1)
}

// fakeWeekStore là double in-memory cho WeekStore.
type fakeWeekStore struct {
	rows      map[string]*model.YearWeek
	insertErr error
	updateErr error
	findErr   map[string]error
	inserts   int
	updates   int
}

func newFakeWeekStore() *fakeWeekStore {
	return &fakeWeekStore{
		rows:    make(map[string]*model.YearWeek),
		findErr: make(map[string]error),
	}
}

func weekRowKey(slug string, year int) string {
	return fmt.Sprintf("%s/%d", slug, year)
}

func (f *fakeWeekStore) Find(ctx context.Context, slug string, year int) (*model.YearWeek, bool, error) {
	if err := f.findErr[slug]; err != nil {
		return nil, false, err
	}
	row, ok := f.rows[weekRowKey(slug, year)]
	if !ok {
		return nil, false, nil
	}
	return row, true, nil
}

func (f *fakeWeekStore) Insert(ctx context.Context, row *model.YearWeek) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.rows[weekRowKey(row.Slug, row.Year)] = row
	return nil
}

func (f *fakeWeekStore) UpdateWeeks(ctx context.Context, slug string, year int, weeks datatypes.JSONMap) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	row, ok := f.rows[weekRowKey(slug, year)]
	if !ok {
		return nil
	}
	row.Weeks = weeks
	return nil
}

func TestReplaySnapshotIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeWeekStore()

	msg := model.SnapshotMessage{
		Slug:      "bavaria-46",
		Year:      2025,
		WeekKey:   "week_23",
		Timestamp: "2025-02-01T00:00:00Z",
		Price:     1200,
		Discount:  10,
		CreatedAt: "2025-02-01T10:30:00Z",
	}

	require.NoError(t, ReplaySnapshot(ctx, store, msg))
	require.Equal(t, 1, store.inserts)

	// Replay lần hai: không có ghi mới
	require.NoError(t, ReplaySnapshot(ctx, store, msg))
	require.Equal(t, 1, store.inserts)
	require.Equal(t, 0, store.updates)

	row := store.rows[weekRowKey("bavaria-46", 2025)]
	require.NotNil(t, row)
	slot := row.Weeks["week_23"].(map[string]interface{})
	require.Len(t, slot, 1)
}
