package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFreeWeeksFullYear(t *testing.T) {
	// 2025-01-01 là thứ Tư, thứ Bảy đầu tiên là 2025-01-04
	now := date(2024, time.June, 1)
	weeks := FreeWeeks(nil, 2025, now)

	require.NotEmpty(t, weeks)
	require.Equal(t, date(2025, time.January, 4), weeks[0].CheckIn)
	require.Equal(t, date(2025, time.January, 11), weeks[0].CheckOut)
	require.Len(t, weeks, 52)

	last := weeks[len(weeks)-1]
	require.Equal(t, date(2025, time.December, 27), last.CheckIn)
	// Tuần cuối check-out sang năm sau nhưng vẫn thuộc năm được yêu cầu
	require.Equal(t, date(2026, time.January, 3), last.CheckOut)

	for _, w := range weeks {
		require.Equal(t, time.Saturday, w.CheckIn.Weekday())
		require.Equal(t, w.CheckIn.AddDate(0, 0, 7), w.CheckOut)
		require.Equal(t, 2025, AttributionYear(w))
	}
}

func TestFreeWeeksAnchorsOnTodayForCurrentYear(t *testing.T) {
	now := date(2025, time.December, 1) // thứ Hai
	weeks := FreeWeeks(nil, 2025, now)

	require.Len(t, weeks, 4)
	require.Equal(t, date(2025, time.December, 6), weeks[0].CheckIn)
	require.Equal(t, date(2025, time.December, 27), weeks[3].CheckIn)
}

func TestFreeWeeksExcludesBookedWindows(t *testing.T) {
	now := date(2024, time.June, 1)
	booked := []Window{
		{CheckIn: date(2025, time.January, 10), CheckOut: date(2025, time.January, 17)},
	}

	weeks := FreeWeeks(booked, 2025, now)

	// Phép thử chồng lấn bao hàm hai đầu mút: booking 10–17/1 chặn cả tuần
	// bắt đầu 4/1 (check-out 11/1) lẫn tuần bắt đầu 11/1
	for _, w := range weeks {
		require.NotEqual(t, date(2025, time.January, 4), w.CheckIn)
		require.NotEqual(t, date(2025, time.January, 11), w.CheckIn)
		for _, b := range booked {
			require.False(t, w.Overlaps(b), "returned week %s overlaps booking", w.CheckIn)
		}
	}
	require.Len(t, weeks, 50)
	require.Equal(t, date(2025, time.January, 18), weeks[0].CheckIn)
}

func TestFreeWeeksNoWeeksLeftLateInYear(t *testing.T) {
	// Hôm nay sau thứ Bảy cuối cùng của năm: không còn tuần nào
	now := date(2025, time.December, 28)
	weeks := FreeWeeks(nil, 2025, now)
	require.Empty(t, weeks)
}

func TestOverlapsInclusiveBoundaries(t *testing.T) {
	slot := WeekSlot{CheckIn: date(2025, time.May, 3), CheckOut: date(2025, time.May, 10)}

	tests := []struct {
		name    string
		booking Window
		want    bool
	}{
		{
			name:    "booking entirely before",
			booking: Window{CheckIn: date(2025, time.April, 20), CheckOut: date(2025, time.May, 2)},
			want:    false,
		},
		{
			name:    "booking checkOut touches slot checkIn",
			booking: Window{CheckIn: date(2025, time.April, 26), CheckOut: date(2025, time.May, 3)},
			want:    true,
		},
		{
			name:    "booking inside slot",
			booking: Window{CheckIn: date(2025, time.May, 5), CheckOut: date(2025, time.May, 7)},
			want:    true,
		},
		{
			name:    "booking checkIn touches slot checkOut",
			booking: Window{CheckIn: date(2025, time.May, 10), CheckOut: date(2025, time.May, 17)},
			want:    true,
		},
		{
			name:    "booking entirely after",
			booking: Window{CheckIn: date(2025, time.May, 11), CheckOut: date(2025, time.May, 18)},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, slot.Overlaps(tt.booking))
		})
	}
}

func TestBelongsToYear(t *testing.T) {
	tests := []struct {
		name string
		slot WeekSlot
		year int
		want bool
	}{
		{
			name: "fully inside year",
			slot: WeekSlot{CheckIn: date(2025, time.June, 7), CheckOut: date(2025, time.June, 14)},
			year: 2025,
			want: true,
		},
		{
			name: "straddles boundary, requested check-in year",
			slot: WeekSlot{CheckIn: date(2025, time.December, 27), CheckOut: date(2026, time.January, 3)},
			year: 2025,
			want: true,
		},
		{
			name: "straddles boundary, requested check-out year",
			slot: WeekSlot{CheckIn: date(2025, time.December, 27), CheckOut: date(2026, time.January, 3)},
			year: 2026,
			want: true,
		},
		{
			name: "unrelated year",
			slot: WeekSlot{CheckIn: date(2025, time.June, 7), CheckOut: date(2025, time.June, 14)},
			year: 2024,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, BelongsToYear(tt.slot, tt.year))
		})
	}
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		checkIn time.Time
		want    string
	}{
		{date(2025, time.January, 4), "week_1"},
		{date(2025, time.January, 11), "week_2"},
		{date(2025, time.December, 27), "week_52"},
		{date(2022, time.January, 1), "week_1"},
		{date(2022, time.December, 31), "week_53"},
	}

	for _, tt := range tests {
		slot := WeekSlot{CheckIn: tt.checkIn, CheckOut: tt.checkIn.AddDate(0, 0, 7)}
		require.Equal(t, tt.want, slot.WeekKey(), "check-in %s", tt.checkIn)
	}
}
