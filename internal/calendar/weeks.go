// Gói calendar tính toán các tuần thuê từ thứ Bảy đến thứ Bảy cho một năm.
// Toàn bộ là hàm thuần túy, không có I/O, để các tầng trên dễ kiểm thử.

package calendar

import (
	"fmt"
	"time"
)

// Window là một khoảng ngày đã được đặt (check-in đến check-out).
type Window struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// WeekSlot là một tuần thuê ứng viên, luôn đúng 7 ngày và bắt đầu vào thứ Bảy.
type WeekSlot struct {
	CheckIn  time.Time
	CheckOut time.Time
}

const DateLayout = "2006-01-02"

// WeekKey trả về tên slot tuần (week_1..week_53) theo thứ tự của ngày check-in
// trong năm. Không dùng số tuần ISO vì tuần ISO đầu/cuối năm có thể thuộc năm
// khác và làm hai thứ Bảy của cùng một năm trùng khóa.
func (w WeekSlot) WeekKey() string {
	return fmt.Sprintf("week_%d", (w.CheckIn.YearDay()+6)/7)
}

// Overlaps kiểm tra một booking có chồng lên slot hay không.
// Phép so sánh bao gồm cả hai đầu mút: checkIn <= slot.checkOut và checkOut >= slot.checkIn.
func (w WeekSlot) Overlaps(b Window) bool {
	return !b.CheckIn.After(w.CheckOut) && !b.CheckOut.Before(w.CheckIn)
}

// FreeWeeks trả về các tuần chưa bị đặt trong một năm, theo thứ tự lịch.
//
// Mốc bắt đầu là hôm nay nếu year là năm hiện tại, ngược lại là ngày 1/1.
// Các tuần được sinh từ thứ Bảy đầu tiên kể từ mốc cho đến hết năm; tuần cuối
// có thể check-out sang năm sau nhưng vẫn thuộc về năm được yêu cầu.
func FreeWeeks(booked []Window, year int, now time.Time) []WeekSlot {
	anchor := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if year == now.Year() {
		anchor = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	// Thứ Bảy đầu tiên tính từ mốc
	daysUntilSaturday := (int(time.Saturday) - int(anchor.Weekday()) + 7) % 7
	saturday := anchor.AddDate(0, 0, daysUntilSaturday)

	var free []WeekSlot
	for ; saturday.Year() == year; saturday = saturday.AddDate(0, 0, 7) {
		slot := WeekSlot{
			CheckIn:  saturday,
			CheckOut: saturday.AddDate(0, 0, 7),
		}

		if !BelongsToYear(slot, year) {
			continue
		}

		blocked := false
		for _, b := range booked {
			if slot.Overlaps(b) {
				blocked = true
				break
			}
		}
		if !blocked {
			free = append(free, slot)
		}
	}

	return free
}

// AttributionYear trả về năm mà một tuần được ghi nhận vào: năm của ngày check-in.
// Cả bộ sinh tuần lẫn tầng merge đều dùng hàm này để tránh hai nơi tự suy ra
// năm theo hai cách khác nhau.
func AttributionYear(slot WeekSlot) int {
	return slot.CheckIn.Year()
}

// BelongsToYear kiểm tra một tuần có thuộc bảng của năm year hay không.
func BelongsToYear(slot WeekSlot, year int) bool {
	chin := slot.CheckIn.Year()
	chout := slot.CheckOut.Year()
	return (chin < year && chout == year) ||
		(chin == year && chout == year) ||
		(chin == year && chout > year)
}
