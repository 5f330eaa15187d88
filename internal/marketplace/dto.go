// Gói dto chuyển đổi phản hồi API của marketplace thành các cấu trúc nội bộ

package marketplace

// BoatEntry là một thuyền trong trang kết quả search của marketplace.
type BoatEntry struct {
	ID     int64   `json:"id"`
	Slug   string  `json:"slug"`
	Name   string  `json:"name"`
	Model  string  `json:"model"`
	Year   int     `json:"year"`
	Berths int     `json:"berths"`
	Cabins int     `json:"cabins"`
	Length float64 `json:"length"`
	Marina string  `json:"marina"`
	// Có thể thêm nhiều trường tại đây
}

// SearchPage là một trang kết quả search kèm tổng số thuyền của truy vấn.
type SearchPage struct {
	TotalBoats int         `json:"totalBoats"`
	Data       []BoatEntry `json:"data"`
}

type searchEnvelope struct {
	Data []SearchPage `json:"data"`
}

// ReservationWindow là một khoảng đã đặt do upstream trả về (ngày dạng 2006-01-02).
type ReservationWindow struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

type availabilityEntry struct {
	Slug           string              `json:"slug"`
	Availabilities []ReservationWindow `json:"availabilities"`
}

type availabilityEnvelope struct {
	Status string              `json:"status"`
	Data   []availabilityEntry `json:"data"`
}

// PriceQuote là một báo giá cho một thuyền + một tuần.
type PriceQuote struct {
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
}

type priceEntry struct {
	Data []PriceQuote `json:"data"`
}

type priceEnvelope struct {
	Status string       `json:"status"`
	Data   []priceEntry `json:"data"`
}
