package model

// BoatMessage là cấu trúc dữ liệu catalog Boat gửi tới Kafka
type BoatMessage struct {
	MarketplaceID int64   `json:"marketplace_id"`
	Slug          string  `json:"slug"`
	Name          string  `json:"name"`
	Model         string  `json:"model"`
	BuildYear     int     `json:"build_year"`
	Berths        int     `json:"berths"`
	Cabins        int     `json:"cabins"`
	Length        float64 `json:"length"`
	Marina        string  `json:"marina"`
	Country       string  `json:"country"`
	Category      string  `json:"category"`
}

// SnapshotMessage là một lần quan sát giá của một thuyền/tuần gửi tới Kafka
type SnapshotMessage struct {
	Slug      string  `json:"slug"`
	Year      int     `json:"year"`
	WeekKey   string  `json:"week_key"`
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
	CreatedAt string  `json:"created_at"`
}
