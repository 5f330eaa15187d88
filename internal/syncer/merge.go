// Quyết định merge cho một snapshot giá mới vào slot tuần đã lưu.
// Đây là phần lõi của job đồng bộ: quyết định được tính từ dòng đã đọc
// trước khi ghi, và phải giữ bất biến "map snapshot chỉ thêm, không xóa".

package syncer

import (
	"context"
	"time"

	"github.com/thanhpv/boat-sync/internal/model"
	"gorm.io/datatypes"
)

// Snapshot là một lần quan sát giá cho một thuyền + một tuần.
type Snapshot struct {
	Price     float64
	Discount  float64
	CreatedAt time.Time
}

// SnapshotKey sinh khóa timestamp cho một lượt chạy: ngày UTC của lượt chạy.
// Chạy lại trong cùng ngày sinh cùng khóa, nhờ đó merge là no-op (idempotent).
func SnapshotKey(now time.Time) string {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.Format(time.RFC3339)
}

func snapshotValue(snap Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"price":      snap.Price,
		"discount":   snap.Discount,
		"created_at": snap.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type DecisionKind int

const (
	// Noop: khóa timestamp đã có trong slot, không ghi gì (bảo vệ chạy lại)
	Noop DecisionKind = iota
	// InsertRow: chưa có dòng (slug, year), tạo dòng mới với slot khởi tạo
	InsertRow
	// WriteWeeks: dòng đã có, ghi lại cột weeks với slot đã merge
	WriteWeeks
)

// Decision là kết quả của ba nhánh merge: insert / update / no-op.
type Decision struct {
	Kind  DecisionKind
	Row   *model.YearWeek   // InsertRow
	Weeks datatypes.JSONMap // WriteWeeks
}

// Decide chọn nhánh ghi dựa trên trạng thái hiện tại của slot tuần:
//
//   - dòng chưa tồn tại            -> InsertRow, slot = {tsKey: snapshot}
//   - slot không có khóa           -> WriteWeeks, thêm slot mới
//   - slot là null (đã quan sát,
//     không có dữ liệu)            -> WriteWeeks, ghi đè slot bằng {tsKey: snapshot}
//   - slot đã có map snapshot      -> WriteWeeks với map đã merge nếu tsKey chưa có,
//     ngược lại Noop
//
// existing là dòng vừa đọc từ store; hàm không tự đọc lại.
func Decide(existing *model.YearWeek, found bool, slug string, year int, weekKey string, tsKey string, snap Snapshot) Decision {
	newSlot := map[string]interface{}{tsKey: snapshotValue(snap)}

	if !found {
		return Decision{
			Kind: InsertRow,
			Row: &model.YearWeek{
				Slug:  slug,
				Year:  year,
				Weeks: datatypes.JSONMap{weekKey: newSlot},
			},
		}
	}

	slot, present := existing.Weeks[weekKey]

	// Slot chưa từng quan sát hoặc đang là sentinel null: ghi đè
	if !present || slot == nil {
		return Decision{
			Kind:  WriteWeeks,
			Weeks: withWeek(existing.Weeks, weekKey, newSlot),
		}
	}

	prior, ok := slot.(map[string]interface{})
	if !ok {
		// Giá trị slot không đúng dạng map (dữ liệu cũ hỏng): ghi đè như null
		return Decision{
			Kind:  WriteWeeks,
			Weeks: withWeek(existing.Weeks, weekKey, newSlot),
		}
	}

	if _, exists := prior[tsKey]; exists {
		return Decision{Kind: Noop}
	}

	// Merge cộng dồn: giữ nguyên mọi khóa cũ, thêm khóa mới
	merged := make(map[string]interface{}, len(prior)+1)
	for k, v := range prior {
		merged[k] = v
	}
	merged[tsKey] = snapshotValue(snap)

	return Decision{
		Kind:  WriteWeeks,
		Weeks: withWeek(existing.Weeks, weekKey, merged),
	}
}

// withWeek sao chép cột weeks và thay một slot; không sửa map của dòng đã đọc.
func withWeek(weeks datatypes.JSONMap, weekKey string, slot interface{}) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(weeks)+1)
	for k, v := range weeks {
		out[k] = v
	}
	out[weekKey] = slot
	return out
}

// ReplaySnapshot áp một sự kiện snapshot từ Kafka vào store qua đúng đường
// merge của job đồng bộ, nhờ đó replay bao nhiêu lần cũng idempotent.
func ReplaySnapshot(ctx context.Context, store WeekStore, msg model.SnapshotMessage) error {
	row, found, err := store.Find(ctx, msg.Slug, msg.Year)
	if err != nil {
		return err
	}

	createdAt, err := time.Parse(time.RFC3339, msg.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	snap := Snapshot{
		Price:     msg.Price,
		Discount:  msg.Discount,
		CreatedAt: createdAt,
	}
	decision := Decide(row, found, msg.Slug, msg.Year, msg.WeekKey, msg.Timestamp, snap)
	return Apply(ctx, store, msg.Slug, msg.Year, decision)
}

// Apply thực thi một quyết định merge lên store.
func Apply(ctx context.Context, store WeekStore, slug string, year int, d Decision) error {
	switch d.Kind {
	case InsertRow:
		return store.Insert(ctx, d.Row)
	case WriteWeeks:
		return store.UpdateWeeks(ctx, slug, year, d.Weeks)
	default:
		return nil
	}
}
