package syncer

import (
	"errors"
	"fmt"
	"strings"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

// UpstreamError là lỗi thật từ marketplace (transport, decode, HTTP != 200).
// Trường hợp "không có dữ liệu" không đi qua đây mà trả về ok=false từ caller.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// RepoError là lỗi từ tầng lưu trữ. Conflict=true cho các vi phạm ràng buộc
// được dung thứ (boat bị xóa phía upstream giữa hai lượt đồng bộ).
type RepoError struct {
	Op       string
	Err      error
	Conflict bool
}

func (e *RepoError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepoError) Unwrap() error {
	return e.Err
}

// Mã lỗi MySQL cho các ràng buộc bị vi phạm
const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrFKNoParent     = 1452
)

// IsConflict phân loại lỗi ghi là xung đột ràng buộc (được log rồi bỏ qua)
// thay vì lỗi lưu trữ thực sự.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var repoErr *RepoError
	if errors.As(err, &repoErr) && repoErr.Conflict {
		return true
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry || mysqlErr.Number == mysqlErrFKNoParent
	}

	// Driver khác không có mã số, đành so chuỗi
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "foreign key constraint")
}
