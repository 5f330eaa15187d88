// Giới hạn tốc độ gọi API upstream: token bucket với ngân sách burst tường minh.
// Mọi lời gọi upstream (search, availability, từng price fetch song song) đều
// đi qua Wait, nên fan-out theo thuyền chỉ burst được tối đa bằng kích thước
// bucket và tốc độ duy trì vẫn được giữ.

package limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter tạo bộ giới hạn với số request mỗi giây và burst tối đa.
func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = requestsPerSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wait chặn cho đến khi được phép thực hiện request tiếp theo.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow kiểm tra xem có thể thực hiện request mới ngay hay không.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Pause ngủ một khoảng cố định (chờ giữa hai thuyền) nhưng vẫn tôn trọng ctx.
func (r *RateLimiter) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
