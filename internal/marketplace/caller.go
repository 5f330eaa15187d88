// Gói marketplace cung cấp một caller cho API của sàn cho thuê thuyền:
// search phân trang, lịch đã đặt và báo giá theo tuần.
// Status khác "Success" nghĩa là "không có dữ liệu cho mục này", không phải lỗi;
// caller trả về ok=false để tầng trên bỏ qua mục đó thay vì dừng cả job.

package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/internal/calendar"
	"github.com/thanhpv/boat-sync/pkg/log"
)

// StatusSuccess là giá trị status của upstream khi có dữ liệu.
const StatusSuccess = "Success"

type Caller struct {
	Logger log.Logger
	Config *cfg.Config
	client *http.Client
}

func NewCaller(logger log.Logger, config *cfg.Config) *Caller {
	timeout := time.Duration(config.Marketplace.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Caller{
		Logger: logger,
		Config: config,
		client: &http.Client{Timeout: timeout},
	}
}

// Search gọi một trang của endpoint search cho country/category đã cấu hình.
func (c *Caller) Search(ctx context.Context, page int) (*SearchPage, error) {
	query := url.Values{}
	query.Set("country", c.Config.Marketplace.Country)
	query.Set("category", c.Config.Marketplace.Category)
	query.Set("page", fmt.Sprintf("%d", page))
	if c.Config.Marketplace.PageSize > 0 {
		query.Set("pageSize", fmt.Sprintf("%d", c.Config.Marketplace.PageSize))
	}
	fullUrl := fmt.Sprintf("%s/search?%s", c.Config.Marketplace.ApiUrl, query.Encode())

	c.Logger.Debug(ctx, "Calling marketplace search: %s", fullUrl)

	envelope := &searchEnvelope{}
	if err := c.get(ctx, fullUrl, envelope); err != nil {
		return nil, err
	}

	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("search page %d: empty response envelope", page)
	}

	return &envelope.Data[0], nil
}

// Availability trả về các khoảng đã đặt của một thuyền.
// ok=false khi upstream báo thuyền tạm không khả dụng (bỏ qua thuyền này lượt này).
func (c *Caller) Availability(ctx context.Context, slug string) ([]calendar.Window, bool, error) {
	fullUrl := fmt.Sprintf("%s/availability/%s", c.Config.Marketplace.ApiUrl, url.PathEscape(slug))

	envelope := &availabilityEnvelope{}
	if err := c.get(ctx, fullUrl, envelope); err != nil {
		return nil, false, err
	}

	if envelope.Status != StatusSuccess || len(envelope.Data) == 0 {
		return nil, false, nil
	}

	windows := make([]calendar.Window, 0, len(envelope.Data[0].Availabilities))
	for _, w := range envelope.Data[0].Availabilities {
		checkIn, err := time.ParseInLocation(calendar.DateLayout, w.CheckIn, time.UTC)
		if err != nil {
			return nil, false, fmt.Errorf("availability %s: bad checkIn %q: %w", slug, w.CheckIn, err)
		}
		checkOut, err := time.ParseInLocation(calendar.DateLayout, w.CheckOut, time.UTC)
		if err != nil {
			return nil, false, fmt.Errorf("availability %s: bad checkOut %q: %w", slug, w.CheckOut, err)
		}
		windows = append(windows, calendar.Window{CheckIn: checkIn, CheckOut: checkOut})
	}

	return windows, true, nil
}

// Price lấy báo giá cho một thuyền và một tuần ứng viên.
// ok=false khi upstream không có giá cho tuần đó (tuần bị loại, không phải lỗi).
func (c *Caller) Price(ctx context.Context, slug string, week calendar.WeekSlot) (*PriceQuote, bool, error) {
	query := url.Values{}
	query.Set("slug", slug)
	query.Set("checkIn", week.CheckIn.Format(calendar.DateLayout))
	query.Set("checkOut", week.CheckOut.Format(calendar.DateLayout))
	fullUrl := fmt.Sprintf("%s/price/%s?%s", c.Config.Marketplace.ApiUrl, url.PathEscape(slug), query.Encode())

	envelope := &priceEnvelope{}
	if err := c.get(ctx, fullUrl, envelope); err != nil {
		return nil, false, err
	}

	if envelope.Status != StatusSuccess || len(envelope.Data) == 0 || len(envelope.Data[0].Data) == 0 {
		return nil, false, nil
	}

	return &envelope.Data[0].Data[0], true, nil
}

func (c *Caller) get(ctx context.Context, fullUrl string, out interface{}) error {
	resp, err := c.do(ctx, fullUrl)
	if err != nil {
		return err
	}

	// Bị upstream giới hạn tốc độ: chờ throttle delay rồi thử lại một lần
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		delay := time.Duration(c.Config.Marketplace.ThrottleDelay) * time.Millisecond
		c.Logger.Warn(ctx, "Rate limited by upstream, retrying after %v", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		resp, err = c.do(ctx, fullUrl)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot received response: %v", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}

	return nil
}

func (c *Caller) do(ctx context.Context, fullUrl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		c.Logger.Error(ctx, "Cannot request: %v", err)
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.Logger.Error(ctx, "cannot send request: %v", err)
		return nil, err
	}

	return resp, nil
}
