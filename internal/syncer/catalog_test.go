package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/internal/calendar"
	"github.com/thanhpv/boat-sync/internal/marketplace"
	"github.com/thanhpv/boat-sync/internal/model"
	"github.com/thanhpv/boat-sync/pkg/log"
)

// fakeMarket là double cho Marketplace.
type fakeMarket struct {
	pages        []marketplace.SearchPage
	searchErrAt  int // trang bị lỗi (0 = không có)
	availability map[string][]calendar.Window
	unavailable  map[string]bool
	availErr     map[string]error
	quotes       map[string]marketplace.PriceQuote // khóa: slug
	mu           sync.Mutex
	priceCalls   int
}

func (f *fakeMarket) Search(ctx context.Context, page int) (*marketplace.SearchPage, error) {
	if f.searchErrAt != 0 && page == f.searchErrAt {
		return nil, errors.New("upstream 502")
	}
	if page < 1 || page > len(f.pages) {
		return &marketplace.SearchPage{TotalBoats: totalOf(f.pages)}, nil
	}
	return &f.pages[page-1], nil
}

func (f *fakeMarket) Availability(ctx context.Context, slug string) ([]calendar.Window, bool, error) {
	if err := f.availErr[slug]; err != nil {
		return nil, false, err
	}
	if f.unavailable[slug] {
		return nil, false, nil
	}
	return f.availability[slug], true, nil
}

func (f *fakeMarket) Price(ctx context.Context, slug string, week calendar.WeekSlot) (*marketplace.PriceQuote, bool, error) {
	f.mu.Lock()
	f.priceCalls++
	f.mu.Unlock()
	quote, ok := f.quotes[slug]
	if !ok {
		return nil, false, nil
	}
	return &quote, true, nil
}

func totalOf(pages []marketplace.SearchPage) int {
	if len(pages) == 0 {
		return 0
	}
	return pages[0].TotalBoats
}

// fakeCatalogStore là double cho CatalogStore.
type fakeCatalogStore struct {
	upserts   []model.Boat
	upsertErr map[string]error
	slugs     []string
	slugsErr  error
}

func (f *fakeCatalogStore) Upsert(ctx context.Context, boat model.Boat) error {
	if err := f.upsertErr[boat.Slug]; err != nil {
		return err
	}
	f.upserts = append(f.upserts, boat)
	return nil
}

func (f *fakeCatalogStore) Slugs(ctx context.Context) ([]string, error) {
	if f.slugsErr != nil {
		return nil, f.slugsErr
	}
	return f.slugs, nil
}

// fakePublisher ghi lại các sự kiện đã phát.
type fakePublisher struct {
	events []string
}

func (f *fakePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	f.events = append(f.events, key)
	return nil
}

func testConfig() *cfg.Config {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	// Test không cần chờ thật
	config.Marketplace.RequestsPerSecond = 1000
	config.Marketplace.Burst = 8
	config.Marketplace.BoatDelay = 0
	return config
}

func searchPages(total, pageSize int) []marketplace.SearchPage {
	var pages []marketplace.SearchPage
	for start := 0; start < total; start += pageSize {
		page := marketplace.SearchPage{TotalBoats: total}
		for i := start; i < start+pageSize && i < total; i++ {
			page.Data = append(page.Data, marketplace.BoatEntry{
				ID:   int64(i + 1),
				Slug: fmt.Sprintf("boat-%d", i+1),
				Name: fmt.Sprintf("Boat %d", i+1),
			})
		}
		pages = append(pages, page)
	}
	return pages
}

func TestCatalogSyncFetchesAllPagesInOrder(t *testing.T) {
	ctx := context.Background()
	logger, _ := log.NewCslLogger()
	market := &fakeMarket{pages: searchPages(5, 2)}
	store := &fakeCatalogStore{}

	catalogSyncer, err := NewCatalogSyncer(logger, testConfig(), market, store, nil)
	require.NoError(t, err)

	stats, err := catalogSyncer.Sync(ctx)
	require.NoError(t, err)

	require.Equal(t, 3, stats.Pages)
	require.Equal(t, 5, stats.Total)
	require.Equal(t, 5, stats.Upserted)

	// Thứ tự upstream được giữ nguyên
	require.Len(t, store.upserts, 5)
	for i, boat := range store.upserts {
		require.Equal(t, fmt.Sprintf("boat-%d", i+1), boat.Slug)
	}
}

func TestCatalogSyncToleratesConflictAndContinues(t *testing.T) {
	ctx := context.Background()
	logger, _ := log.NewCslLogger()
	market := &fakeMarket{pages: searchPages(3, 2)}
	store := &fakeCatalogStore{
		upsertErr: map[string]error{
			"boat-2": &RepoError{Op: "upsert", Err: errors.New("fk parent missing"), Conflict: true},
		},
	}

	catalogSyncer, err := NewCatalogSyncer(logger, testConfig(), market, store, nil)
	require.NoError(t, err)

	stats, err := catalogSyncer.Sync(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, stats.Upserted)
	require.Equal(t, 1, stats.Conflicts)
	require.Equal(t, 0, stats.Failed)
	require.Len(t, store.upserts, 2)
}

func TestCatalogSyncFailsOnPageError(t *testing.T) {
	ctx := context.Background()
	logger, _ := log.NewCslLogger()
	market := &fakeMarket{pages: searchPages(5, 2), searchErrAt: 2}
	store := &fakeCatalogStore{}

	catalogSyncer, err := NewCatalogSyncer(logger, testConfig(), market, store, nil)
	require.NoError(t, err)

	_, err = catalogSyncer.Sync(ctx)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)

	// Trang đầu vẫn được ghi trước khi lỗi xảy ra
	require.Len(t, store.upserts, 2)
}

func TestCatalogSyncPublishesBoatEvents(t *testing.T) {
	ctx := context.Background()
	logger, _ := log.NewCslLogger()
	market := &fakeMarket{pages: searchPages(2, 2)}
	store := &fakeCatalogStore{}
	publisher := &fakePublisher{}

	catalogSyncer, err := NewCatalogSyncer(logger, testConfig(), market, store, publisher)
	require.NoError(t, err)

	_, err = catalogSyncer.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"boat", "boat"}, publisher.events)
}
