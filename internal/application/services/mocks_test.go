package services

import (
	"context"
	"sync"
	"time"

	"btc-price-service/internal/domain/entities"

	"github.com/stretchr/testify/mock"
)

// MockPriceClient es un mock del proveedor de precios
type MockPriceClient struct {
	mock.Mock
}

func (m *MockPriceClient) FetchCurrentPrice(ctx context.Context) (*entities.PriceSample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PriceSample), args.Error(1)
}

func (m *MockPriceClient) FetchPriceRange(ctx context.Context, from, to time.Time) ([]*entities.PriceSample, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PriceSample), args.Error(1)
}

// MockPriceStore es un mock del store
type MockPriceStore struct {
	mock.Mock
}

func (m *MockPriceStore) Insert(ctx context.Context, sample *entities.PriceSample) error {
	return m.Called(ctx, sample).Error(0)
}

func (m *MockPriceStore) InsertBatch(ctx context.Context, samples []*entities.PriceSample) (int64, error) {
	args := m.Called(ctx, samples)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPriceStore) QueryRange(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PriceSample), args.Error(1)
}

func (m *MockPriceStore) Latest(ctx context.Context) (*entities.PriceSample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PriceSample), args.Error(1)
}

func (m *MockPriceStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockPriceService para el refresher
type MockPriceService struct {
	mock.Mock
}

func (m *MockPriceService) GetCurrentPrice(ctx context.Context) (*entities.PriceSample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PriceSample), args.Error(1)
}

func (m *MockPriceService) GetPriceHistory(ctx context.Context, start, end time.Time) ([]*entities.PriceSample, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PriceSample), args.Error(1)
}

func (m *MockPriceService) RefreshCurrentPrice(ctx context.Context) (*entities.PriceSample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PriceSample), args.Error(1)
}

// recordingPublisher guarda lo publicado
type recordingPublisher struct {
	mu      sync.Mutex
	samples []*entities.PriceSample
}

func (p *recordingPublisher) Publish(sample *entities.PriceSample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = append(p.samples, sample)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.samples)
}

type cacheEntry struct {
	current  *entities.PriceSample
	history  []*entities.PriceSample
	expireAt time.Time
}

// fakePriceCache es un PriceCache en memoria con reloj controlable
type fakePriceCache struct {
	mu      sync.Mutex
	now     time.Time
	current *cacheEntry
	history map[[2]int64]*cacheEntry
	down    bool
}

func newFakePriceCache() *fakePriceCache {
	return &fakePriceCache{
		now:     time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC),
		history: make(map[[2]int64]*cacheEntry),
	}
}

func (c *fakePriceCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakePriceCache) GetCurrent(context.Context) (*entities.PriceSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down || c.current == nil || !c.now.Before(c.current.expireAt) {
		return nil, false
	}
	return c.current.current, true
}

func (c *fakePriceCache) SetCurrent(_ context.Context, sample *entities.PriceSample, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	c.current = &cacheEntry{current: sample, expireAt: c.now.Add(ttl)}
}

func (c *fakePriceCache) GetHistory(_ context.Context, start, end time.Time) ([]*entities.PriceSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.history[[2]int64{start.UnixNano(), end.UnixNano()}]
	if c.down || !ok || !c.now.Before(e.expireAt) {
		return nil, false
	}
	return e.history, true
}

func (c *fakePriceCache) SetHistory(_ context.Context, start, end time.Time, samples []*entities.PriceSample, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	c.history[[2]int64{start.UnixNano(), end.UnixNano()}] = &cacheEntry{history: samples, expireAt: c.now.Add(ttl)}
}
