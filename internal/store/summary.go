package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const summaryCacheTTL = 5 * time.Minute

// Summary aggregates one business day across services, product sales,
// and new memberships.
type Summary struct {
	Date            string  `json:"date"`
	ServiceRevenue  float64 `json:"service_revenue"`
	ServiceCount    int     `json:"service_count"`
	Commission      float64 `json:"commission"`
	ProductRevenue  float64 `json:"product_revenue"`
	ProductCount    int     `json:"product_count"`
	MembershipSales float64 `json:"membership_sales"`
	MembershipCount int     `json:"membership_count"`
	TotalRevenue    float64 `json:"total_revenue"`
}

type summaryCacheEntry struct {
	summary   Summary
	expiresAt time.Time
}

// summaryCache holds computed daily summaries keyed by date. Writes to
// a day evict its entry, so a cached summary is at most TTL stale and
// never misses a record inserted through this process.
type summaryCache struct {
	mu    sync.RWMutex
	store map[string]summaryCacheEntry
	sf    singleflight.Group // deduplicate concurrent builds for the same day
}

func newSummaryCache() *summaryCache {
	return &summaryCache{store: make(map[string]summaryCacheEntry)}
}

func (c *summaryCache) get(day string) (Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[day]
	if !ok || time.Now().After(e.expiresAt) {
		return Summary{}, false
	}
	return e.summary, true
}

func (c *summaryCache) set(day string, s Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[day] = summaryCacheEntry{
		summary:   s,
		expiresAt: time.Now().Add(summaryCacheTTL),
	}
}

func (c *summaryCache) invalidate(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, day)
}

// DailySummary returns the aggregate for one business day. Results are
// cached for five minutes; concurrent requests for the same day share a
// single set of queries via singleflight.
func (s *Store) DailySummary(ctx context.Context, day time.Time) (Summary, error) {
	key := dateKey(day)
	if sum, ok := s.summary.get(key); ok {
		log.Debug().Str("date", key).Msg("summary cache hit")
		return sum, nil
	}

	v, err, _ := s.summary.sf.Do(key, func() (interface{}, error) {
		// Double-check inside singleflight in case another goroutine
		// populated the entry while we waited.
		if sum, ok := s.summary.get(key); ok {
			return sum, nil
		}
		sum, err := s.buildSummary(ctx, day)
		if err != nil {
			return Summary{}, err
		}
		s.summary.set(key, sum)
		return sum, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func (s *Store) buildSummary(ctx context.Context, day time.Time) (Summary, error) {
	sum := Summary{Date: dateKey(day)}

	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(commission), 0), COUNT(*)
		 FROM service_records WHERE record_date = $1`, day,
	).Scan(&sum.ServiceRevenue, &sum.Commission, &sum.ServiceCount)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize services: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0), COUNT(*)
		 FROM product_sales WHERE record_date = $1`, day,
	).Scan(&sum.ProductRevenue, &sum.ProductCount)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize product sales: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		 FROM memberships WHERE created_at::date = $1`, day,
	).Scan(&sum.MembershipSales, &sum.MembershipCount)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize memberships: %w", err)
	}

	sum.TotalRevenue = sum.ServiceRevenue + sum.ProductRevenue + sum.MembershipSales
	return sum, nil
}
