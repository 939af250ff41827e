// Package tools registers the business operations the assistant can
// invoke: recording service income and product sales, managing
// memberships, and querying daily summaries.
package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/storepilot/storepilot/internal/config"
	"github.com/storepilot/storepilot/internal/registry"
	"github.com/storepilot/storepilot/internal/store"
)

// Toolset binds the business store and rules to the registered
// operations.
type Toolset struct {
	store *store.Store
	cfg   *config.Config
	now   func() time.Time // overridable in tests
}

func NewToolset(st *store.Store, cfg *config.Config) *Toolset {
	return &Toolset{store: st, cfg: cfg, now: time.Now}
}

// RegisterAll registers every business operation on reg.
func (t *Toolset) RegisterAll(reg *registry.Registry) error {
	type entry struct {
		name, description string
		fn                any
		opts              []registry.Option
	}
	entries := []entry{
		{"record_service_income", "Record a completed service (massage, moxibustion, haircut, etc). Commission is computed automatically from the therapist's seniority.", t.recordServiceIncome, nil},
		{"record_product_sale", "Record an over-the-counter product sale. The line total is quantity times unit price.", t.recordProductSale, nil},
		{"register_membership", "Register a new prepaid membership card for a customer.", t.registerMembership, nil},
		{"deduct_membership", "Deduct an amount or number of sessions from a customer's membership card.", t.deductMembership, nil},
		{"get_daily_summary", "Get the revenue summary for a business day: services, product sales, memberships, and commission.", t.getDailySummary, []registry.Option{registry.WithBlocking()}},
		{"get_records_by_date", "List the individual service records and product sales for a business day.", t.getRecordsByDate, []registry.Option{registry.WithBlocking()}},
		{"list_expiring_memberships", "List membership cards expiring within the next N days.", t.listExpiringMemberships, nil},
	}
	for _, e := range entries {
		if err := reg.Register(e.name, e.description, e.fn, e.opts...); err != nil {
			return fmt.Errorf("register %s: %w", e.name, err)
		}
	}
	return nil
}

// parseDate accepts "today", "yesterday", or an ISO date, and returns
// the business day at midnight local time.
func (t *Toolset) parseDate(s string) (time.Time, error) {
	now := t.now()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return midnight(now), nil
	case "yesterday":
		return midnight(now.AddDate(0, 0, -1)), nil
	}
	day, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD, today, or yesterday", s)
	}
	return day, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
