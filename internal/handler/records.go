package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/storepilot/storepilot/internal/models"
	"github.com/storepilot/storepilot/internal/store"
)

// RecordStore is the part of the store the read endpoints need.
type RecordStore interface {
	ServiceRecordsByDate(ctx context.Context, day time.Time) ([]store.ServiceRecord, error)
	ProductSalesByDate(ctx context.Context, day time.Time) ([]store.ProductSale, error)
	ExpiringMemberships(ctx context.Context, days int) ([]store.Membership, error)
	DailySummary(ctx context.Context, day time.Time) (store.Summary, error)
}

// RecordsHandler serves the read-only reporting endpoints.
type RecordsHandler struct {
	store RecordStore
}

func NewRecordsHandler(st RecordStore) *RecordsHandler {
	return &RecordsHandler{store: st}
}

// queryDate reads the ?date= parameter, defaulting to today.
func queryDate(r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("date")
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	}
	day, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// Services handles GET /api/v1/services
func (h *RecordsHandler) Services(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(r)
	if !ok {
		models.WriteError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	records, err := h.store.ServiceRecordsByDate(r.Context(), day)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"date":     day.Format("2006-01-02"),
		"services": records,
	})
}

// Sales handles GET /api/v1/sales
func (h *RecordsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(r)
	if !ok {
		models.WriteError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	sales, err := h.store.ProductSalesByDate(r.Context(), day)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"date":  day.Format("2006-01-02"),
		"sales": sales,
	})
}

// Memberships handles GET /api/v1/memberships?expiring_days=N
func (h *RecordsHandler) Memberships(w http.ResponseWriter, r *http.Request) {
	days := 7
	if s := r.URL.Query().Get("expiring_days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			models.WriteError(w, http.StatusBadRequest, "invalid expiring_days")
			return
		}
		days = n
	}
	memberships, err := h.store.ExpiringMemberships(r.Context(), days)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"expiring_days": days,
		"memberships":   memberships,
	})
}

// Summary handles GET /api/v1/summary
func (h *RecordsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(r)
	if !ok {
		models.WriteError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	sum, err := h.store.DailySummary(r.Context(), day)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, sum)
}
