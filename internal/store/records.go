package store

import (
	"context"
	"fmt"
	"time"
)

// ServiceRecord is one billed service (massage, moxibustion, haircut...).
type ServiceRecord struct {
	ID              int64     `json:"id"`
	CustomerName    string    `json:"customer_name"`
	ServiceType     string    `json:"service_type"`
	Amount          float64   `json:"amount"`
	TherapistName   *string   `json:"therapist_name,omitempty"`
	Commission      float64   `json:"commission"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	RecordDate      time.Time `json:"record_date"`
	Notes           *string   `json:"notes,omitempty"`
}

// ProductSale is one over-the-counter product sale.
type ProductSale struct {
	ID           int64     `json:"id"`
	CustomerName *string   `json:"customer_name,omitempty"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	Total        float64   `json:"total"`
	RecordDate   time.Time `json:"record_date"`
}

// SaveServiceRecord inserts rec and returns its id. The summary cache
// for that date is invalidated so the next summary reflects it.
func (s *Store) SaveServiceRecord(ctx context.Context, rec ServiceRecord) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO service_records
			(customer_name, service_type, amount, therapist_name, commission, duration_minutes, record_date, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		rec.CustomerName, rec.ServiceType, rec.Amount, rec.TherapistName,
		rec.Commission, rec.DurationMinutes, rec.RecordDate, rec.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save service record: %w", err)
	}
	s.summary.invalidate(dateKey(rec.RecordDate))
	return id, nil
}

// SaveProductSale inserts sale and returns its id.
func (s *Store) SaveProductSale(ctx context.Context, sale ProductSale) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO product_sales
			(customer_name, product_name, quantity, unit_price, total, record_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		sale.CustomerName, sale.ProductName, sale.Quantity, sale.UnitPrice,
		sale.LineTotal(), sale.RecordDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save product sale: %w", err)
	}
	s.summary.invalidate(dateKey(sale.RecordDate))
	return id, nil
}

// LineTotal computes the line total.
func (p ProductSale) LineTotal() float64 {
	return float64(p.Quantity) * p.UnitPrice
}

// ServiceRecordsByDate returns the records for one business day.
func (s *Store) ServiceRecordsByDate(ctx context.Context, day time.Time) ([]ServiceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, customer_name, service_type, amount, therapist_name, commission, duration_minutes, record_date, notes
		 FROM service_records WHERE record_date = $1 ORDER BY id`, day)
	if err != nil {
		return nil, fmt.Errorf("query service records: %w", err)
	}
	defer rows.Close()

	var out []ServiceRecord
	for rows.Next() {
		var r ServiceRecord
		if err := rows.Scan(&r.ID, &r.CustomerName, &r.ServiceType, &r.Amount,
			&r.TherapistName, &r.Commission, &r.DurationMinutes, &r.RecordDate, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan service record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProductSalesByDate returns the sales for one business day.
func (s *Store) ProductSalesByDate(ctx context.Context, day time.Time) ([]ProductSale, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, customer_name, product_name, quantity, unit_price, total, record_date
		 FROM product_sales WHERE record_date = $1 ORDER BY id`, day)
	if err != nil {
		return nil, fmt.Errorf("query product sales: %w", err)
	}
	defer rows.Close()

	var out []ProductSale
	for rows.Next() {
		var p ProductSale
		if err := rows.Scan(&p.ID, &p.CustomerName, &p.ProductName, &p.Quantity,
			&p.UnitPrice, &p.Total, &p.RecordDate); err != nil {
			return nil, fmt.Errorf("scan product sale: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
