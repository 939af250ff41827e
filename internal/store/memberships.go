package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrInsufficientBalance is returned when a deduction exceeds what the
// membership has left.
var ErrInsufficientBalance = errors.New("insufficient membership balance")

// ErrMembershipNotFound is returned when no membership matches the
// customer name.
var ErrMembershipNotFound = errors.New("membership not found")

// Membership is a prepaid card: either value-based (Balance) or
// session-based (SessionsLeft), depending on CardType.
type Membership struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CardType      string    `json:"card_type"`
	TotalAmount   float64   `json:"total_amount"`
	Balance       float64   `json:"balance"`
	SessionsTotal *int      `json:"sessions_total,omitempty"`
	SessionsLeft  *int      `json:"sessions_left,omitempty"`
	ValidUntil    time.Time `json:"valid_until"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaveMembership inserts m and returns its id.
func (s *Store) SaveMembership(ctx context.Context, m Membership) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO memberships
			(customer_name, card_type, total_amount, balance, sessions_total, sessions_left, valid_until)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		m.CustomerName, m.CardType, m.TotalAmount, m.Balance,
		m.SessionsTotal, m.SessionsLeft, m.ValidUntil,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save membership: %w", err)
	}
	s.summary.invalidate(dateKey(time.Now()))
	return id, nil
}

// MembershipByCustomer returns the most recent membership for a
// customer name.
func (s *Store) MembershipByCustomer(ctx context.Context, customerName string) (Membership, error) {
	var m Membership
	err := s.pool.QueryRow(ctx,
		`SELECT id, customer_name, card_type, total_amount, balance, sessions_total, sessions_left, valid_until, created_at
		 FROM memberships WHERE customer_name = $1
		 ORDER BY created_at DESC LIMIT 1`, customerName,
	).Scan(&m.ID, &m.CustomerName, &m.CardType, &m.TotalAmount, &m.Balance,
		&m.SessionsTotal, &m.SessionsLeft, &m.ValidUntil, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, fmt.Errorf("%w: %s", ErrMembershipNotFound, customerName)
	}
	if err != nil {
		return Membership{}, fmt.Errorf("query membership: %w", err)
	}
	return m, nil
}

// DeductBalance subtracts amount from a value card and returns the new
// balance. The guard in the UPDATE keeps concurrent deductions from
// driving the balance negative.
func (s *Store) DeductBalance(ctx context.Context, membershipID int64, amount float64) (float64, error) {
	var balance float64
	err := s.pool.QueryRow(ctx,
		`UPDATE memberships SET balance = balance - $2
		 WHERE id = $1 AND balance >= $2
		 RETURNING balance`,
		membershipID, amount,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("deduct balance: %w", err)
	}
	return balance, nil
}

// DeductSessions subtracts n sessions from a session card and returns
// how many remain.
func (s *Store) DeductSessions(ctx context.Context, membershipID int64, n int) (int, error) {
	var left int
	err := s.pool.QueryRow(ctx,
		`UPDATE memberships SET sessions_left = sessions_left - $2
		 WHERE id = $1 AND sessions_left >= $2
		 RETURNING sessions_left`,
		membershipID, n,
	).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("deduct sessions: %w", err)
	}
	return left, nil
}

// ExpiringMemberships returns memberships whose validity ends within
// the next days, soonest first.
func (s *Store) ExpiringMemberships(ctx context.Context, days int) ([]Membership, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, customer_name, card_type, total_amount, balance, sessions_total, sessions_left, valid_until, created_at
		 FROM memberships
		 WHERE valid_until BETWEEN CURRENT_DATE AND CURRENT_DATE + $1::int
		 ORDER BY valid_until`, days)
	if err != nil {
		return nil, fmt.Errorf("query expiring memberships: %w", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.CustomerName, &m.CardType, &m.TotalAmount, &m.Balance,
			&m.SessionsTotal, &m.SessionsLeft, &m.ValidUntil, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
