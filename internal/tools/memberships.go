package tools

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/store"
)

type registerMembershipArgs struct {
	CustomerName  string  `json:"customer_name" desc:"Name of the card holder"`
	CardType      string  `json:"card_type" desc:"Kind of card" enum:"value,sessions"`
	TotalAmount   float64 `json:"total_amount" desc:"Amount paid for the card"`
	SessionsTotal *int    `json:"sessions_total" desc:"Number of sessions, for session cards"`
	ValidMonths   int     `json:"valid_months" desc:"Validity in months from today" default:"12"`
}

type registerMembershipReply struct {
	ID         int64  `json:"id"`
	ValidUntil string `json:"valid_until"`
}

func (t *Toolset) registerMembership(ctx context.Context, args registerMembershipArgs) (registerMembershipReply, error) {
	if args.CardType == "sessions" && (args.SessionsTotal == nil || *args.SessionsTotal <= 0) {
		return registerMembershipReply{}, fmt.Errorf("sessions_total is required for session cards")
	}

	m := store.Membership{
		CustomerName: args.CustomerName,
		CardType:     args.CardType,
		TotalAmount:  args.TotalAmount,
		Balance:      args.TotalAmount,
		ValidUntil:   midnight(t.now()).AddDate(0, args.ValidMonths, 0),
	}
	if args.CardType == "sessions" {
		m.Balance = 0
		m.SessionsTotal = args.SessionsTotal
		m.SessionsLeft = args.SessionsTotal
	}

	id, err := t.store.SaveMembership(ctx, m)
	if err != nil {
		return registerMembershipReply{}, err
	}
	log.Info().Int64("id", id).Str("customer", args.CustomerName).
		Str("card_type", args.CardType).Msg("membership registered")
	return registerMembershipReply{ID: id, ValidUntil: m.ValidUntil.Format("2006-01-02")}, nil
}

type deductMembershipArgs struct {
	CustomerName string   `json:"customer_name" desc:"Name of the card holder"`
	Amount       *float64 `json:"amount" desc:"Amount to deduct from a value card"`
	Sessions     *int     `json:"sessions" desc:"Sessions to deduct from a session card"`
}

type deductMembershipReply struct {
	MembershipID int64    `json:"membership_id"`
	Balance      *float64 `json:"balance,omitempty"`
	SessionsLeft *int     `json:"sessions_left,omitempty"`
}

func (t *Toolset) deductMembership(ctx context.Context, args deductMembershipArgs) (deductMembershipReply, error) {
	m, err := t.store.MembershipByCustomer(ctx, args.CustomerName)
	if err != nil {
		return deductMembershipReply{}, err
	}

	switch m.CardType {
	case "sessions":
		n := 1
		if args.Sessions != nil {
			n = *args.Sessions
		}
		left, err := t.store.DeductSessions(ctx, m.ID, n)
		if err != nil {
			return deductMembershipReply{}, err
		}
		log.Info().Int64("membership", m.ID).Int("sessions", n).Msg("sessions deducted")
		return deductMembershipReply{MembershipID: m.ID, SessionsLeft: &left}, nil
	default:
		if args.Amount == nil || *args.Amount <= 0 {
			return deductMembershipReply{}, fmt.Errorf("amount is required for value cards")
		}
		balance, err := t.store.DeductBalance(ctx, m.ID, *args.Amount)
		if err != nil {
			return deductMembershipReply{}, err
		}
		log.Info().Int64("membership", m.ID).Float64("amount", *args.Amount).Msg("balance deducted")
		return deductMembershipReply{MembershipID: m.ID, Balance: &balance}, nil
	}
}

type expiringMembershipsArgs struct {
	Days int `json:"days" desc:"Look-ahead window in days" default:"7"`
}

type expiringMembershipsReply struct {
	Days        int                `json:"days"`
	Memberships []store.Membership `json:"memberships"`
}

func (t *Toolset) listExpiringMemberships(ctx context.Context, args expiringMembershipsArgs) (expiringMembershipsReply, error) {
	days := args.Days
	if days <= 0 {
		days = t.cfg.ExpiryReminderDays
	}
	out, err := t.store.ExpiringMemberships(ctx, days)
	if err != nil {
		return expiringMembershipsReply{}, err
	}
	return expiringMembershipsReply{Days: days, Memberships: out}, nil
}
