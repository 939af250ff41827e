package tools

import (
	"context"

	"github.com/storepilot/storepilot/internal/store"
)

type dailySummaryArgs struct {
	Date string `json:"date" desc:"Business day to summarize" default:"today"`
}

func (t *Toolset) getDailySummary(ctx context.Context, args dailySummaryArgs) (store.Summary, error) {
	day, err := t.parseDate(args.Date)
	if err != nil {
		return store.Summary{}, err
	}
	return t.store.DailySummary(ctx, day)
}
