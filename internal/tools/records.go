package tools

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/store"
)

type serviceIncomeArgs struct {
	CustomerName    string  `json:"customer_name" desc:"Name of the customer served"`
	ServiceType     string  `json:"service_type" desc:"Kind of service, e.g. massage, moxibustion, haircut"`
	Amount          float64 `json:"amount" desc:"Amount charged for the service"`
	TherapistName   *string `json:"therapist_name" desc:"Therapist who performed the service"`
	DurationMinutes *int    `json:"duration_minutes" desc:"Service duration in minutes"`
	Date            string  `json:"date" desc:"Business day of the service" default:"today"`
	Notes           *string `json:"notes" desc:"Free-form notes"`
}

type serviceIncomeReply struct {
	ID         int64   `json:"id"`
	Commission float64 `json:"commission"`
	Date       string  `json:"date"`
}

func (t *Toolset) recordServiceIncome(ctx context.Context, args serviceIncomeArgs) (serviceIncomeReply, error) {
	day, err := t.parseDate(args.Date)
	if err != nil {
		return serviceIncomeReply{}, err
	}

	var commission float64
	if args.TherapistName != nil && *args.TherapistName != "" {
		commission = args.Amount * t.cfg.CommissionRate(*args.TherapistName)
	}

	id, err := t.store.SaveServiceRecord(ctx, store.ServiceRecord{
		CustomerName:    args.CustomerName,
		ServiceType:     args.ServiceType,
		Amount:          args.Amount,
		TherapistName:   args.TherapistName,
		Commission:      commission,
		DurationMinutes: args.DurationMinutes,
		RecordDate:      day,
		Notes:           args.Notes,
	})
	if err != nil {
		return serviceIncomeReply{}, err
	}
	log.Info().Int64("id", id).Str("service", args.ServiceType).
		Float64("amount", args.Amount).Msg("service income recorded")
	return serviceIncomeReply{ID: id, Commission: commission, Date: day.Format("2006-01-02")}, nil
}

type productSaleArgs struct {
	ProductName  string  `json:"product_name" desc:"Name of the product sold"`
	Quantity     int     `json:"quantity" desc:"Units sold"`
	UnitPrice    float64 `json:"unit_price" desc:"Price per unit"`
	CustomerName *string `json:"customer_name" desc:"Buyer, if known"`
	Date         string  `json:"date" desc:"Business day of the sale" default:"today"`
}

type productSaleReply struct {
	ID    int64   `json:"id"`
	Total float64 `json:"total"`
	Date  string  `json:"date"`
}

func (t *Toolset) recordProductSale(ctx context.Context, args productSaleArgs) (productSaleReply, error) {
	day, err := t.parseDate(args.Date)
	if err != nil {
		return productSaleReply{}, err
	}

	sale := store.ProductSale{
		CustomerName: args.CustomerName,
		ProductName:  args.ProductName,
		Quantity:     args.Quantity,
		UnitPrice:    args.UnitPrice,
		RecordDate:   day,
	}
	id, err := t.store.SaveProductSale(ctx, sale)
	if err != nil {
		return productSaleReply{}, err
	}
	log.Info().Int64("id", id).Str("product", args.ProductName).
		Int("quantity", args.Quantity).Msg("product sale recorded")
	return productSaleReply{ID: id, Total: sale.LineTotal(), Date: day.Format("2006-01-02")}, nil
}

type recordsByDateArgs struct {
	Date string `json:"date" desc:"Business day to list" default:"today"`
}

type recordsByDateReply struct {
	Date     string                `json:"date"`
	Services []store.ServiceRecord `json:"services"`
	Sales    []store.ProductSale   `json:"sales"`
}

func (t *Toolset) getRecordsByDate(ctx context.Context, args recordsByDateArgs) (recordsByDateReply, error) {
	day, err := t.parseDate(args.Date)
	if err != nil {
		return recordsByDateReply{}, err
	}
	services, err := t.store.ServiceRecordsByDate(ctx, day)
	if err != nil {
		return recordsByDateReply{}, err
	}
	sales, err := t.store.ProductSalesByDate(ctx, day)
	if err != nil {
		return recordsByDateReply{}, err
	}
	return recordsByDateReply{Date: day.Format("2006-01-02"), Services: services, Sales: sales}, nil
}
