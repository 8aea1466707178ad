// Package plan models the subscription plans that gate tenant usage.
package plan

import "github.com/shopspring/decimal"

type Plan struct {
	code          string
	name          string
	monthlyPrice  decimal.Decimal
	maxCustomers  int64
	maxTickets    int64
	maxImportRows int64
}

func New(code, name string, monthlyPrice decimal.Decimal, maxCustomers, maxTickets, maxImportRows int64) Plan {
	return Plan{
		code:          code,
		name:          name,
		monthlyPrice:  monthlyPrice,
		maxCustomers:  maxCustomers,
		maxTickets:    maxTickets,
		maxImportRows: maxImportRows,
	}
}

func (p Plan) Code() string                  { return p.code }
func (p Plan) Name() string                  { return p.name }
func (p Plan) MonthlyPrice() decimal.Decimal { return p.monthlyPrice }

// Limits of 0 or below mean unlimited.
func (p Plan) MaxCustomers() int64  { return p.maxCustomers }
func (p Plan) MaxTickets() int64    { return p.maxTickets }
func (p Plan) MaxImportRows() int64 { return p.maxImportRows }

func (p Plan) IsZero() bool { return p.code == "" }

// Free is the fallback when a tenant has no plan assignment.
func Free() Plan {
	return New("free", "Free", decimal.Zero, 100, 500, 200)
}
