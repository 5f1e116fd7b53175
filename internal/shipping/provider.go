// Package shipping quotes ranked delivery options for a destination and a
// cart profile. Quoting is side-effect free and cheap, so the client may call
// it repeatedly (debounced on its side) while the shopper edits the address.
package shipping

import (
	"errors"
	"sort"
)

type Destination struct {
	Country    string `json:"country"`
	State      string `json:"state,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type Item struct {
	ProductID   string `json:"product_id"`
	Qty         int    `json:"qty"`
	WeightGrams int    `json:"weight_grams,omitempty"`
}

type Option struct {
	Carrier         string `json:"carrier"`
	Service         string `json:"service"`
	CostCents       int64  `json:"cost_cents"`
	EstimateDaysMin int    `json:"estimate_days_min"`
	EstimateDaysMax int    `json:"estimate_days_max"`
}

var (
	ErrUnsupportedDestination = errors.New("destination not supported")
	ErrIncompleteInput        = errors.New("incomplete shipping input")
)

// defaultItemGrams is assumed when a cart line carries no weight.
const defaultItemGrams = 350

type serviceRate struct {
	carrier   string
	service   string
	baseCents int64
	perItem   int64
	perKg     int64
	daysMin   int
	daysMax   int
}

// RateProvider quotes from a static per-country zone table.
type RateProvider struct {
	zones map[string][]serviceRate
}

func NewRateProvider() *RateProvider {
	return &RateProvider{zones: map[string][]serviceRate{
		"NG": {
			{carrier: "GIG Logistics", service: "Standard", baseCents: 150000, perItem: 20000, perKg: 30000, daysMin: 2, daysMax: 5},
			{carrier: "GIG Logistics", service: "Express", baseCents: 350000, perItem: 25000, perKg: 40000, daysMin: 1, daysMax: 2},
			{carrier: "Kwik", service: "Same City", baseCents: 120000, perItem: 15000, perKg: 20000, daysMin: 1, daysMax: 3},
		},
		"GH": {
			{carrier: "DHL", service: "West Africa", baseCents: 900000, perItem: 50000, perKg: 120000, daysMin: 3, daysMax: 7},
		},
		"KE": {
			{carrier: "DHL", service: "East Africa", baseCents: 1100000, perItem: 50000, perKg: 130000, daysMin: 4, daysMax: 8},
		},
		"US": {
			{carrier: "DHL", service: "International Express", baseCents: 2500000, perItem: 80000, perKg: 200000, daysMin: 5, daysMax: 10},
			{carrier: "UPS", service: "Worldwide Saver", baseCents: 2200000, perItem: 90000, perKg: 220000, daysMin: 6, daysMax: 12},
		},
		"GB": {
			{carrier: "DHL", service: "International Express", baseCents: 2300000, perItem: 80000, perKg: 190000, daysMin: 5, daysMax: 9},
		},
	}}
}

// Quote returns options ascending by cost, or an empty list with a reason
// when the destination is unsupported or inputs are incomplete.
func (p *RateProvider) Quote(dest Destination, items []Item) ([]Option, error) {
	if dest.Country == "" || len(items) == 0 {
		return nil, ErrIncompleteInput
	}
	totalQty := 0
	totalGrams := 0
	for _, it := range items {
		if it.Qty <= 0 {
			return nil, ErrIncompleteInput
		}
		totalQty += it.Qty
		grams := it.WeightGrams
		if grams <= 0 {
			grams = defaultItemGrams
		}
		totalGrams += grams * it.Qty
	}

	rates, ok := p.zones[dest.Country]
	if !ok {
		return nil, ErrUnsupportedDestination
	}

	kgRoundedUp := int64((totalGrams + 999) / 1000)
	out := make([]Option, 0, len(rates))
	for _, r := range rates {
		out = append(out, Option{
			Carrier:         r.carrier,
			Service:         r.service,
			CostCents:       r.baseCents + r.perItem*int64(totalQty) + r.perKg*kgRoundedUp,
			EstimateDaysMin: r.daysMin,
			EstimateDaysMax: r.daysMax,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CostCents < out[j].CostCents })
	return out, nil
}
