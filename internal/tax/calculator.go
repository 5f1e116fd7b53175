// Package tax computes jurisdiction tax over the taxable base
// (subtotal + shipping). Unknown jurisdictions are legitimately zero-rated
// rather than an error.
package tax

import "strings"

type Result struct {
	AmountCents    int64  `json:"amount_cents"`
	RateDescriptor string `json:"rate_descriptor,omitempty"`
}

type rate struct {
	bps        int64 // basis points; 750 = 7.5%
	descriptor string
}

// Calculator is a pure function of jurisdiction and base. Country-level rates
// apply unless a country:state entry overrides them.
type Calculator struct {
	rates map[string]rate
}

func NewCalculator() *Calculator {
	return &Calculator{rates: map[string]rate{
		"NG":    {bps: 750, descriptor: "VAT 7.5% (NG)"},
		"GH":    {bps: 1500, descriptor: "VAT 15% (GH)"},
		"KE":    {bps: 1600, descriptor: "VAT 16% (KE)"},
		"GB":    {bps: 2000, descriptor: "VAT 20% (UK)"},
		"US:CA": {bps: 725, descriptor: "Sales tax 7.25% (US-CA)"},
		"US:NY": {bps: 400, descriptor: "Sales tax 4% (US-NY)"},
		"US:TX": {bps: 625, descriptor: "Sales tax 6.25% (US-TX)"},
	}}
}

func (c *Calculator) Compute(subtotalCents, shippingCents int64, country, state string) Result {
	country = strings.ToUpper(strings.TrimSpace(country))
	state = strings.ToUpper(strings.TrimSpace(state))

	r, ok := c.rates[country+":"+state]
	if !ok {
		r, ok = c.rates[country]
	}
	if !ok {
		return Result{}
	}
	base := subtotalCents + shippingCents
	return Result{
		AmountCents:    base * r.bps / 10000,
		RateDescriptor: r.descriptor,
	}
}
