package performance

import "github.com/shopspring/decimal"

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// Round1Ptr rounds an optional value, preserving nil.
func Round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round1(*v)
	return &r
}
