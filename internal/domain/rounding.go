package domain

import "github.com/shopspring/decimal"

var precisionTable = map[UnitGroup]int32{
	GroupCount:  0,
	GroupMass:   3,
	GroupVolume: 3,
}

// Precision is the number of decimals kept for quantities in u.
func Precision(u Unit) int32 {
	if p, ok := precisionTable[u.Group()]; ok {
		return p
	}
	return 3
}

// Round rounds qty half away from zero to the precision of u.
func Round(qty float64, u Unit) float64 {
	return decimal.NewFromFloat(qty).Round(Precision(u)).InexactFloat64()
}

// AddRounded returns Round(a+b, u) computed in decimal arithmetic.
func AddRounded(a, b float64, u Unit) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(Precision(u)).InexactFloat64()
}
