package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a measuring unit a lot or consumption item is expressed in.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLitre      Unit = "L"
	UnitMillilitre Unit = "mL"
	UnitCount      Unit = "unit"
)

// UnitGroup is a set of units interconvertible without semantic loss.
type UnitGroup string

const (
	GroupMass   UnitGroup = "mass"
	GroupVolume UnitGroup = "volume"
	GroupCount  UnitGroup = "count"
)

type unitSpec struct {
	group UnitGroup
	// factor converts one of this unit into the group base unit (g, mL, unit)
	factor decimal.Decimal
}

var unitTable = map[Unit]unitSpec{
	UnitKilogram:   {group: GroupMass, factor: decimal.NewFromInt(1000)},
	UnitGram:       {group: GroupMass, factor: decimal.NewFromInt(1)},
	UnitLitre:      {group: GroupVolume, factor: decimal.NewFromInt(1000)},
	UnitMillilitre: {group: GroupVolume, factor: decimal.NewFromInt(1)},
	UnitCount:      {group: GroupCount, factor: decimal.NewFromInt(1)},
}

// Units lists every supported unit.
func Units() []Unit {
	return []Unit{UnitKilogram, UnitGram, UnitLitre, UnitMillilitre, UnitCount}
}

// ParseUnit accepts the canonical spelling and a few case variants ("l", "ml", "KG").
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.TrimSpace(s))
	if _, ok := unitTable[u]; ok {
		return u, nil
	}
	switch strings.ToLower(string(u)) {
	case "kg":
		return UnitKilogram, nil
	case "g":
		return UnitGram, nil
	case "l":
		return UnitLitre, nil
	case "ml":
		return UnitMillilitre, nil
	case "unit", "units":
		return UnitCount, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// IsValid reports whether u is a supported unit
func (u Unit) IsValid() bool {
	_, ok := unitTable[u]
	return ok
}

// Group returns the conversion group of u, or "" for unknown units.
func (u Unit) Group() UnitGroup {
	return unitTable[u].group
}

// Compatible reports whether a and b belong to the same conversion group.
func Compatible(a, b Unit) bool {
	sa, okA := unitTable[a]
	sb, okB := unitTable[b]
	return okA && okB && sa.group == sb.group
}

// Convert expresses qty (in from) in unit to. Units of different groups yield a
// *UnitIncompatibilityError without a lot id; callers that know the lot fill it in.
func Convert(qty float64, from, to Unit) (float64, error) {
	if !from.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, from)
	}
	if !to.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, to)
	}
	if !Compatible(from, to) {
		return 0, &UnitIncompatibilityError{LotUnit: to, ItemUnit: from}
	}
	if from == to {
		return qty, nil
	}

	base := decimal.NewFromFloat(qty).Mul(unitTable[from].factor)
	return base.Div(unitTable[to].factor).InexactFloat64(), nil
}
