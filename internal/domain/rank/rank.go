// Package rank defines the tier/division scale and maps a rank to a skill value.
package rank

import (
	"fmt"
	"strings"
)

// Tier is one of the ten ranked categories, ordered lowest to highest.
type Tier string

// Tier values in ascending order of strength.
const (
	Unranked    Tier = "UNRANKED"
	Iron        Tier = "IRON"
	Bronze      Tier = "BRONZE"
	Silver      Tier = "SILVER"
	Gold        Tier = "GOLD"
	Platinum    Tier = "PLATINUM"
	Diamond     Tier = "DIAMOND"
	Master      Tier = "MASTER"
	Grandmaster Tier = "GRANDMASTER"
	Challenger  Tier = "CHALLENGER"
)

// Division is a sub-level inside a tier. The empty Division means "none".
type Division string

// Division values from weakest to strongest.
const (
	NoDivision  Division = ""
	DivisionIV  Division = "IV"
	DivisionIII Division = "III"
	DivisionII  Division = "II"
	DivisionI   Division = "I"
)

// noneLiteral is accepted on input as an explicit "no division".
const noneLiteral = "NONE"

var tierOrder = []Tier{
	Unranked, Iron, Bronze, Silver, Gold, Platinum, Diamond, Master, Grandmaster, Challenger,
}

var divisionOrder = []Division{DivisionIV, DivisionIII, DivisionII, DivisionI}

// Tiers returns the tier scale in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder)
	return out
}

// Divisions returns the division scale from IV to I.
func Divisions() []Division {
	out := make([]Division, len(divisionOrder))
	copy(out, divisionOrder)
	return out
}

// Index returns the tier's position on the scale, or -1 for an unknown tier.
func (t Tier) Index() int {
	for i, v := range tierOrder {
		if v == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is on the scale.
func (t Tier) Valid() bool { return t.Index() >= 0 }

// HasDivisions reports whether the tier carries a division.
// UNRANKED, MASTER, GRANDMASTER and CHALLENGER never do.
func (t Tier) HasDivisions() bool {
	switch t {
	case Unranked, Master, Grandmaster, Challenger:
		return false
	}
	return t.Valid()
}

// Ordinal returns 0 for IV through 3 for I, or -1 for none/invalid.
func (d Division) Ordinal() int {
	for i, v := range divisionOrder {
		if v == d {
			return i
		}
	}
	return -1
}

// ParseTier normalizes s and checks it against the scale.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// ParseDivision normalizes a division for tier t. Tiers without divisions
// always get NoDivision; "" and "NONE" mean no division.
func ParseDivision(t Tier, s string) (Division, error) {
	if !t.HasDivisions() {
		return NoDivision, nil
	}
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" || v == noneLiteral {
		return NoDivision, nil
	}
	d := Division(v)
	if d.Ordinal() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownDivision, s)
	}
	return d, nil
}
