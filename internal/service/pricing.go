package service

import "math"

// Platform pricing works on integer cents with exact rational arithmetic.
// Each price band applies a markup over the base amount; the multipliers
// and fixed additions are chosen so the markup curve is continuous at the
// band boundaries. On top of that sits the processor overhead.

type feeBand struct {
	upperCents int64 // inclusive upper bound of the band
	mult       int64 // markup multiplier, scaled x1000
	addCents   int64 // fixed markup addition in cents
}

var feeBands = []feeBand{
	{5000, 1000, 1500},
	{15000, 1060, 1200},
	{30000, 1050, 1350},
	{50000, 1040, 1650},
	{math.MaxInt64, 1035, 1900},
}

const (
	processorMult       = 1029 // x1000
	processorFixedCents = 2500
)

func bandFor(amountCents int64) feeBand {
	for _, b := range feeBands {
		if amountCents <= b.upperCents {
			return b
		}
	}
	return feeBands[len(feeBands)-1]
}

// baseNum returns the marked-up base amount as a numerator over 1000.
func baseNum(amountCents int64) int64 {
	b := bandFor(amountCents)
	return amountCents*b.mult + b.addCents*1000
}

// roundDiv divides num by denom rounding half away from zero.
func roundDiv(num, denom int64) int64 {
	if num >= 0 {
		return (num + denom/2) / denom
	}
	return -((-num + denom/2) / denom)
}

// feeFromBase applies the processor overhead to a marked-up base
// (numerator over 1000) and returns the fee in whole cents.
func feeFromBase(amountCents, base int64) int64 {
	// gross = base*1.029 + 2500, tracked as a numerator over 1e6
	grossNum := base*processorMult + processorFixedCents*1000*1000
	return roundDiv(grossNum-amountCents*1000*1000, 1000*1000)
}

// Fee returns the platform fee in cents charged on top of the event price.
func Fee(amountCents int64) int64 {
	return feeFromBase(amountCents, baseNum(amountCents))
}

// FeeQuote is the outcome of pricing one enrollment.
type FeeQuote struct {
	FeeCents       int64 // fee after discount
	DiscountCents  int64 // value knocked off the undiscounted fee
	PointsConsumed int64
}

// QuoteFee prices an enrollment for an attendee holding eventpoints.
// Points reduce the platform margin (marked-up base minus the raw price);
// the margin floors at zero, so the discounted fee never drops below the
// processor-only fee.
func QuoteFee(amountCents, points, pointValueCents int64) FeeQuote {
	fullFee := Fee(amountCents)
	if points <= 0 || pointValueCents <= 0 {
		return FeeQuote{FeeCents: fullFee}
	}

	base := baseNum(amountCents)
	marginCents := (base - amountCents*1000) / 1000
	if marginCents <= 0 {
		return FeeQuote{FeeCents: fullFee}
	}

	usableValue := points * pointValueCents
	if usableValue > marginCents {
		usableValue = marginCents
	}
	pointsConsumed := usableValue / pointValueCents
	usableValue = pointsConsumed * pointValueCents
	if pointsConsumed == 0 {
		return FeeQuote{FeeCents: fullFee}
	}

	discountedFee := feeFromBase(amountCents, base-usableValue*1000)
	return FeeQuote{
		FeeCents:       discountedFee,
		DiscountCents:  fullFee - discountedFee,
		PointsConsumed: pointsConsumed,
	}
}

// PurchasePoints returns the loyalty points earned on a paid amount:
// one point per whole currency unit.
func PurchasePoints(amountCents int64) int64 {
	return amountCents / 100
}
