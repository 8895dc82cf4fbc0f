package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFee(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		want        int64
	}{
		{
			name:        "free event still pays processor overhead",
			amountCents: 0,
			// base 1500, gross 1543.5 + 2500
			want: 4044,
		},
		{
			name:        "first band reference price",
			amountCents: 4000,
			want:        4160,
		},
		{
			name:        "first band upper bound",
			amountCents: 5000,
			// base 6500, gross 6688.5 + 2500, minus price
			want: 4189,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fee(tt.amountCents))
		})
	}
}

// The markup curve must not jump at band boundaries: the fee one cent past
// a boundary stays within rounding distance of the fee at the boundary.
func TestFeeContinuityAtBandBoundaries(t *testing.T) {
	boundaries := []int64{5000, 15000, 30000, 50000}

	for _, b := range boundaries {
		below := Fee(b)
		above := Fee(b + 1)
		diff := above - below
		assert.True(t, diff >= 0 && diff <= 2,
			"fee jumps at %d cents: %d -> %d", b, below, above)
	}
}

func TestFeeMonotonic(t *testing.T) {
	prev := Fee(0)
	for amount := int64(100); amount <= 100000; amount += 100 {
		fee := Fee(amount)
		assert.GreaterOrEqual(t, fee, prev, "fee decreased at %d cents", amount)
		prev = fee
	}
}

func TestQuoteFee(t *testing.T) {
	tests := []struct {
		name            string
		amountCents     int64
		points          int64
		pointValueCents int64
		wantConsumed    int64
		wantDiscount    bool
	}{
		{
			name:            "no points means full fee",
			amountCents:     4000,
			points:          0,
			pointValueCents: 1,
			wantConsumed:    0,
		},
		{
			name:            "points disabled means full fee",
			amountCents:     4000,
			points:          500,
			pointValueCents: 0,
			wantConsumed:    0,
		},
		{
			name:            "small balance is consumed entirely",
			amountCents:     4000,
			points:          50,
			pointValueCents: 1,
			wantConsumed:    50,
			wantDiscount:    true,
		},
		{
			name:            "consumption is capped at the platform margin",
			amountCents:     4000,
			points:          1000000,
			pointValueCents: 1,
			wantConsumed:    1500, // margin for the first band is the fixed 1500 cents
			wantDiscount:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := QuoteFee(tt.amountCents, tt.points, tt.pointValueCents)

			assert.Equal(t, tt.wantConsumed, quote.PointsConsumed)
			if tt.wantDiscount {
				assert.Positive(t, quote.DiscountCents)
				assert.Less(t, quote.FeeCents, Fee(tt.amountCents))
			} else {
				assert.Zero(t, quote.DiscountCents)
				assert.Equal(t, Fee(tt.amountCents), quote.FeeCents)
			}
		})
	}
}

// Even an unbounded point balance never pushes the fee below what the
// payment processor costs the platform.
func TestQuoteFeeFloorsAtProcessorFee(t *testing.T) {
	for _, amount := range []int64{0, 4000, 15000, 80000} {
		quote := QuoteFee(amount, 1<<40, 1)

		// processor-only fee: price*1.029 + 2500 minus price
		processorFee := roundDiv(amount*1000*processorMult+processorFixedCents*1000*1000-amount*1000*1000, 1000*1000)
		require.GreaterOrEqual(t, quote.FeeCents, processorFee, "amount %d", amount)
	}
}

func TestPurchasePoints(t *testing.T) {
	assert.Equal(t, int64(0), PurchasePoints(99))
	assert.Equal(t, int64(1), PurchasePoints(100))
	assert.Equal(t, int64(74), PurchasePoints(7460))
}
