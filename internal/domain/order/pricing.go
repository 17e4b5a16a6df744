package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// PricingPolicy is the single trust boundary for client-submitted prices.
// The platform currently accepts the cart snapshot as the customer saw it;
// swapping this implementation for one that re-reads menu prices tightens
// the policy without touching the rest of the writer.
type PricingPolicy interface {
	// Check validates the line prices and the declared total. A non-nil
	// error rejects the order as invalid input.
	Check(ctx context.Context, items []Item, declaredTotal decimal.Decimal) error
}

// TrustClientPricing keeps the client's per-item prices as the order
// snapshot and only verifies internal consistency: the declared total must
// equal the sum of the submitted lines.
type TrustClientPricing struct{}

var _ PricingPolicy = TrustClientPricing{}

// Check implements PricingPolicy.
func (TrustClientPricing) Check(_ context.Context, items []Item, declaredTotal decimal.Decimal) error {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !sum.Round(2).Equal(declaredTotal.Round(2)) {
		return errors.Errorf("declared total %s does not match item sum %s",
			declaredTotal.StringFixed(2), sum.StringFixed(2))
	}
	return nil
}
