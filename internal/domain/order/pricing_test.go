package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustClientPricing(t *testing.T) {
	policy := TrustClientPricing{}
	items := []Item{
		{MenuItemID: "m1", Quantity: 2, UnitPrice: money("11.50")},
		{MenuItemID: "m2", Quantity: 1, UnitPrice: money("13.00")},
	}

	assert.NoError(t, policy.Check(context.Background(), items, money("36.00")))
	assert.Error(t, policy.Check(context.Background(), items, money("35.99")))

	// Sub-cent differences vanish at the 2-decimal money boundary.
	assert.NoError(t, policy.Check(context.Background(), items, money("36.0001")))
}
