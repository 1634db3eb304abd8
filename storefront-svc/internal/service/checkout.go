package service

import (
	"github.com/shopspring/decimal"

	"storefront/storefront-svc/internal/domain"
)

// Policy holds the checkout pricing rules. The delivery fee is waived when the
// subtotal is strictly above FreeDeliveryThreshold; a zero threshold disables
// the waiver.
type Policy struct {
	TaxRate               float64
	DeliveryFee           float64
	FreeDeliveryThreshold float64
}

func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               0.08,
		DeliveryFee:           3.99,
		FreeDeliveryThreshold: 50,
	}
}

type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) Calculator {
	return Calculator{policy: policy}
}

func (c Calculator) Policy() Policy {
	return c.policy
}

func (c Calculator) Subtotal(items []domain.LineItem) float64 {
	return subtotal(items).InexactFloat64()
}

func (c Calculator) Tax(subtotal float64) float64 {
	return c.tax(decimal.NewFromFloat(subtotal)).InexactFloat64()
}

func (c Calculator) DeliveryFee(subtotal float64) float64 {
	return c.deliveryFee(decimal.NewFromFloat(subtotal)).InexactFloat64()
}

// Breakdown derives every checkout amount from the line items. Amounts are not
// rounded; use Round2 before persisting one.
func (c Calculator) Breakdown(items []domain.LineItem) domain.Breakdown {
	sub := subtotal(items)
	tax := c.tax(sub)
	fee := decimal.Zero
	if len(items) > 0 {
		fee = c.deliveryFee(sub)
	}

	return domain.Breakdown{
		Subtotal:    sub.InexactFloat64(),
		Tax:         tax.InexactFloat64(),
		DeliveryFee: fee.InexactFloat64(),
		Total:       sub.Add(tax).Add(fee).InexactFloat64(),
	}
}

func (c Calculator) tax(sub decimal.Decimal) decimal.Decimal {
	return sub.Mul(decimal.NewFromFloat(c.policy.TaxRate))
}

func (c Calculator) deliveryFee(sub decimal.Decimal) decimal.Decimal {
	threshold := decimal.NewFromFloat(c.policy.FreeDeliveryThreshold)
	if c.policy.FreeDeliveryThreshold > 0 && sub.GreaterThan(threshold) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(c.policy.DeliveryFee)
}

// Round2 rounds half away from zero to two decimals, which is half-up for
// the non-negative amounts a cart produces.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func subtotal(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}
