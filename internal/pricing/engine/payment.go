package engine

import (
	"fmt"

	"cpq-workers/internal/pricing/rates"
)

// paymentLineItem applies the selected term's signed percentage to the
// running client subtotal (modeling + travel + risk + services). Zero-percent
// terms produce no line; discount terms produce a negative one. Premiums and
// discounts carry no vendor cost.
func paymentLineItem(table rates.Table, term string, runningSubtotal float64) (LineItem, bool) {
	if term == "" {
		term = string(rates.PaymentStandard)
	}

	pct, ok := table.PaymentPercent(rates.PaymentTerm(term))
	if !ok || pct == 0 {
		return LineItem{}, false
	}

	amount := roundCents(runningSubtotal * pct / 100)
	label := fmt.Sprintf("Payment term premium: %s (+%.0f%%)", term, pct)
	if pct < 0 {
		label = fmt.Sprintf("Payment term discount: %s (%.0f%%)", term, pct)
	}

	return LineItem{
		ID:          "paymentPremium",
		Label:       label,
		Category:    CategoryPaymentPremium,
		ClientPrice: amount,
		UpteamCost:  0,
		Detail: map[string]interface{}{
			"term":      term,
			"percent":   pct,
			"baseValue": runningSubtotal,
		},
	}, true
}
