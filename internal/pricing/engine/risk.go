package engine

import (
	"fmt"

	"cpq-workers/internal/pricing/rates"
)

// riskLineItems converts the selected risk flags into surcharge lines over
// the pre-risk modeling subtotal. One line per flag keeps the quote
// auditable; surcharges are additive across flags, not compounding. Risk
// premiums are pure margin, so they carry no vendor cost.
func riskLineItems(table rates.Table, risks []string, modelingSubtotal float64) []LineItem {
	items := make([]LineItem, 0, len(risks))
	for _, flag := range risks {
		pct, ok := table.RiskPercent(flag)
		if !ok {
			// Unknown flags are rejected during validation.
			continue
		}
		premium := roundCents(modelingSubtotal * pct / 100)
		items = append(items, LineItem{
			ID:          "risk-" + flag,
			Label:       fmt.Sprintf("Risk premium: %s (%.0f%%)", flag, pct),
			Category:    CategoryRisk,
			ClientPrice: premium,
			UpteamCost:  0,
			Detail: map[string]interface{}{
				"flag":      flag,
				"percent":   pct,
				"baseValue": modelingSubtotal,
			},
		})
	}
	return items
}
