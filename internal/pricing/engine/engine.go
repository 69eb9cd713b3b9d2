package engine

import (
	"math"
	"time"

	"cpq-workers/internal/pricing/rates"
)

// Options tunes assembler behavior. The zero value is usable: even bucket
// splitting, warn-only guardrails, wall-clock timestamps.
type Options struct {
	// AutoAdjust switches the guardrail from warning to correcting: modeling
	// prices are raised to meet the margin target instead of emitting
	// BELOW_GUARDRAIL.
	AutoAdjust bool
	Weighting  BucketWeighting
	Now        func() time.Time
}

// Engine assembles quotes against one immutable rate table snapshot. It holds
// no per-request state, so one Engine serves concurrent calculations without
// locking.
type Engine struct {
	table rates.Table
	opts  Options
}

func New(table rates.Table, opts Options) *Engine {
	if opts.Weighting == nil {
		opts.Weighting = EvenSplit{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{table: table, opts: opts}
}

// Calculate validates the request and assembles the full quote. On
// validation failure it returns a *ValidationError and no partial price.
func (e *Engine) Calculate(req *Request) (*Result, error) {
	if verr := validate(e.table, req); verr != nil {
		return nil, verr
	}

	table := e.table
	target := table.MarginBand.Min
	if req.MarginTarget != nil {
		target = *req.MarginTarget
	}

	// Modeling lines: Tier-A package above the threshold, per-sqft rate path
	// at or below it.
	var disciplineItems []LineItem
	if isTierA(table, req.Areas) {
		disciplineItems = []LineItem{tierALineItem(table, req.Areas, req.TierA)}
	} else {
		var err error
		disciplineItems, err = areaLineItems(table, req.Areas, target, e.opts.Weighting)
		if err != nil {
			verr := &ValidationError{}
			verr.addForm(err.Error())
			return nil, verr
		}
	}

	travelItem, hasTravel := travelLineItem(table, req.Travel)

	modelingClient := sumClient(disciplineItems)
	riskItems := riskLineItems(table, dedupeRisks(req.Risks), modelingClient)

	totalSqft := totalSquareFeet(req.Areas)
	serviceItems := serviceLineItems(table, req.Services, totalSqft)

	running := modelingClient + sumClient(riskItems) + sumClient(serviceItems)
	if hasTravel {
		running += travelItem.ClientPrice
	}
	paymentItem, hasPayment := paymentLineItem(table, req.PaymentTerm, roundCents(running))

	items := make([]LineItem, 0, len(disciplineItems)+len(riskItems)+len(serviceItems)+2)
	items = append(items, disciplineItems...)
	if hasTravel {
		items = append(items, travelItem)
	}
	items = append(items, riskItems...)
	items = append(items, serviceItems...)
	if hasPayment {
		items = append(items, paymentItem)
	}

	totalClient := sumClient(items)
	totalVendor := sumVendor(items)

	verdict := evaluateGuardrail(totalClient, totalVendor, target, table.MarginFloor,
		e.opts.AutoAdjust, sumClient(disciplineItems))

	if verdict.adjustFactor != 1 {
		for i := range items {
			if items[i].Category == CategoryDiscipline {
				items[i].ClientPrice = ceilCents(items[i].ClientPrice * verdict.adjustFactor)
				if items[i].Detail == nil {
					items[i].Detail = map[string]interface{}{}
				}
				items[i].Detail["marginAdjusted"] = true
			}
		}
		totalClient = sumClient(items)
		totalVendor = sumVendor(items)
	}

	result := e.assemble(req, items, hasTravel, travelItem, riskItems, serviceItems, hasPayment, paymentItem, target, verdict)
	return result, nil
}

func (e *Engine) assemble(req *Request, items []LineItem, hasTravel bool, travelItem LineItem,
	riskItems, serviceItems []LineItem, hasPayment bool, paymentItem LineItem,
	target float64, verdict guardrailVerdict) *Result {

	subtotals := Subtotals{
		RiskPremiums: roundCents(sumClient(riskItems)),
		Services:     roundCents(sumClient(serviceItems)),
	}
	areaSubtotals := map[string]float64{}
	for _, item := range items {
		if item.Category != CategoryDiscipline {
			continue
		}
		subtotals.Modeling = roundCents(subtotals.Modeling + item.ClientPrice)
		if label, ok := item.Detail["area"].(string); ok {
			areaSubtotals[label] = roundCents(areaSubtotals[label] + item.ClientPrice)
		}
	}
	if hasTravel {
		subtotals.Travel = travelItem.ClientPrice
	}
	if hasPayment {
		subtotals.PaymentPremium = paymentItem.ClientPrice
	}
	if len(areaSubtotals) == 0 {
		areaSubtotals = nil
	}

	totalClient := sumClient(items)
	totalVendor := sumVendor(items)
	grossMargin := roundCents(totalClient - totalVendor)
	grossMarginPercent := 0.0
	if totalClient > 0 {
		grossMarginPercent = grossMargin / totalClient * 100
	}

	items = append(items,
		subtotalItem("subtotal-modeling", "Modeling subtotal", subtotals.Modeling),
		subtotalItem("subtotal-travel", "Travel subtotal", subtotals.Travel),
		subtotalItem("subtotal-riskPremiums", "Risk premium subtotal", subtotals.RiskPremiums),
		subtotalItem("subtotal-services", "Services subtotal", subtotals.Services),
		subtotalItem("subtotal-paymentPremium", "Payment premium subtotal", subtotals.PaymentPremium),
		LineItem{
			ID:          "total",
			Label:       "Quote total",
			Category:    CategoryTotal,
			ClientPrice: totalClient,
			UpteamCost:  totalVendor,
		},
	)

	return &Result{
		Success:            true,
		TotalClientPrice:   totalClient,
		TotalUpteamCost:    totalVendor,
		GrossMargin:        grossMargin,
		GrossMarginPercent: grossMarginPercent,
		LineItems:          items,
		Subtotals:          subtotals,
		AreaSubtotals:      areaSubtotals,
		IntegrityStatus:    verdict.status,
		IntegrityFlags:     verdict.flags,
		MarginTarget:       target,
		MarginWarnings:     verdict.warnings,
		CalculatedAt:       e.opts.Now().UTC(),
		EngineVersion:      Version,
	}
}

func subtotalItem(id, label string, value float64) LineItem {
	return LineItem{
		ID:          id,
		Label:       label,
		Category:    CategorySubtotal,
		ClientPrice: value,
	}
}

// sumClient and sumVendor only count priced lines; subtotal and total rollup
// lines are excluded so totals stay exactly additive over the priced items.
func sumClient(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		if item.Category == CategorySubtotal || item.Category == CategoryTotal {
			continue
		}
		sum += item.ClientPrice
	}
	return roundCents(sum)
}

func sumVendor(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		if item.Category == CategorySubtotal || item.Category == CategoryTotal {
			continue
		}
		sum += item.UpteamCost
	}
	return roundCents(sum)
}

// roundCents keeps every stored dollar amount at cent precision. Rounding at
// line-item boundaries keeps totals exactly equal to the sum of their items.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ceilCents rounds a client price up to the next cent. Margin-bearing prices
// must never round below the value that meets the target.
func ceilCents(v float64) float64 {
	return math.Ceil(v*100-1e-9) / 100
}
