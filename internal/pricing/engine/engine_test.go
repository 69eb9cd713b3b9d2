package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq-workers/internal/pricing/rates"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
}

func newTestEngine(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	return New(rates.Default(), opts)
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// baseRequest is the reference scenario: one 10,000 sqft office area,
// architecture only at LOD 300, no risks, zero-cost local travel, standard
// payment terms, default margin target.
func baseRequest() *Request {
	return &Request{
		LeadID: "lead-001",
		Areas: []Area{{
			Name:           "Main Building",
			BuildingType:   "office",
			SquareFeet:     10000,
			Scope:          ScopeFull,
			Disciplines:    []string{"arch"},
			DisciplineLODs: map[string]string{"arch": "300"},
		}},
		Travel:      &Travel{Mode: TravelLocal},
		PaymentTerm: "standard",
	}
}

func TestCalculateReferenceScenario(t *testing.T) {
	eng := newTestEngine(Options{})

	result, err := eng.Calculate(baseRequest())
	require.NoError(t, err)

	// 10,000 sqft x rate(arch, 300, standard) = 10,000 x 0.12
	assert.Equal(t, 1200.00, result.TotalUpteamCost)
	assert.Equal(t, 1846.16, result.TotalClientPrice)
	assert.Equal(t, IntegrityPass, result.IntegrityStatus)
	assert.Equal(t, 0.35, result.MarginTarget)
	assert.Equal(t, Version, result.EngineVersion)
	assert.Equal(t, fixedNow(), result.CalculatedAt)
	assert.Empty(t, result.MarginWarnings)
	assert.GreaterOrEqual(t, result.GrossMarginPercent, 35.0)
}

func TestTotalsAreAdditiveOverLineItems(t *testing.T) {
	eng := newTestEngine(Options{})

	req := baseRequest()
	req.Areas = append(req.Areas, Area{
		Name:           "Annex",
		BuildingType:   "hospital",
		SquareFeet:     8000,
		Scope:          ScopeMixed,
		Disciplines:    []string{"arch", "mepf", "structure"},
		DisciplineLODs: map[string]string{"mepf": "350"},
		InteriorLOD:    "350",
		ExteriorLOD:    "200",
	})
	req.Risks = []string{"occupied", "fastTrack"}
	req.Travel = &Travel{Mode: TravelRegional, OneWayDistance: 120, PerDiem: 75, ScanDays: 3}
	req.Services = Services{VirtualTour: true, ExtraElevations: 2}
	req.PaymentTerm = "net30"

	result, err := eng.Calculate(req)
	require.NoError(t, err)

	var clientSum, vendorSum float64
	for _, item := range result.LineItems {
		if item.Category == CategorySubtotal || item.Category == CategoryTotal {
			continue
		}
		clientSum += item.ClientPrice
		vendorSum += item.UpteamCost
	}

	assert.InDelta(t, result.TotalClientPrice, clientSum, 0.001)
	assert.InDelta(t, result.TotalUpteamCost, vendorSum, 0.001)
	assert.InDelta(t, result.TotalClientPrice-result.TotalUpteamCost, result.GrossMargin, 0.001)
	assert.InDelta(t, result.GrossMargin/result.TotalClientPrice*100, result.GrossMarginPercent, 0.001)
}

func TestMarginTargetBoundaryIsInclusive(t *testing.T) {
	eng := newTestEngine(Options{})

	tests := []struct {
		name    string
		target  float64
		wantErr bool
	}{
		{name: "band minimum accepted", target: 0.35},
		{name: "band maximum accepted", target: 0.60},
		{name: "below band rejected", target: 0.34, wantErr: true},
		{name: "above band rejected", target: 0.61, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.MarginTarget = floatPtr(tt.target)

			result, err := eng.Calculate(req)
			if tt.wantErr {
				require.Error(t, err)
				verr, ok := err.(*ValidationError)
				require.True(t, ok)
				require.Len(t, verr.FieldErrors, 1)
				assert.Equal(t, "marginTarget", verr.FieldErrors[0].Field)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, result.MarginTarget)
		})
	}
}

func TestTierAPathSwitchesAboveThreshold(t *testing.T) {
	eng := newTestEngine(Options{})

	t.Run("above 50k uses the package path", func(t *testing.T) {
		req := baseRequest()
		req.Areas[0].SquareFeet = 35000
		req.Areas = append(req.Areas, Area{
			Name:        "Tower",
			SquareFeet:  25000,
			Scope:       ScopeFull,
			Disciplines: []string{"arch"},
		})

		result, err := eng.Calculate(req)
		require.NoError(t, err)

		var disciplineItems []LineItem
		for _, item := range result.LineItems {
			if item.Category == CategoryDiscipline {
				disciplineItems = append(disciplineItems, item)
			}
		}
		require.Len(t, disciplineItems, 1)
		assert.Equal(t, true, disciplineItems[0].Detail["tierA"])
		assert.Equal(t, 3500.00, disciplineItems[0].UpteamCost)
		assert.Equal(t, 8232.00, disciplineItems[0].ClientPrice) // 3500 x 2.352
		assert.NotContains(t, disciplineItems[0].Detail, "rate")
	})

	t.Run("exactly 50k stays on the per-sqft path", func(t *testing.T) {
		req := baseRequest()
		req.Areas[0].SquareFeet = 50000

		result, err := eng.Calculate(req)
		require.NoError(t, err)

		for _, item := range result.LineItems {
			if item.Category == CategoryDiscipline {
				assert.Contains(t, item.Detail, "rate")
				assert.NotContains(t, item.Detail, "tierA")
			}
		}
	})

	t.Run("explicit package selection wins over the band default", func(t *testing.T) {
		req := baseRequest()
		req.Areas[0].SquareFeet = 60000
		req.TierA = &TierASelection{ScanCostIndex: intPtr(3), MultiplierIndex: intPtr(4)}

		result, err := eng.Calculate(req)
		require.NoError(t, err)

		item := result.LineItems[0]
		assert.Equal(t, 15000.00, item.UpteamCost)
		assert.Equal(t, 60000.00, item.ClientPrice) // 15000 x 4.0
	})
}

func TestAdditiveRiskPremiums(t *testing.T) {
	eng := newTestEngine(Options{})

	req := baseRequest()
	req.Risks = []string{"occupied", "noPower"}

	result, err := eng.Calculate(req)
	require.NoError(t, err)

	// occupied 15% + noPower 20% = 35% of the pre-risk modeling subtotal,
	// additive across flags.
	assert.InDelta(t, result.Subtotals.Modeling*0.35, result.Subtotals.RiskPremiums, 0.02)

	var riskItems []LineItem
	for _, item := range result.LineItems {
		if item.Category == CategoryRisk {
			riskItems = append(riskItems, item)
		}
	}
	require.Len(t, riskItems, 2)
	for _, item := range riskItems {
		assert.Zero(t, item.UpteamCost, "risk premiums carry no vendor cost")
	}
}

func TestDuplicateRiskFlagsCollapse(t *testing.T) {
	eng := newTestEngine(Options{})

	req := baseRequest()
	req.Risks = []string{"occupied", "occupied", "occupied"}

	result, err := eng.Calculate(req)
	require.NoError(t, err)

	var count int
	for _, item := range result.LineItems {
		if item.Category == CategoryRisk {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeterminism(t *testing.T) {
	eng := newTestEngine(Options{})

	req := baseRequest()
	req.Risks = []string{"security", "remote"}
	req.Services = Services{VirtualTour: true}
	req.PaymentTerm = "net60"

	first, err := eng.Calculate(req)
	require.NoError(t, err)
	second, err := eng.Calculate(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestValidationRejectsBeforeCalculation(t *testing.T) {
	eng := newTestEngine(Options{})

	tests := []struct {
		name      string
		mutate    func(*Request)
		wantField string
		wantForm  bool
	}{
		{
			name:     "no areas",
			mutate:   func(r *Request) { r.Areas = nil },
			wantForm: true,
		},
		{
			name:      "zero square footage",
			mutate:    func(r *Request) { r.Areas[0].SquareFeet = 0 },
			wantField: "areas[0].squareFeet",
		},
		{
			name:      "empty discipline set",
			mutate:    func(r *Request) { r.Areas[0].Disciplines = nil },
			wantField: "areas[0].disciplines",
		},
		{
			name:      "unknown discipline",
			mutate:    func(r *Request) { r.Areas[0].Disciplines = []string{"plumbing"} },
			wantField: "areas[0].disciplines",
		},
		{
			name: "LOD for unselected discipline",
			mutate: func(r *Request) {
				r.Areas[0].DisciplineLODs = map[string]string{"mepf": "300"}
			},
			wantField: "areas[0].disciplineLods",
		},
		{
			name:      "unknown scope",
			mutate:    func(r *Request) { r.Areas[0].Scope = "partial" },
			wantField: "areas[0].scope",
		},
		{
			name:      "unknown risk flag",
			mutate:    func(r *Request) { r.Risks = []string{"asbestos"} },
			wantField: "risks",
		},
		{
			name:      "unknown travel mode",
			mutate:    func(r *Request) { r.Travel.Mode = "teleport" },
			wantField: "travel.mode",
		},
		{
			name:      "unknown payment term",
			mutate:    func(r *Request) { r.PaymentTerm = "net120" },
			wantField: "paymentTerm",
		},
		{
			name:      "tier-A index out of range",
			mutate:    func(r *Request) { r.TierA = &TierASelection{ScanCostIndex: intPtr(9)} },
			wantField: "tierA.scanCostIndex",
		},
		{
			name:      "negative elevation count",
			mutate:    func(r *Request) { r.Services.ExtraElevations = -1 },
			wantField: "services.extraElevations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(req)

			result, err := eng.Calculate(req)
			require.Error(t, err)
			assert.Nil(t, result, "validation failures must never produce a partial price")

			verr, ok := err.(*ValidationError)
			require.True(t, ok)
			if tt.wantForm {
				assert.NotEmpty(t, verr.FormErrors)
				return
			}
			require.NotEmpty(t, verr.FieldErrors)
			assert.Equal(t, tt.wantField, verr.FieldErrors[0].Field)
		})
	}
}

func TestPaymentTermPremiums(t *testing.T) {
	eng := newTestEngine(Options{})

	t.Run("net90 surcharge", func(t *testing.T) {
		req := baseRequest()
		req.PaymentTerm = "net90"

		result, err := eng.Calculate(req)
		require.NoError(t, err)

		// 15% of the running subtotal 1846.16
		assert.Equal(t, 276.92, result.Subtotals.PaymentPremium)
	})

	t.Run("partner discount is negative", func(t *testing.T) {
		req := baseRequest()
		req.PaymentTerm = "partner"

		result, err := eng.Calculate(req)
		require.NoError(t, err)

		assert.Equal(t, -184.62, result.Subtotals.PaymentPremium)
		assert.Less(t, result.Subtotals.PaymentPremium, 0.0)
	})

	t.Run("standard terms add no line", func(t *testing.T) {
		result, err := eng.Calculate(baseRequest())
		require.NoError(t, err)

		assert.Zero(t, result.Subtotals.PaymentPremium)
		for _, item := range result.LineItems {
			assert.NotEqual(t, CategoryPaymentPremium, item.Category)
		}
	})
}

func TestGuardrailStates(t *testing.T) {
	// Travel is billed at cost, so a large travel line dilutes the margin
	// below target without touching the modeling math.
	requestWithTravelCost := func(cost float64) *Request {
		req := baseRequest()
		req.Travel.CustomTravelCost = cost
		return req
	}

	t.Run("warning between floor and target", func(t *testing.T) {
		eng := newTestEngine(Options{})

		result, err := eng.Calculate(requestWithTravelCost(500))
		require.NoError(t, err)

		assert.Equal(t, IntegrityWarning, result.IntegrityStatus)
		require.Len(t, result.MarginWarnings, 1)
		assert.Equal(t, WarningBelowGuardrail, result.MarginWarnings[0].Code)
		assert.Contains(t, result.IntegrityFlags, WarningBelowGuardrail)
	})

	t.Run("blocked below the floor", func(t *testing.T) {
		eng := newTestEngine(Options{})

		result, err := eng.Calculate(requestWithTravelCost(5000))
		require.NoError(t, err)

		assert.Equal(t, IntegrityBlocked, result.IntegrityStatus)
		require.Len(t, result.MarginWarnings, 1)
		assert.Equal(t, WarningBelowFloor, result.MarginWarnings[0].Code)
	})

	t.Run("auto-adjust raises modeling prices to the target", func(t *testing.T) {
		eng := newTestEngine(Options{AutoAdjust: true})

		result, err := eng.Calculate(requestWithTravelCost(500))
		require.NoError(t, err)

		assert.Equal(t, IntegrityPass, result.IntegrityStatus)
		require.Len(t, result.MarginWarnings, 1)
		assert.Equal(t, WarningMarginAdjusted, result.MarginWarnings[0].Code)
		assert.GreaterOrEqual(t, result.GrossMarginPercent, 35.0)
	})

	t.Run("auto-adjust never rescues a blocked quote", func(t *testing.T) {
		eng := newTestEngine(Options{AutoAdjust: true})

		result, err := eng.Calculate(requestWithTravelCost(5000))
		require.NoError(t, err)

		assert.Equal(t, IntegrityBlocked, result.IntegrityStatus)
	})
}

func TestAreaSubtotalsAndSharedFootprintSplit(t *testing.T) {
	eng := newTestEngine(Options{})

	req := baseRequest()
	req.Areas[0].Disciplines = []string{"arch", "mepf"}
	req.Areas[0].DisciplineLODs = map[string]string{"arch": "300", "mepf": "300"}

	result, err := eng.Calculate(req)
	require.NoError(t, err)

	// Two disciplines on one footprint split the footage cost evenly:
	// arch 10,000 x 0.12 x 0.5 = 600, mepf 10,000 x 0.15 x 0.5 = 750.
	var arch, mepf LineItem
	for _, item := range result.LineItems {
		switch item.ID {
		case "discipline-0-arch":
			arch = item
		case "discipline-0-mepf":
			mepf = item
		}
	}
	assert.Equal(t, 600.00, arch.UpteamCost)
	assert.Equal(t, 750.00, mepf.UpteamCost)
	assert.Equal(t, 0.5, arch.Detail["weight"])

	require.Contains(t, result.AreaSubtotals, "Main Building")
	assert.InDelta(t, arch.ClientPrice+mepf.ClientPrice, result.AreaSubtotals["Main Building"], 0.001)
}

func TestMixedScopeSingleLODOverride(t *testing.T) {
	eng := newTestEngine(Options{})

	t.Run("interior override only", func(t *testing.T) {
		req := baseRequest()
		req.Areas[0].Scope = ScopeMixed
		req.Areas[0].DisciplineLODs = nil
		req.Areas[0].InteriorLOD = "350"

		result, err := eng.Calculate(req)
		require.NoError(t, err)

		// Half the footage at the interior override, half at the LOD 300
		// default: 5000 x 0.16 + 5000 x 0.12 = 1400.
		item := result.LineItems[0]
		assert.Equal(t, 1400.00, item.UpteamCost)
		assert.Equal(t, "350", item.Detail["interiorLod"])
		assert.Equal(t, "300", item.Detail["exteriorLod"])
	})

	t.Run("exterior override only", func(t *testing.T) {
		req := baseRequest()
		req.Areas[0].Scope = ScopeMixed
		req.Areas[0].DisciplineLODs = nil
		req.Areas[0].ExteriorLOD = "200"

		result, err := eng.Calculate(req)
		require.NoError(t, err)

		// 5000 x 0.12 + 5000 x 0.08 = 1000.
		item := result.LineItems[0]
		assert.Equal(t, 1000.00, item.UpteamCost)
		assert.Equal(t, "300", item.Detail["interiorLod"])
		assert.Equal(t, "200", item.Detail["exteriorLod"])
	})
}

func TestValidationFieldErrorOrderIsStable(t *testing.T) {
	eng := newTestEngine(Options{})

	newReq := func() *Request {
		req := baseRequest()
		req.Areas[0].Disciplines = []string{"arch", "mepf", "structure"}
		req.Areas[0].DisciplineLODs = map[string]string{
			"structure": "999",
			"arch":      "888",
			"mepf":      "777",
		}
		return req
	}

	_, err := eng.Calculate(newReq())
	require.Error(t, err)
	first, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, first.FieldErrors, 3)

	// Entries come out in discipline order regardless of map layout.
	assert.Contains(t, first.FieldErrors[0].Message, `"888"`)
	assert.Contains(t, first.FieldErrors[1].Message, `"777"`)
	assert.Contains(t, first.FieldErrors[2].Message, `"999"`)

	for i := 0; i < 10; i++ {
		_, err := eng.Calculate(newReq())
		require.Error(t, err)
		verr, ok := err.(*ValidationError)
		require.True(t, ok)
		assert.Equal(t, first.FieldErrors, verr.FieldErrors)
	}
}

func TestServiceLineItems(t *testing.T) {
	eng := newTestEngine(Options{})

	req := baseRequest()
	req.Services = Services{VirtualTour: true, CeilingTiles: true, ExtraElevations: 3}

	result, err := eng.Calculate(req)
	require.NoError(t, err)

	services := map[string]LineItem{}
	for _, item := range result.LineItems {
		if item.Category == CategoryService {
			services[item.ID] = item
		}
	}
	require.Len(t, services, 3)

	// 10,000 sqft x 0.15 = 1500 client, above the 500 minimum.
	assert.Equal(t, 1500.00, services["service-virtualTour"].ClientPrice)
	assert.Equal(t, 800.00, services["service-virtualTour"].UpteamCost)
	assert.Equal(t, 1000.00, services["service-ceilingTiles"].ClientPrice)
	assert.Equal(t, 750.00, services["service-extraElevations"].ClientPrice)
	assert.Equal(t, 375.00, services["service-extraElevations"].UpteamCost)
}

func TestVirtualTourMinimumApplies(t *testing.T) {
	eng := newTestEngine(Options{})

	req := baseRequest()
	req.Areas[0].SquareFeet = 1000
	req.Services = Services{VirtualTour: true}

	result, err := eng.Calculate(req)
	require.NoError(t, err)

	for _, item := range result.LineItems {
		if item.ID == "service-virtualTour" {
			// 1000 x 0.15 = 150 falls below the 500 minimum.
			assert.Equal(t, 500.00, item.ClientPrice)
			return
		}
	}
	t.Fatal("virtual tour line item missing")
}
