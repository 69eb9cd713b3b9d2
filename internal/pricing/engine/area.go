package engine

import (
	"fmt"
	"sort"

	"cpq-workers/internal/pricing/rates"
)

// BucketWeighting decides how an area's footage cost is split when several
// disciplines share one footprint. The shipped default splits evenly (1/N);
// the strategy is swappable so a real allocation model can replace it without
// touching the calculators.
type BucketWeighting interface {
	Weights(disciplines []string) map[string]float64
}

type EvenSplit struct{}

func (EvenSplit) Weights(disciplines []string) map[string]float64 {
	weights := make(map[string]float64, len(disciplines))
	for _, d := range disciplines {
		weights[d] = 1.0 / float64(len(disciplines))
	}
	return weights
}

// totalSquareFeet sums footage across all areas; the tier classifier runs on
// this project-level number, not per area.
func totalSquareFeet(areas []Area) float64 {
	var total float64
	for _, a := range areas {
		total += a.SquareFeet
	}
	return total
}

// isTierA reports whether the project crosses into package pricing. The
// threshold itself prices on the per-sqft path; only strictly larger projects
// switch.
func isTierA(table rates.Table, areas []Area) bool {
	return totalSquareFeet(areas) > table.TierA.ThresholdSqft
}

// effectiveLOD resolves the modeling level for one discipline in one area.
// The per-discipline selection wins; otherwise LOD 300 is the default the
// sales form assumes.
func effectiveLOD(area Area, discipline string) rates.LOD {
	if lod, ok := area.DisciplineLODs[discipline]; ok {
		return rates.LOD(lod)
	}
	return rates.LOD300
}

// areaLineItems prices every (area, discipline) pair on the per-sqft rate
// path. Client price grows vendor cost by the margin target:
// client = vendor / (1 - target). Disciplines iterate in sorted order so two
// identical requests produce identical item sequences.
func areaLineItems(table rates.Table, areas []Area, marginTarget float64, weighting BucketWeighting) ([]LineItem, error) {
	var items []LineItem

	for i, area := range areas {
		tier := table.TierForBuildingType(area.BuildingType)

		disciplines := append([]string(nil), area.Disciplines...)
		sort.Strings(disciplines)
		weights := weighting.Weights(disciplines)

		for _, d := range disciplines {
			lod := effectiveLOD(area, d)

			vendor, detail, err := disciplineVendorCost(table, area, d, lod, tier)
			if err != nil {
				return nil, err
			}
			vendor = roundCents(vendor * weights[d])
			client := ceilCents(vendor / (1 - marginTarget))

			detail["area"] = areaLabel(area, i)
			detail["squareFeet"] = area.SquareFeet
			detail["discipline"] = d
			detail["scope"] = string(area.Scope)
			detail["tier"] = string(tier)
			detail["weight"] = weights[d]

			items = append(items, LineItem{
				ID:          fmt.Sprintf("discipline-%d-%s", i, d),
				Label:       fmt.Sprintf("%s / %s LOD %s", areaLabel(area, i), disciplineLabel(d), lod),
				Category:    CategoryDiscipline,
				ClientPrice: client,
				UpteamCost:  vendor,
				Detail:      detail,
			})
		}
	}

	return items, nil
}

// disciplineVendorCost computes the unweighted vendor cost for one discipline
// slice. Mixed scope with interior/exterior LOD overrides prices half the
// footage at each side's LOD; a side without an override falls back to the
// effective LOD. Every other scope prices the full footage at the effective
// LOD.
func disciplineVendorCost(table rates.Table, area Area, discipline string, lod rates.LOD, tier rates.Tier) (float64, map[string]interface{}, error) {
	d := rates.Discipline(discipline)

	if area.Scope == ScopeMixed && (area.InteriorLOD != "" || area.ExteriorLOD != "") {
		intLOD, extLOD := lod, lod
		if area.InteriorLOD != "" {
			intLOD = rates.LOD(area.InteriorLOD)
		}
		if area.ExteriorLOD != "" {
			extLOD = rates.LOD(area.ExteriorLOD)
		}
		intRate, err := table.Rate(d, intLOD, tier)
		if err != nil {
			return 0, nil, err
		}
		extRate, err := table.Rate(d, extLOD, tier)
		if err != nil {
			return 0, nil, err
		}
		half := area.SquareFeet / 2
		detail := map[string]interface{}{
			"interiorLod":  string(intLOD),
			"exteriorLod":  string(extLOD),
			"interiorRate": intRate,
			"exteriorRate": extRate,
		}
		return half*intRate + half*extRate, detail, nil
	}

	rate, err := table.Rate(d, lod, tier)
	if err != nil {
		return 0, nil, err
	}
	detail := map[string]interface{}{
		"lod":  string(lod),
		"rate": rate,
	}
	return area.SquareFeet * rate, detail, nil
}

// tierALineItem prices the whole project as one negotiated package: vendor
// cost from the scan-cost enumeration, client price = vendor x margin
// multiplier. When the sales rep made no explicit selection, both indexes
// default from the square-footage band so the quote stays deterministic.
func tierALineItem(table rates.Table, areas []Area, selection *TierASelection) LineItem {
	total := totalSquareFeet(areas)

	scanIdx := tierABandIndex(table, total, len(table.TierA.ScanCosts))
	multIdx := tierABandIndex(table, total, len(table.TierA.MarginMultipliers))
	explicitScan, explicitMult := false, false
	if selection != nil {
		if selection.ScanCostIndex != nil {
			scanIdx = *selection.ScanCostIndex
			explicitScan = true
		}
		if selection.MultiplierIndex != nil {
			multIdx = *selection.MultiplierIndex
			explicitMult = true
		}
	}

	vendor := table.TierA.ScanCosts[scanIdx]
	multiplier := table.TierA.MarginMultipliers[multIdx]
	client := roundCents(vendor * multiplier)

	return LineItem{
		ID:          "discipline-tierA",
		Label:       "Tier A scanning package",
		Category:    CategoryDiscipline,
		ClientPrice: client,
		UpteamCost:  vendor,
		Detail: map[string]interface{}{
			"tierA":              true,
			"totalSquareFeet":    total,
			"scanCost":           vendor,
			"marginMultiplier":   multiplier,
			"explicitScanCost":   explicitScan,
			"explicitMultiplier": explicitMult,
		},
	}
}

// tierABandIndex maps total footage to an enumeration index: each 50,000 sqft
// beyond the threshold steps one band up, capped at the enumeration edge.
func tierABandIndex(table rates.Table, totalSqft float64, size int) int {
	over := totalSqft - table.TierA.ThresholdSqft
	if over < 0 {
		over = 0
	}
	idx := int(over / 50000)
	if idx >= size {
		idx = size - 1
	}
	return idx
}

func areaLabel(area Area, index int) string {
	if area.Name != "" {
		return area.Name
	}
	if area.ID != "" {
		return area.ID
	}
	return fmt.Sprintf("Area %d", index+1)
}

func disciplineLabel(d string) string {
	switch rates.Discipline(d) {
	case rates.DisciplineArch:
		return "Architecture"
	case rates.DisciplineMEPF:
		return "MEPF"
	case rates.DisciplineStructure:
		return "Structure"
	case rates.DisciplineSite:
		return "Site"
	}
	return d
}
