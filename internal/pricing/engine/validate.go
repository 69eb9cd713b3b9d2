package engine

import (
	"fmt"
	"sort"

	"cpq-workers/internal/pricing/rates"
)

var validScopes = map[Scope]bool{
	ScopeFull:     true,
	ScopeInterior: true,
	ScopeExterior: true,
	ScopeMixed:    true,
}

var validDisciplines = map[string]bool{
	string(rates.DisciplineArch):      true,
	string(rates.DisciplineMEPF):      true,
	string(rates.DisciplineStructure): true,
	string(rates.DisciplineSite):      true,
}

var validLODs = map[string]bool{
	string(rates.LOD200): true,
	string(rates.LOD300): true,
	string(rates.LOD350): true,
}

var validTravelModes = map[TravelMode]bool{
	TravelLocal:    true,
	TravelRegional: true,
	TravelFlyout:   true,
}

// validate checks the request structurally before any pricing math runs.
// All problems are collected into one ValidationError rather than failing on
// the first, so the caller can surface a complete field-error list.
func validate(table rates.Table, req *Request) *ValidationError {
	verr := &ValidationError{}

	if len(req.Areas) == 0 {
		verr.addForm("at least one area is required")
	}

	for i, area := range req.Areas {
		prefix := fmt.Sprintf("areas[%d]", i)

		if area.SquareFeet <= 0 {
			verr.addField(prefix+".squareFeet", "square footage must be positive")
		}
		if !validScopes[area.Scope] {
			verr.addField(prefix+".scope", fmt.Sprintf("unknown scope %q", area.Scope))
		}
		if len(area.Disciplines) == 0 {
			verr.addField(prefix+".disciplines", "at least one discipline is required")
		}

		seen := map[string]bool{}
		for _, d := range area.Disciplines {
			if !validDisciplines[d] {
				verr.addField(prefix+".disciplines", fmt.Sprintf("unknown discipline %q", d))
			}
			seen[d] = true
		}

		lodKeys := make([]string, 0, len(area.DisciplineLODs))
		for d := range area.DisciplineLODs {
			lodKeys = append(lodKeys, d)
		}
		sort.Strings(lodKeys)
		for _, d := range lodKeys {
			lod := area.DisciplineLODs[d]
			if !seen[d] {
				verr.addField(prefix+".disciplineLods", fmt.Sprintf("LOD set for unselected discipline %q", d))
			}
			if !validLODs[lod] {
				verr.addField(prefix+".disciplineLods", fmt.Sprintf("unknown LOD %q for discipline %q", lod, d))
			}
		}

		if area.Scope == ScopeMixed {
			if area.InteriorLOD != "" && !validLODs[area.InteriorLOD] {
				verr.addField(prefix+".interiorLod", fmt.Sprintf("unknown LOD %q", area.InteriorLOD))
			}
			if area.ExteriorLOD != "" && !validLODs[area.ExteriorLOD] {
				verr.addField(prefix+".exteriorLod", fmt.Sprintf("unknown LOD %q", area.ExteriorLOD))
			}
		}
	}

	for _, flag := range req.Risks {
		if _, known := table.RiskPercent(flag); !known {
			verr.addField("risks", fmt.Sprintf("unknown risk flag %q", flag))
		}
	}

	if req.Travel != nil && !validTravelModes[req.Travel.Mode] {
		verr.addField("travel.mode", fmt.Sprintf("unknown travel mode %q", req.Travel.Mode))
	}

	if req.PaymentTerm != "" {
		if _, known := table.PaymentPercent(rates.PaymentTerm(req.PaymentTerm)); !known {
			verr.addField("paymentTerm", fmt.Sprintf("unknown payment term %q", req.PaymentTerm))
		}
	}

	if req.MarginTarget != nil {
		mt := *req.MarginTarget
		if mt < table.MarginBand.Min || mt > table.MarginBand.Max {
			verr.addField("marginTarget", fmt.Sprintf(
				"margin target %.2f outside allowed band [%.2f, %.2f]",
				mt, table.MarginBand.Min, table.MarginBand.Max))
		}
	}

	if req.TierA != nil {
		if idx := req.TierA.ScanCostIndex; idx != nil && (*idx < 0 || *idx >= len(table.TierA.ScanCosts)) {
			verr.addField("tierA.scanCostIndex", fmt.Sprintf("index %d outside scan cost enumeration", *idx))
		}
		if idx := req.TierA.MultiplierIndex; idx != nil && (*idx < 0 || *idx >= len(table.TierA.MarginMultipliers)) {
			verr.addField("tierA.multiplierIndex", fmt.Sprintf("index %d outside multiplier enumeration", *idx))
		}
	}

	if req.Services.ExtraElevations < 0 {
		verr.addField("services.extraElevations", "elevation count cannot be negative")
	}

	if verr.empty() {
		return nil
	}
	return verr
}

// dedupeRisks applies set semantics to the risk selection and fixes iteration
// order for determinism.
func dedupeRisks(risks []string) []string {
	seen := make(map[string]bool, len(risks))
	out := make([]string, 0, len(risks))
	for _, flag := range risks {
		if !seen[flag] {
			seen[flag] = true
			out = append(out, flag)
		}
	}
	sort.Strings(out)
	return out
}
