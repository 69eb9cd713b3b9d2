// Package rates holds the reference data the pricing engine computes from:
// vendor cost rates keyed by (discipline, LOD, tier), risk and payment-term
// percentages, the Tier-A package tables, and service add-on rates. Tables are
// injected into the engine and never mutated during a calculation; the only
// write path is the administrative Store.Swap.
package rates

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

type Discipline string

const (
	DisciplineArch      Discipline = "arch"
	DisciplineMEPF      Discipline = "mepf"
	DisciplineStructure Discipline = "structure"
	DisciplineSite      Discipline = "site"
)

type LOD string

const (
	LOD200 LOD = "200"
	LOD300 LOD = "300"
	LOD350 LOD = "350"
)

type Tier string

const (
	TierStandard Tier = "standard"
	TierComplex  Tier = "complex"
)

// PaymentTerm enumerates the selectable payment structures. The signed
// percentage each maps to lives in the table, not here.
type PaymentTerm string

const (
	PaymentPartner    PaymentTerm = "partner"
	PaymentStandard   PaymentTerm = "standard"
	PaymentOwner      PaymentTerm = "owner"
	PaymentNet15      PaymentTerm = "net15"
	PaymentFiftyFifty PaymentTerm = "fiftyFifty"
	PaymentNet30      PaymentTerm = "net30"
	PaymentNet45      PaymentTerm = "net45"
	PaymentNet60      PaymentTerm = "net60"
	PaymentNet90      PaymentTerm = "net90"
)

type TierATable struct {
	ThresholdSqft     float64   `json:"thresholdSqft"`
	ScanCosts         []float64 `json:"scanCosts"`
	MarginMultipliers []float64 `json:"marginMultipliers"`
}

type ServiceRates struct {
	VirtualTourClientPerSqft float64 `json:"virtualTourClientPerSqft"`
	VirtualTourVendorPerSqft float64 `json:"virtualTourVendorPerSqft"`
	VirtualTourMinimum       float64 `json:"virtualTourMinimum"`
	CeilingTileClientPerSqft float64 `json:"ceilingTileClientPerSqft"`
	CeilingTileVendorPerSqft float64 `json:"ceilingTileVendorPerSqft"`
	ExtraElevationClient     float64 `json:"extraElevationClient"`
	ExtraElevationVendor     float64 `json:"extraElevationVendor"`
}

type MarginBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Table is the full injected rate configuration. VendorRates is
// discipline -> LOD -> tier -> $/sqft.
type Table struct {
	VendorRates     map[Discipline]map[LOD]map[Tier]float64 `json:"vendorRates"`
	RiskPercents    map[string]float64                      `json:"riskPercents"`
	PaymentPercents map[PaymentTerm]float64                 `json:"paymentPercents"`
	TierA           TierATable                              `json:"tierA"`
	Services        ServiceRates                            `json:"services"`
	MarginBand      MarginBand                              `json:"marginBand"`
	MarginFloor     float64                                 `json:"marginFloor"`
	BuildingTiers   map[string]Tier                         `json:"buildingTiers"`
	MileageRate     float64                                 `json:"mileageRate"`
}

// Default returns the shipped production table.
func Default() Table {
	return Table{
		VendorRates: map[Discipline]map[LOD]map[Tier]float64{
			DisciplineArch: {
				LOD200: {TierStandard: 0.08, TierComplex: 0.12},
				LOD300: {TierStandard: 0.12, TierComplex: 0.18},
				LOD350: {TierStandard: 0.16, TierComplex: 0.24},
			},
			DisciplineMEPF: {
				LOD200: {TierStandard: 0.10, TierComplex: 0.15},
				LOD300: {TierStandard: 0.15, TierComplex: 0.22},
				LOD350: {TierStandard: 0.20, TierComplex: 0.30},
			},
			DisciplineStructure: {
				LOD200: {TierStandard: 0.07, TierComplex: 0.11},
				LOD300: {TierStandard: 0.10, TierComplex: 0.15},
				LOD350: {TierStandard: 0.14, TierComplex: 0.21},
			},
			DisciplineSite: {
				LOD200: {TierStandard: 0.05, TierComplex: 0.08},
				LOD300: {TierStandard: 0.08, TierComplex: 0.12},
				LOD350: {TierStandard: 0.11, TierComplex: 0.17},
			},
		},
		RiskPercents: map[string]float64{
			"remote":       10,
			"fastTrack":    15,
			"revisions":    10,
			"coordination": 10,
			"incomplete":   15,
			"difficult":    15,
			"multiPhase":   10,
			"unionSite":    10,
			"security":     10,
			"occupied":     15,
			"hazardous":    25,
			"noPower":      20,
		},
		PaymentPercents: map[PaymentTerm]float64{
			PaymentPartner:    -10,
			PaymentStandard:   0,
			PaymentOwner:      0,
			PaymentNet15:      0,
			PaymentFiftyFifty: 0,
			PaymentNet30:      5,
			PaymentNet45:      7,
			PaymentNet60:      10,
			PaymentNet90:      15,
		},
		TierA: TierATable{
			ThresholdSqft:     50000,
			ScanCosts:         []float64{3500, 7000, 10500, 15000, 18500},
			MarginMultipliers: []float64{2.352, 2.8, 3.2, 3.6, 4.0},
		},
		Services: ServiceRates{
			VirtualTourClientPerSqft: 0.15,
			VirtualTourVendorPerSqft: 0.08,
			VirtualTourMinimum:       500,
			CeilingTileClientPerSqft: 0.10,
			CeilingTileVendorPerSqft: 0.05,
			ExtraElevationClient:     250,
			ExtraElevationVendor:     125,
		},
		MarginBand:  MarginBand{Min: 0.35, Max: 0.60},
		MarginFloor: 0.25,
		BuildingTiers: map[string]Tier{
			"office":      TierStandard,
			"warehouse":   TierStandard,
			"retail":      TierStandard,
			"education":   TierStandard,
			"multifamily": TierStandard,
			"hospital":    TierComplex,
			"laboratory":  TierComplex,
			"industrial":  TierComplex,
			"historic":    TierComplex,
		},
		MileageRate: 0.67,
	}
}

// LoadFile reads a table from a JSON file and validates it.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rate table %s: %w", path, err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("failed to parse rate table %s: %w", path, err)
	}

	if err := table.Validate(); err != nil {
		return Table{}, fmt.Errorf("rate table %s invalid: %w", path, err)
	}

	return table, nil
}

// Validate checks the table is complete and internally consistent. A table
// that fails here must never be swapped into a live Store.
func (t Table) Validate() error {
	disciplines := []Discipline{DisciplineArch, DisciplineMEPF, DisciplineStructure, DisciplineSite}
	lods := []LOD{LOD200, LOD300, LOD350}
	tiers := []Tier{TierStandard, TierComplex}

	for _, d := range disciplines {
		byLOD, ok := t.VendorRates[d]
		if !ok {
			return fmt.Errorf("missing vendor rates for discipline %q", d)
		}
		for _, l := range lods {
			byTier, ok := byLOD[l]
			if !ok {
				return fmt.Errorf("missing vendor rates for discipline %q LOD %s", d, l)
			}
			for _, tier := range tiers {
				rate, ok := byTier[tier]
				if !ok {
					return fmt.Errorf("missing vendor rate for (%s, %s, %s)", d, l, tier)
				}
				if rate <= 0 {
					return fmt.Errorf("vendor rate for (%s, %s, %s) must be positive, got %v", d, l, tier, rate)
				}
			}
		}
	}

	for flag, pct := range t.RiskPercents {
		if pct <= 0 || pct > 100 {
			return fmt.Errorf("risk percent for %q out of range: %v", flag, pct)
		}
	}
	if len(t.RiskPercents) == 0 {
		return fmt.Errorf("risk percent table is empty")
	}

	if len(t.PaymentPercents) == 0 {
		return fmt.Errorf("payment percent table is empty")
	}

	if t.TierA.ThresholdSqft <= 0 {
		return fmt.Errorf("tier-A threshold must be positive, got %v", t.TierA.ThresholdSqft)
	}
	if len(t.TierA.ScanCosts) == 0 {
		return fmt.Errorf("tier-A scan cost enumeration is empty")
	}
	if len(t.TierA.MarginMultipliers) == 0 {
		return fmt.Errorf("tier-A margin multiplier enumeration is empty")
	}
	if !sort.Float64sAreSorted(t.TierA.ScanCosts) {
		return fmt.Errorf("tier-A scan costs must be ascending")
	}
	for i, m := range t.TierA.MarginMultipliers {
		if m <= 1 {
			return fmt.Errorf("tier-A margin multiplier %d must exceed 1, got %v", i, m)
		}
	}

	if t.MarginBand.Min <= 0 || t.MarginBand.Max >= 1 || t.MarginBand.Min >= t.MarginBand.Max {
		return fmt.Errorf("margin band [%v, %v] invalid", t.MarginBand.Min, t.MarginBand.Max)
	}
	if t.MarginFloor <= 0 || t.MarginFloor > t.MarginBand.Min {
		return fmt.Errorf("margin floor %v must be in (0, %v]", t.MarginFloor, t.MarginBand.Min)
	}

	if t.MileageRate <= 0 {
		return fmt.Errorf("mileage rate must be positive, got %v", t.MileageRate)
	}

	return nil
}

// Rate looks up the vendor $/sqft for a (discipline, LOD, tier) key.
func (t Table) Rate(d Discipline, l LOD, tier Tier) (float64, error) {
	byLOD, ok := t.VendorRates[d]
	if !ok {
		return 0, fmt.Errorf("no vendor rates for discipline %q", d)
	}
	byTier, ok := byLOD[l]
	if !ok {
		return 0, fmt.Errorf("no vendor rate for discipline %q at LOD %s", d, l)
	}
	rate, ok := byTier[tier]
	if !ok {
		return 0, fmt.Errorf("no vendor rate for (%s, %s, %s)", d, l, tier)
	}
	return rate, nil
}

// RiskPercent returns the surcharge for a risk flag. The boolean reports
// whether the flag is part of the known enumeration.
func (t Table) RiskPercent(flag string) (float64, bool) {
	pct, ok := t.RiskPercents[flag]
	return pct, ok
}

// PaymentPercent returns the signed adjustment for a payment term.
func (t Table) PaymentPercent(term PaymentTerm) (float64, bool) {
	pct, ok := t.PaymentPercents[term]
	return pct, ok
}

// TierForBuildingType maps a building-type code to its rate tier. Unknown
// codes price as standard.
func (t Table) TierForBuildingType(buildingType string) Tier {
	if tier, ok := t.BuildingTiers[buildingType]; ok {
		return tier
	}
	return TierStandard
}

// RiskFlags returns the known risk flags in sorted order.
func (t Table) RiskFlags() []string {
	flags := make([]string, 0, len(t.RiskPercents))
	for flag := range t.RiskPercents {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	return flags
}
