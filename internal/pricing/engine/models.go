// Package engine implements the quote pricing computation: per-discipline
// area costing with a Tier-A package mode, travel/risk/service/payment-term
// line items, margin guardrails, and the assembler that rolls everything into
// one itemized quote. The engine is pure: it performs no I/O, takes its rate
// table as an argument, and produces identical output for identical input
// (except the calculation timestamp).
package engine

import (
	"fmt"
	"strings"
	"time"
)

// Version is stamped into every result so a persisted quote records which
// calculation rules produced it.
const Version = "1.4.0"

type Category string

const (
	CategoryDiscipline     Category = "discipline"
	CategoryTravel         Category = "travel"
	CategoryRisk           Category = "risk"
	CategoryService        Category = "service"
	CategoryPaymentPremium Category = "paymentPremium"
	CategorySubtotal       Category = "subtotal"
	CategoryTotal          Category = "total"
)

type Scope string

const (
	ScopeFull     Scope = "full"
	ScopeInterior Scope = "interior"
	ScopeExterior Scope = "exterior"
	ScopeMixed    Scope = "mixed"
)

type TravelMode string

const (
	TravelLocal    TravelMode = "local"
	TravelRegional TravelMode = "regional"
	TravelFlyout   TravelMode = "flyout"
)

// Integrity statuses. Exactly one is emitted per calculation.
const (
	IntegrityPass    = "pass"
	IntegrityWarning = "warning"
	IntegrityBlocked = "blocked"
)

// Margin warning codes.
const (
	WarningBelowGuardrail = "BELOW_GUARDRAIL"
	WarningBelowFloor     = "BELOW_FLOOR"
	WarningMarginAdjusted = "MARGIN_ADJUSTED"
)

// Area describes one scoped region of the project.
type Area struct {
	ID             string            `json:"id,omitempty"`
	Name           string            `json:"name"`
	BuildingType   string            `json:"buildingType,omitempty"`
	SquareFeet     float64           `json:"squareFeet"`
	Scope          Scope             `json:"scope"`
	Disciplines    []string          `json:"disciplines"`
	DisciplineLODs map[string]string `json:"disciplineLods,omitempty"`
	InteriorLOD    string            `json:"interiorLod,omitempty"`
	ExteriorLOD    string            `json:"exteriorLod,omitempty"`
	FacadeCount    int               `json:"facadeCount,omitempty"`
	RoofCount      int               `json:"roofCount,omitempty"`
	CADAddon       bool              `json:"cadAddon,omitempty"`
}

// Travel carries the fields for all three modes; only the selected mode's
// fields are read. A strictly positive CustomTravelCost supersedes the
// mode-computed value entirely.
type Travel struct {
	Mode             TravelMode `json:"mode"`
	DispatchLocation string     `json:"dispatchLocation,omitempty"`
	CustomTravelCost float64    `json:"customTravelCost,omitempty"`

	TransitCost float64 `json:"transitCost,omitempty"`
	PerDiem     float64 `json:"perDiem,omitempty"`
	ScanDays    float64 `json:"scanDays,omitempty"`
	RentalCar   bool    `json:"rentalCar,omitempty"`
	RentalCost  float64 `json:"rentalCost,omitempty"`
	RentalDays  float64 `json:"rentalDays,omitempty"`
	Mileage     float64 `json:"mileage,omitempty"`
	MileageRate float64 `json:"mileageRate,omitempty"`
	Parking     float64 `json:"parking,omitempty"`
	Tolls       float64 `json:"tolls,omitempty"`

	OneWayDistance float64 `json:"oneWayDistance,omitempty"`
	Overnight      bool    `json:"overnight,omitempty"`
	HotelCost      float64 `json:"hotelCost,omitempty"`
	HotelNights    float64 `json:"hotelNights,omitempty"`

	Origin          string  `json:"origin,omitempty"`
	Destination     string  `json:"destination,omitempty"`
	TechnicianCount int     `json:"technicianCount,omitempty"`
	FlightCost      float64 `json:"flightCost,omitempty"`
	GroundTransport float64 `json:"groundTransport,omitempty"`
	BaggageFees     float64 `json:"baggageFees,omitempty"`
}

type Services struct {
	VirtualTour     bool `json:"virtualTour,omitempty"`
	CeilingTiles    bool `json:"ceilingTiles,omitempty"`
	ExtraElevations int  `json:"extraElevations,omitempty"`
}

// TierASelection picks the negotiated package parameters when the project
// crosses the Tier-A threshold. Nil indexes fall back to the deterministic
// square-footage band default.
type TierASelection struct {
	ScanCostIndex   *int `json:"scanCostIndex,omitempty"`
	MultiplierIndex *int `json:"multiplierIndex,omitempty"`
}

// Request is the full calculation input. Requests are built fresh per call;
// nothing in them survives inside the engine between calculations.
type Request struct {
	ClientID     string          `json:"clientId,omitempty"`
	ProjectID    string          `json:"projectId,omitempty"`
	LeadID       string          `json:"leadId,omitempty"`
	Areas        []Area          `json:"areas"`
	Risks        []string        `json:"risks,omitempty"`
	Travel       *Travel         `json:"travel,omitempty"`
	Services     Services        `json:"services,omitempty"`
	PaymentTerm  string          `json:"paymentTerm,omitempty"`
	MarginTarget *float64        `json:"marginTarget,omitempty"`
	TierA        *TierASelection `json:"tierA,omitempty"`
}

type LineItem struct {
	ID          string                 `json:"id"`
	Label       string                 `json:"label"`
	Category    Category               `json:"category"`
	ClientPrice float64                `json:"clientPrice"`
	UpteamCost  float64                `json:"upteamCost"`
	Detail      map[string]interface{} `json:"detail,omitempty"`
}

type Subtotals struct {
	Modeling       float64 `json:"modeling"`
	Travel         float64 `json:"travel"`
	RiskPremiums   float64 `json:"riskPremiums"`
	Services       float64 `json:"services"`
	PaymentPremium float64 `json:"paymentPremium"`
}

type MarginWarning struct {
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Target     float64 `json:"target"`
	Calculated float64 `json:"calculated"`
}

type Result struct {
	Success            bool               `json:"success"`
	TotalClientPrice   float64            `json:"totalClientPrice"`
	TotalUpteamCost    float64            `json:"totalUpteamCost"`
	GrossMargin        float64            `json:"grossMargin"`
	GrossMarginPercent float64            `json:"grossMarginPercent"`
	LineItems          []LineItem         `json:"lineItems"`
	Subtotals          Subtotals          `json:"subtotals"`
	AreaSubtotals      map[string]float64 `json:"areaSubtotals,omitempty"`
	IntegrityStatus    string             `json:"integrityStatus"`
	IntegrityFlags     []string           `json:"integrityFlags,omitempty"`
	MarginTarget       float64            `json:"marginTarget"`
	MarginWarnings     []MarginWarning    `json:"marginWarnings,omitempty"`
	CalculatedAt       time.Time          `json:"calculatedAt"`
	EngineVersion      string             `json:"engineVersion"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a request before any calculation happens. A request
// that fails validation never produces a partial price.
type ValidationError struct {
	FormErrors  []string     `json:"formErrors,omitempty"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.FormErrors)+len(e.FieldErrors))
	parts = append(parts, e.FormErrors...)
	for _, fe := range e.FieldErrors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "quote validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) addForm(msg string) {
	e.FormErrors = append(e.FormErrors, msg)
}

func (e *ValidationError) addField(field, msg string) {
	e.FieldErrors = append(e.FieldErrors, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) empty() bool {
	return len(e.FormErrors) == 0 && len(e.FieldErrors) == 0
}
