package engine

import (
	"cpq-workers/internal/pricing/rates"
)

// travelLineItem computes the single travel line. Travel is billed at cost:
// client price equals vendor cost. A strictly positive manual override
// replaces the mode-computed value entirely; the mode breakdown stays in the
// detail bag for transparency but contributes nothing to the total.
func travelLineItem(table rates.Table, travel *Travel) (LineItem, bool) {
	if travel == nil {
		return LineItem{}, false
	}

	cost, detail := modeCost(table, travel)

	if travel.CustomTravelCost > 0 {
		detail["computedModeCost"] = cost
		detail["overrideApplied"] = true
		cost = travel.CustomTravelCost
	}
	cost = roundCents(cost)

	detail["mode"] = string(travel.Mode)
	if travel.DispatchLocation != "" {
		detail["dispatchLocation"] = travel.DispatchLocation
	}

	return LineItem{
		ID:          "travel",
		Label:       "Travel",
		Category:    CategoryTravel,
		ClientPrice: cost,
		UpteamCost:  cost,
		Detail:      detail,
	}, true
}

func modeCost(table rates.Table, travel *Travel) (float64, map[string]interface{}) {
	mileageRate := travel.MileageRate
	if mileageRate == 0 {
		mileageRate = table.MileageRate
	}

	switch travel.Mode {
	case TravelLocal:
		cost := travel.TransitCost + travel.PerDiem*travel.ScanDays
		detail := map[string]interface{}{
			"transitCost": travel.TransitCost,
			"perDiemCost": travel.PerDiem * travel.ScanDays,
		}
		// Rental fields only count when the rental car is actually flagged,
		// even if the form left stale values in them.
		if travel.RentalCar {
			rental := travel.RentalCost*travel.RentalDays +
				travel.Mileage*mileageRate +
				travel.Parking + travel.Tolls
			detail["rentalCost"] = rental
			cost += rental
		}
		return cost, detail

	case TravelRegional:
		driving := travel.OneWayDistance * 2 * mileageRate
		cost := driving + travel.PerDiem*travel.ScanDays
		detail := map[string]interface{}{
			"drivingCost": driving,
			"perDiemCost": travel.PerDiem * travel.ScanDays,
		}
		if travel.Overnight {
			hotel := travel.HotelCost * travel.HotelNights
			detail["hotelCost"] = hotel
			cost += hotel
		}
		return cost, detail

	case TravelFlyout:
		techs := float64(travel.TechnicianCount)
		flights := travel.FlightCost * techs
		hotel := travel.HotelCost * travel.HotelNights * techs
		perDiem := travel.PerDiem * travel.ScanDays * techs
		cost := flights + hotel + travel.GroundTransport + perDiem + travel.BaggageFees
		detail := map[string]interface{}{
			"flightCost":      flights,
			"hotelCost":       hotel,
			"perDiemCost":     perDiem,
			"groundTransport": travel.GroundTransport,
			"baggageFees":     travel.BaggageFees,
			"technicianCount": travel.TechnicianCount,
		}
		return cost, detail
	}

	return 0, map[string]interface{}{}
}
