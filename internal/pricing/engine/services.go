package engine

import (
	"fmt"

	"cpq-workers/internal/pricing/rates"
)

// serviceLineItems prices the optional add-on services. Each service carries
// its own client and vendor rates, independent of discipline and LOD, and is
// excluded from margin-guardrail adjustment.
func serviceLineItems(table rates.Table, services Services, totalSqft float64) []LineItem {
	var items []LineItem

	if services.VirtualTour {
		client := totalSqft * table.Services.VirtualTourClientPerSqft
		if client < table.Services.VirtualTourMinimum {
			client = table.Services.VirtualTourMinimum
		}
		items = append(items, LineItem{
			ID:          "service-virtualTour",
			Label:       "3D virtual tour capture",
			Category:    CategoryService,
			ClientPrice: roundCents(client),
			UpteamCost:  roundCents(totalSqft * table.Services.VirtualTourVendorPerSqft),
			Detail: map[string]interface{}{
				"service":       "virtualTour",
				"squareFeet":    totalSqft,
				"clientPerSqft": table.Services.VirtualTourClientPerSqft,
				"minimum":       table.Services.VirtualTourMinimum,
			},
		})
	}

	if services.CeilingTiles {
		items = append(items, LineItem{
			ID:          "service-ceilingTiles",
			Label:       "Acoustic ceiling tile scanning",
			Category:    CategoryService,
			ClientPrice: roundCents(totalSqft * table.Services.CeilingTileClientPerSqft),
			UpteamCost:  roundCents(totalSqft * table.Services.CeilingTileVendorPerSqft),
			Detail: map[string]interface{}{
				"service":       "ceilingTiles",
				"squareFeet":    totalSqft,
				"clientPerSqft": table.Services.CeilingTileClientPerSqft,
			},
		})
	}

	if services.ExtraElevations > 0 {
		count := float64(services.ExtraElevations)
		items = append(items, LineItem{
			ID:          "service-extraElevations",
			Label:       fmt.Sprintf("Additional elevations (%d)", services.ExtraElevations),
			Category:    CategoryService,
			ClientPrice: roundCents(count * table.Services.ExtraElevationClient),
			UpteamCost:  roundCents(count * table.Services.ExtraElevationVendor),
			Detail: map[string]interface{}{
				"service":  "extraElevations",
				"count":    services.ExtraElevations,
				"unitRate": table.Services.ExtraElevationClient,
			},
		})
	}

	return items
}
