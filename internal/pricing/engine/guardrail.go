package engine

import "fmt"

type guardrailVerdict struct {
	status   string
	flags    []string
	warnings []MarginWarning
	// adjustFactor > 1 means discipline client prices must be scaled up to
	// meet the target (auto-correct mode only).
	adjustFactor float64
}

// evaluateGuardrail classifies the computed margin against the requested
// target and the hard floor. Exactly one state comes out:
//
//   - margin >= target: pass
//   - floor <= margin < target: warning (or an auto-adjustment when the
//     engine is configured to correct instead of warn)
//   - margin < floor: blocked; never auto-adjusted
//
// marginEpsilon absorbs binary float noise at the band edges so a price that
// meets the target to the cent never classifies as below it.
const marginEpsilon = 1e-9

func evaluateGuardrail(totalClient, totalVendor, target, floor float64, autoAdjust bool, disciplineClient float64) guardrailVerdict {
	margin := 0.0
	if totalClient > 0 {
		margin = (totalClient - totalVendor) / totalClient
	}

	if margin >= target-marginEpsilon {
		return guardrailVerdict{status: IntegrityPass, adjustFactor: 1}
	}

	if margin < floor-marginEpsilon {
		return guardrailVerdict{
			status: IntegrityBlocked,
			flags:  []string{WarningBelowFloor},
			warnings: []MarginWarning{{
				Code: WarningBelowFloor,
				Message: fmt.Sprintf(
					"calculated margin %.1f%% is below the %.0f%% floor; quote cannot be issued",
					margin*100, floor*100),
				Target:     target,
				Calculated: margin,
			}},
			adjustFactor: 1,
		}
	}

	if autoAdjust && disciplineClient > 0 {
		// Raise the modeling lines to the minimum client total that meets
		// the target. Travel, risk, service, and payment lines stay as
		// computed; only discipline items absorb the correction.
		requiredClient := totalVendor / (1 - target)
		factor := 1 + (requiredClient-totalClient)/disciplineClient
		return guardrailVerdict{
			status: IntegrityPass,
			flags:  []string{WarningMarginAdjusted},
			warnings: []MarginWarning{{
				Code: WarningMarginAdjusted,
				Message: fmt.Sprintf(
					"modeling prices raised to meet the %.0f%% margin target (calculated %.1f%%)",
					target*100, margin*100),
				Target:     target,
				Calculated: margin,
			}},
			adjustFactor: factor,
		}
	}

	return guardrailVerdict{
		status: IntegrityWarning,
		flags:  []string{WarningBelowGuardrail},
		warnings: []MarginWarning{{
			Code: WarningBelowGuardrail,
			Message: fmt.Sprintf(
				"calculated margin %.1f%% is below the %.0f%% target",
				margin*100, target*100),
			Target:     target,
			Calculated: margin,
		}},
		adjustFactor: 1,
	}
}
