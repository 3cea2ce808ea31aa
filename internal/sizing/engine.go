// Package sizing converts project inputs into sized system components.
//
// Every function here is pure: the same record always yields the same
// metrics, and nothing is written anywhere. Callers recompute after each
// edit instead of caching.
package sizing

import (
	"math"

	"solar_planner/internal/domain"
)

const (
	inverterSafetyMargin   = 1.25
	inverterPowerFactor    = 0.8
	controllerSafetyMargin = 1.25

	// smallest depth of discharge used as a divisor
	minDoD = 1e-6

	maxInverterSuggestions = 3
)

// Advisory messages surfaced alongside the metrics
const (
	AdvisoryVoltageMismatch  = "System voltage is not divisible by available battery voltage"
	AdvisoryNoBatteryVoltage = "Available battery voltage must be greater than zero"
	AdvisoryNoInverterMatch  = "No standard inverter matches the required rating. Check peak load"
	AdvisoryInverterTooSmall = "Selected inverter is smaller than the required rating"
)

// Derive computes all sized outputs for r. It never fails and never
// returns NaN, Inf or negative numbers.
func Derive(r domain.ProjectRecord) domain.DerivedMetrics {
	d := domain.DerivedMetrics{
		SuggestedInverterSizes: make([]float64, 0, maxInverterSuggestions),
		Advisories:             []string{},
	}

	// Energy
	d.TotalApplianceWattHours = AuditWattHours(r.Appliances)
	if r.CalcMethod == domain.CalcMethodAudit {
		d.DailyEnergyWh = d.TotalApplianceWattHours
	} else {
		d.DailyEnergyWh = clean(r.DailyEnergyKwh * 1000)
	}

	// Panel array
	denominator := r.PeakSunHours * r.SystemEfficiency / 100
	if !(denominator > 0) {
		denominator = 1
	}
	d.RequiredPanelWattage = clean(d.DailyEnergyWh / denominator)
	d.NumberOfPanels = clean(math.Ceil(d.RequiredPanelWattage / atLeast(r.PanelWattage, 1)))
	d.ActualSystemSizeKw = clean(d.NumberOfPanels * r.PanelWattage / 1000)

	// Battery bank
	d.TotalStorageWh = clean(d.DailyEnergyWh * r.DaysOfAutonomy)
	d.RequiredBatteryCapacityWh = clean(d.TotalStorageWh / atLeast(r.BatteryDoD, minDoD))
	d.RequiredBatteryCapacityAh = clean(math.Ceil(d.RequiredBatteryCapacityWh / atLeast(r.BatteryVoltage, 1)))

	d.BatteryVoltageCompatible = batteryVoltageCompatible(r.BatteryVoltage, r.AvailableBatteryVoltage)
	switch {
	case !(r.AvailableBatteryVoltage > 0):
		d.Advisories = append(d.Advisories, AdvisoryNoBatteryVoltage)
	case !d.BatteryVoltageCompatible:
		d.Advisories = append(d.Advisories, AdvisoryVoltageMismatch)
	case r.AvailableBatteryAh > 0:
		d.BatteriesInSeries = clean(r.BatteryVoltage / r.AvailableBatteryVoltage)
		d.ParallelStrings = clean(math.Ceil(d.RequiredBatteryCapacityAh / r.AvailableBatteryAh))
		d.TotalNumberOfBatteries = clean(d.BatteriesInSeries * d.ParallelStrings)
	}

	// Inverter
	d.PeakLoad = EffectivePeakLoad(r)
	d.InverterSizeWatts = clean(d.PeakLoad * inverterSafetyMargin)
	d.InverterSizeKva = clean(d.InverterSizeWatts / 1000 / inverterPowerFactor)
	d.SuggestedInverterSizes = SuggestInverters(d.InverterSizeKva)
	if len(d.SuggestedInverterSizes) == 0 {
		d.Advisories = append(d.Advisories, AdvisoryNoInverterMatch)
	}
	if r.SelectedInverterKva > 0 && r.SelectedInverterKva < d.InverterSizeKva {
		d.Advisories = append(d.Advisories, AdvisoryInverterTooSmall)
	}

	// Charge controller
	if r.HasBuiltInController {
		d.ChargeControllerSuppressed = true
	} else {
		arrayCurrent := d.NumberOfPanels * r.PanelWattage / atLeast(r.BatteryVoltage, 1)
		d.ChargeControllerAmps = clean(math.Ceil(arrayCurrent * controllerSafetyMargin))
	}

	return d
}

// AuditWattHours sums quantity x wattage x hours over the appliance list
func AuditWattHours(appliances []domain.ApplianceEntry) float64 {
	var total float64
	for _, a := range appliances {
		total += a.WattHours()
	}
	return clean(total)
}

// NameplateLoad sums quantity x wattage over the appliance list. It assumes
// every appliance runs at once, which overestimates real peak draw on
// purpose.
func NameplateLoad(appliances []domain.ApplianceEntry) float64 {
	var total float64
	for _, a := range appliances {
		total += a.Quantity * a.Wattage
	}
	return clean(total)
}

// EffectivePeakLoad returns the peak load used for inverter sizing
func EffectivePeakLoad(r domain.ProjectRecord) float64 {
	if r.CalcMethod == domain.CalcMethodAudit && !r.IsPeakLoadCustom {
		return NameplateLoad(r.Appliances)
	}
	return clean(r.PeakLoad)
}

// SuggestInverters returns up to three catalog ratings that cover kva,
// smallest first. A rating equal to kva counts as sufficient.
func SuggestInverters(kva float64) []float64 {
	out := make([]float64, 0, maxInverterSuggestions)
	for _, size := range domain.InverterCatalogKva {
		if size >= kva {
			out = append(out, size)
			if len(out) == maxInverterSuggestions {
				break
			}
		}
	}
	return out
}

func batteryVoltageCompatible(system, unit float64) bool {
	if !(unit > 0) {
		return false
	}
	return math.Mod(system, unit) == 0
}

// clean maps non-finite and negative values to zero
func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// atLeast returns v, or floor when v is below floor or NaN
func atLeast(v, floor float64) float64 {
	if !(v >= floor) {
		return floor
	}
	return v
}
