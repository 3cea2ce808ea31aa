package sizing

import (
	"math"
	"reflect"
	"testing"
	"time"

	"solar_planner/internal/domain"
)

func nominalRecord() domain.ProjectRecord {
	r := domain.ProjectRecord{
		ID:          "p-1",
		ProjectName: "Clinic",
		CalcMethod:  domain.CalcMethodAudit,
		Appliances: []domain.ApplianceEntry{
			{ID: "a-1", Name: "Fridge", Quantity: 1, Wattage: 100, Hours: 10},
		},
		PeakSunHours:            5,
		SystemEfficiency:        80,
		PanelWattage:            450,
		DaysOfAutonomy:          1,
		BatteryDoD:              0.8,
		BatteryVoltage:          24,
		AvailableBatteryAh:      200,
		AvailableBatteryVoltage: 12,
	}
	r, _ = Sync(r)
	return r
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 0.001
}

func TestDeriveNominal(t *testing.T) {
	r := nominalRecord()
	if r.DailyEnergyKwh != 1.0 {
		t.Fatalf("DailyEnergyKwh = %v, want 1.0", r.DailyEnergyKwh)
	}

	d := Derive(r)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"DailyEnergyWh", d.DailyEnergyWh, 1000},
		{"RequiredPanelWattage", d.RequiredPanelWattage, 250},
		{"NumberOfPanels", d.NumberOfPanels, 1},
		{"ActualSystemSizeKw", d.ActualSystemSizeKw, 0.45},
		{"RequiredBatteryCapacityWh", d.RequiredBatteryCapacityWh, 1250},
		{"RequiredBatteryCapacityAh", d.RequiredBatteryCapacityAh, 53},
		{"PeakLoad", d.PeakLoad, 100},
		{"InverterSizeWatts", d.InverterSizeWatts, 125},
		{"InverterSizeKva", d.InverterSizeKva, 0.15625},
		{"ChargeControllerAmps", d.ChargeControllerAmps, 24},
		{"BatteriesInSeries", d.BatteriesInSeries, 2},
		{"ParallelStrings", d.ParallelStrings, 1},
		{"TotalNumberOfBatteries", d.TotalNumberOfBatteries, 2},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !almostEqual(c.got, c.want) {
				t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
			}
		})
	}

	if !reflect.DeepEqual(d.SuggestedInverterSizes, []float64{1, 1.5, 2}) {
		t.Errorf("SuggestedInverterSizes = %v, want [1 1.5 2]", d.SuggestedInverterSizes)
	}
	if !d.BatteryVoltageCompatible {
		t.Error("expected battery voltage to be compatible")
	}
	if len(d.Advisories) != 0 {
		t.Errorf("expected no advisories, got %v", d.Advisories)
	}
	if r.PeakLoad != 100 {
		t.Errorf("synced PeakLoad = %v, want 100", r.PeakLoad)
	}
}

func TestDeriveIncompatibleVoltage(t *testing.T) {
	r := nominalRecord()
	r.AvailableBatteryVoltage = 5

	d := Derive(r)

	if d.BatteryVoltageCompatible {
		t.Error("expected 24V system with 5V units to be incompatible")
	}
	if d.TotalNumberOfBatteries != 0 {
		t.Errorf("TotalNumberOfBatteries = %v, want 0", d.TotalNumberOfBatteries)
	}
	if !containsString(d.Advisories, AdvisoryVoltageMismatch) {
		t.Errorf("expected voltage advisory, got %v", d.Advisories)
	}
}

func TestDeriveZeroPeakSunHours(t *testing.T) {
	r := nominalRecord()
	r.PeakSunHours = 0

	d := Derive(r)

	// safe denominator of 1: 1000 Wh / 1 = 1000 W -> ceil(1000/450) = 3
	if d.RequiredPanelWattage != 1000 {
		t.Errorf("RequiredPanelWattage = %v, want 1000", d.RequiredPanelWattage)
	}
	if d.NumberOfPanels != 3 {
		t.Errorf("NumberOfPanels = %v, want 3", d.NumberOfPanels)
	}
	if math.IsNaN(d.NumberOfPanels) || math.IsInf(d.NumberOfPanels, 0) {
		t.Error("NumberOfPanels must be finite")
	}
}

func TestDeriveBillMode(t *testing.T) {
	r := nominalRecord()
	r.CalcMethod = domain.CalcMethodBill
	r.DailyEnergyKwh = 4
	r.PeakLoad = 800

	d := Derive(r)

	if d.DailyEnergyWh != 4000 {
		t.Errorf("DailyEnergyWh = %v, want 4000", d.DailyEnergyWh)
	}
	// appliances are ignored for the peak in bill mode
	if d.PeakLoad != 800 {
		t.Errorf("PeakLoad = %v, want 800", d.PeakLoad)
	}
	if d.InverterSizeWatts != 1000 {
		t.Errorf("InverterSizeWatts = %v, want 1000", d.InverterSizeWatts)
	}
}

func TestDeriveBuiltInController(t *testing.T) {
	r := nominalRecord()
	r.HasBuiltInController = true

	d := Derive(r)

	if !d.ChargeControllerSuppressed {
		t.Error("expected controller output to be suppressed")
	}
	if d.ChargeControllerAmps != 0 {
		t.Errorf("ChargeControllerAmps = %v, want 0", d.ChargeControllerAmps)
	}
}

func TestDeriveTotality(t *testing.T) {
	tests := []struct {
		name string
		edit func(*domain.ProjectRecord)
	}{
		{"all zeros", func(r *domain.ProjectRecord) { *r = domain.ProjectRecord{} }},
		{"zero panel wattage", func(r *domain.ProjectRecord) { r.PanelWattage = 0 }},
		{"zero efficiency", func(r *domain.ProjectRecord) { r.SystemEfficiency = 0 }},
		{"zero DoD", func(r *domain.ProjectRecord) { r.BatteryDoD = 0 }},
		{"zero battery voltage", func(r *domain.ProjectRecord) { r.BatteryVoltage = 0 }},
		{"zero unit voltage", func(r *domain.ProjectRecord) { r.AvailableBatteryVoltage = 0 }},
		{"zero unit capacity", func(r *domain.ProjectRecord) { r.AvailableBatteryAh = 0 }},
		{"NaN sun hours", func(r *domain.ProjectRecord) { r.PeakSunHours = math.NaN() }},
		{"infinite bill energy", func(r *domain.ProjectRecord) {
			r.CalcMethod = domain.CalcMethodBill
			r.DailyEnergyKwh = math.Inf(1)
		}},
		{"huge load", func(r *domain.ProjectRecord) {
			r.IsPeakLoadCustom = true
			r.PeakLoad = math.MaxFloat64
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := nominalRecord()
			tt.edit(&r)
			assertFiniteMetrics(t, Derive(r))
		})
	}
}

func TestDeriveDeterministic(t *testing.T) {
	r := nominalRecord()
	first := Derive(r)
	second := Derive(r)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Derive not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestSuggestInverters(t *testing.T) {
	tests := []struct {
		name string
		kva  float64
		want []float64
	}{
		{"below catalog", 0.2, []float64{1, 1.5, 2}},
		{"exact match counts", 2.5, []float64{2.5, 3, 4}},
		{"between entries", 4.2, []float64{5, 8, 10}},
		{"near top", 11, []float64{12}},
		{"above catalog", 12.5, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestInverters(tt.kva)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SuggestInverters(%v) = %v, want %v", tt.kva, got, tt.want)
			}
		})
	}
}

func TestDeriveNoInverterMatch(t *testing.T) {
	r := nominalRecord()
	r.IsPeakLoadCustom = true
	r.PeakLoad = 20000

	d := Derive(r)

	if len(d.SuggestedInverterSizes) != 0 {
		t.Errorf("expected no suggestions, got %v", d.SuggestedInverterSizes)
	}
	if !containsString(d.Advisories, AdvisoryNoInverterMatch) {
		t.Errorf("expected no-match advisory, got %v", d.Advisories)
	}
}

func TestNewDefaultProject(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	r := NewDefaultProject("  ", now)

	if r.ID == "" {
		t.Error("expected an id")
	}
	if r.ProjectName != DefaultProjectName {
		t.Errorf("ProjectName = %q, want %q", r.ProjectName, DefaultProjectName)
	}
	if !r.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", r.LastUpdated, now)
	}
	if r.CalcMethod != domain.CalcMethodAudit || r.BatteryVoltage != 24 || r.PanelWattage != 450 {
		t.Errorf("unexpected defaults: %+v", r)
	}
	// audit mode with no appliances syncs the energy down to zero
	if r.DailyEnergyKwh != 0 {
		t.Errorf("DailyEnergyKwh = %v, want 0", r.DailyEnergyKwh)
	}
	if r.PeakLoad != 0 || r.IsPeakLoadCustom {
		t.Errorf("PeakLoad = %v (custom %v), want 0 derived", r.PeakLoad, r.IsPeakLoadCustom)
	}

	other := NewDefaultProject("Farm", now)
	if other.ID == r.ID {
		t.Error("expected fresh ids")
	}
	if other.ProjectName != "Farm" {
		t.Errorf("ProjectName = %q, want Farm", other.ProjectName)
	}
}

func BenchmarkDerive(b *testing.B) {
	r := nominalRecord()
	for i := 0; i < 20; i++ {
		r.Appliances = append(r.Appliances, domain.ApplianceEntry{Quantity: 2, Wattage: 60, Hours: 5})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Derive(r)
	}
}

func assertFiniteMetrics(t *testing.T, d domain.DerivedMetrics) {
	t.Helper()

	values := map[string]float64{
		"DailyEnergyWh":             d.DailyEnergyWh,
		"TotalApplianceWattHours":   d.TotalApplianceWattHours,
		"RequiredPanelWattage":      d.RequiredPanelWattage,
		"NumberOfPanels":            d.NumberOfPanels,
		"ActualSystemSizeKw":        d.ActualSystemSizeKw,
		"TotalStorageWh":            d.TotalStorageWh,
		"RequiredBatteryCapacityWh": d.RequiredBatteryCapacityWh,
		"RequiredBatteryCapacityAh": d.RequiredBatteryCapacityAh,
		"BatteriesInSeries":         d.BatteriesInSeries,
		"ParallelStrings":           d.ParallelStrings,
		"TotalNumberOfBatteries":    d.TotalNumberOfBatteries,
		"PeakLoad":                  d.PeakLoad,
		"InverterSizeWatts":         d.InverterSizeWatts,
		"InverterSizeKva":           d.InverterSizeKva,
		"ChargeControllerAmps":      d.ChargeControllerAmps,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			t.Errorf("%s = %v, want finite non-negative", name, v)
		}
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
