// internal/domain/models.go

package domain

import "time"

// CalcMethod selects how daily energy is obtained
type CalcMethod string

const (
	// CalcMethodAudit sums the appliance list
	CalcMethodAudit CalcMethod = "audit"
	// CalcMethodBill takes dailyEnergyKwh as entered from a utility bill
	CalcMethodBill CalcMethod = "bill"
)

// ProjectRecord is one persisted solar installation plan
type ProjectRecord struct {
	ID          string     `json:"id"`
	ProjectName string     `json:"projectName"`
	ClientName  string     `json:"clientName"`
	CalcMethod  CalcMethod `json:"calcMethod"`

	Appliances     []ApplianceEntry `json:"appliances"`
	DailyEnergyKwh float64          `json:"dailyEnergyKwh"`

	// Panel array
	PeakSunHours     float64 `json:"peakSunHours"`
	SystemEfficiency float64 `json:"systemEfficiency"` // percent, 0-100
	PanelWattage     float64 `json:"panelWattage"`

	// Battery bank
	DaysOfAutonomy          float64 `json:"daysOfAutonomy"`
	BatteryDoD              float64 `json:"batteryDoD"`
	BatteryVoltage          float64 `json:"batteryVoltage"`
	AvailableBatteryAh      float64 `json:"availableBatteryAh"`
	AvailableBatteryVoltage float64 `json:"availableBatteryVoltage"`

	// Inverter and controller
	PeakLoad             float64 `json:"peakLoad"`
	IsPeakLoadCustom     bool    `json:"isPeakLoadCustom"`
	SelectedInverterKva  float64 `json:"selectedInverterKva"`
	HasBuiltInController bool    `json:"hasBuiltInController"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// ApplianceEntry is one line of an energy audit
type ApplianceEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Wattage  float64 `json:"wattage"`
	Hours    float64 `json:"hours"`
}

// WattHours returns the daily consumption of the entry
func (a ApplianceEntry) WattHours() float64 {
	return a.Quantity * a.Wattage * a.Hours
}

// Clone returns a copy that shares no slice storage with r
func (r ProjectRecord) Clone() ProjectRecord {
	c := r
	c.Appliances = make([]ApplianceEntry, len(r.Appliances))
	copy(c.Appliances, r.Appliances)
	return c
}

// DerivedMetrics holds the sized components for a record. Never persisted.
type DerivedMetrics struct {
	DailyEnergyWh           float64 `json:"dailyEnergyWh"`
	TotalApplianceWattHours float64 `json:"totalApplianceWattHours"`

	RequiredPanelWattage float64 `json:"requiredPanelWattage"`
	NumberOfPanels       float64 `json:"numberOfPanels"`
	ActualSystemSizeKw   float64 `json:"actualSystemSizeKw"`

	TotalStorageWh            float64 `json:"totalStorageWh"`
	RequiredBatteryCapacityWh float64 `json:"requiredBatteryCapacityWh"`
	RequiredBatteryCapacityAh float64 `json:"requiredBatteryCapacityAh"`
	BatteryVoltageCompatible  bool    `json:"batteryVoltageCompatible"`
	BatteriesInSeries         float64 `json:"batteriesInSeries"`
	ParallelStrings           float64 `json:"parallelStrings"`
	TotalNumberOfBatteries    float64 `json:"totalNumberOfBatteries"`

	PeakLoad               float64   `json:"peakLoad"`
	InverterSizeWatts      float64   `json:"inverterSizeWatts"`
	InverterSizeKva        float64   `json:"inverterSizeKva"`
	SuggestedInverterSizes []float64 `json:"suggestedInverterSizes"`

	ChargeControllerAmps       float64 `json:"chargeControllerAmps"`
	ChargeControllerSuppressed bool    `json:"chargeControllerSuppressed"`

	Advisories []string `json:"advisories"`
}
