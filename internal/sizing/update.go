package sizing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"solar_planner/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidValue      = errors.New("invalid value")
	ErrApplianceNotFound = errors.New("appliance not found")
)

const (
	DefaultProjectName = "New Solar Project"
	maxApplianceHours  = 24
)

// NewDefaultProject builds a record with the standard starting values
func NewDefaultProject(name string, now time.Time) domain.ProjectRecord {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProjectName
	}

	r := domain.ProjectRecord{
		ID:                      uuid.NewString(),
		ProjectName:             name,
		CalcMethod:              domain.CalcMethodAudit,
		Appliances:              []domain.ApplianceEntry{},
		DailyEnergyKwh:          10,
		PeakSunHours:            5,
		SystemEfficiency:        80,
		PanelWattage:            450,
		DaysOfAutonomy:          1,
		BatteryDoD:              0.8,
		BatteryVoltage:          24,
		AvailableBatteryAh:      200,
		AvailableBatteryVoltage: 12,
		PeakLoad:                1500,
		LastUpdated:             now,
	}
	r, _ = Sync(r)
	return r
}

// Sync refreshes the fields that audit mode derives from the appliance
// list. Each field is written only when its value actually differs, so
// Sync(Sync(r)) never reports a change.
func Sync(r domain.ProjectRecord) (domain.ProjectRecord, bool) {
	if r.CalcMethod != domain.CalcMethodAudit {
		return r, false
	}

	changed := false
	if kwh := AuditWattHours(r.Appliances) / 1000; r.DailyEnergyKwh != kwh {
		r.DailyEnergyKwh = kwh
		changed = true
	}
	if !r.IsPeakLoadCustom {
		if peak := NameplateLoad(r.Appliances); r.PeakLoad != peak {
			r.PeakLoad = peak
			changed = true
		}
	}
	return r, changed
}

// ApplyFieldUpdate sets one record field from its raw text form. Numeric
// fields that fail to parse become 0. The result is already synced.
func ApplyFieldUpdate(r domain.ProjectRecord, field, raw string) (domain.ProjectRecord, error) {
	r = r.Clone()

	switch field {
	case "projectName":
		r.ProjectName = raw
	case "clientName":
		r.ClientName = raw
	case "calcMethod":
		method, err := ParseCalcMethod(raw)
		if err != nil {
			return r, err
		}
		r.CalcMethod = method
	case "peakLoad":
		// a hand-entered peak load stops the audit estimate from overwriting it
		if v := parseNumber(raw); v != r.PeakLoad {
			r.PeakLoad = v
			r.IsPeakLoadCustom = true
		}
	case "isPeakLoadCustom":
		r.IsPeakLoadCustom = parseBool(raw)
	case "hasBuiltInController":
		r.HasBuiltInController = parseBool(raw)
	default:
		target := numericField(&r, field)
		if target == nil {
			return r, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		*target = parseNumber(raw)
	}

	r, _ = Sync(r)
	return r, nil
}

// ParseCalcMethod accepts "audit" or "bill" in any case
func ParseCalcMethod(raw string) (domain.CalcMethod, error) {
	switch domain.CalcMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.CalcMethodAudit:
		return domain.CalcMethodAudit, nil
	case domain.CalcMethodBill:
		return domain.CalcMethodBill, nil
	}
	return "", fmt.Errorf("%w: calcMethod %q", ErrInvalidValue, raw)
}

// AddAppliance appends an empty appliance line
func AddAppliance(r domain.ProjectRecord) (domain.ProjectRecord, domain.ApplianceEntry) {
	entry := domain.ApplianceEntry{ID: uuid.NewString(), Quantity: 1}
	r = r.Clone()
	r.Appliances = append(r.Appliances, entry)
	r, _ = Sync(r)
	return r, entry
}

// UpdateAppliance sets one field of the appliance with the given id.
// Numbers are clamped to be non-negative and hours to at most 24.
func UpdateAppliance(r domain.ProjectRecord, id, field, raw string) (domain.ProjectRecord, error) {
	r = r.Clone()
	idx := applianceIndex(r.Appliances, id)
	if idx < 0 {
		return r, fmt.Errorf("%w: %s", ErrApplianceNotFound, id)
	}

	a := &r.Appliances[idx]
	switch field {
	case "name":
		a.Name = raw
	case "quantity":
		a.Quantity = parseNumber(raw)
	case "wattage":
		a.Wattage = parseNumber(raw)
	case "hours":
		a.Hours = math.Min(parseNumber(raw), maxApplianceHours)
	default:
		return r, fmt.Errorf("%w: appliance.%s", ErrUnknownField, field)
	}

	r, _ = Sync(r)
	return r, nil
}

// RemoveAppliance drops the appliance with the given id
func RemoveAppliance(r domain.ProjectRecord, id string) (domain.ProjectRecord, error) {
	idx := applianceIndex(r.Appliances, id)
	if idx < 0 {
		return r, fmt.Errorf("%w: %s", ErrApplianceNotFound, id)
	}

	out := r.Clone()
	out.Appliances = append(out.Appliances[:idx], out.Appliances[idx+1:]...)
	out, _ = Sync(out)
	return out, nil
}

func numericField(r *domain.ProjectRecord, field string) *float64 {
	switch field {
	case "dailyEnergyKwh":
		return &r.DailyEnergyKwh
	case "peakSunHours":
		return &r.PeakSunHours
	case "systemEfficiency":
		return &r.SystemEfficiency
	case "panelWattage":
		return &r.PanelWattage
	case "daysOfAutonomy":
		return &r.DaysOfAutonomy
	case "batteryDoD":
		return &r.BatteryDoD
	case "batteryVoltage":
		return &r.BatteryVoltage
	case "availableBatteryAh":
		return &r.AvailableBatteryAh
	case "availableBatteryVoltage":
		return &r.AvailableBatteryVoltage
	case "selectedInverterKva":
		return &r.SelectedInverterKva
	}
	return nil
}

func applianceIndex(appliances []domain.ApplianceEntry, id string) int {
	for i, a := range appliances {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// parseNumber reads a non-negative finite number, defaulting to 0
func parseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return clean(v)
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return v
}
