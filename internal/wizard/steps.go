// Package wizard gates progression through the project data-entry steps.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"solar_planner/internal/domain"
)

// Step identifies one page of the wizard
type Step int

const (
	ProjectDetails Step = iota
	EnergyConsumption
	InverterSizing
	BatterySizing
	PanelSizing
	Summary
)

var ErrUnknownStep = errors.New("unknown step")

var stepNames = []string{
	"ProjectDetails",
	"EnergyConsumption",
	"InverterSizing",
	"BatterySizing",
	"PanelSizing",
	"Summary",
}

// Steps returns every step in wizard order
func Steps() []Step {
	return []Step{ProjectDetails, EnergyConsumption, InverterSizing, BatterySizing, PanelSizing, Summary}
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is a known step
func (s Step) Valid() bool {
	return s >= ProjectDetails && s <= Summary
}

// MarshalText renders the step by name
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStep resolves a step name, ignoring case
func ParseStep(name string) (Step, error) {
	name = strings.TrimSpace(name)
	for i, n := range stepNames {
		if strings.EqualFold(n, name) {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

// Result is the outcome of validating one step
type Result struct {
	Step    Step   `json:"step"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	// Blocking is set when an invalid step must stop forward movement.
	// Only brand-new records are gated.
	Blocking bool `json:"blocking"`
}

// ValidateStep evaluates the step predicate for r. It has no side effects.
func ValidateStep(r domain.ProjectRecord, d domain.DerivedMetrics, step Step, isNew bool) Result {
	res := Result{Step: step, Valid: true}

	switch step {
	case ProjectDetails:
		if strings.TrimSpace(r.ProjectName) == "" {
			res.Valid, res.Message = false, "Project name is required"
		}
	case EnergyConsumption:
		if r.CalcMethod == domain.CalcMethodBill {
			if !(r.DailyEnergyKwh > 0) {
				res.Valid, res.Message = false, "Enter the average daily energy use from the bill"
			}
		} else if !(d.TotalApplianceWattHours > 0) {
			res.Valid, res.Message = false, "Add at least one appliance with quantity, wattage and hours"
		}
	case InverterSizing:
		if !(r.PeakLoad > 0) {
			res.Valid, res.Message = false, "Peak load must be greater than zero"
		}
	case BatterySizing:
		if !(r.DaysOfAutonomy > 0 && r.AvailableBatteryAh > 0) {
			res.Valid, res.Message = false, "Days of autonomy and battery capacity must be greater than zero"
		}
	case PanelSizing:
		if !(r.PeakSunHours > 0 && r.SystemEfficiency > 0 && r.PanelWattage > 0) {
			res.Valid, res.Message = false, "Peak sun hours, system efficiency and panel wattage must be greater than zero"
		}
	case Summary:
	default:
		res.Valid, res.Message = false, fmt.Sprintf("%v: %d", ErrUnknownStep, int(step))
	}

	res.Blocking = !res.Valid && isNew
	return res
}
