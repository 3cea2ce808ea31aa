package domain

// InverterCatalogKva lists standard inverter ratings in ascending order
var InverterCatalogKva = []float64{1, 1.5, 2, 2.5, 3, 4, 5, 8, 10, 12}

// Option is a labelled value offered to a selector
type Option struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Catalog groups the standard choices for each selectable input
type Catalog struct {
	InverterKva         []float64 `json:"inverterKva"`
	PanelWattages       []Option  `json:"panelWattages"`
	BatteryTypes        []Option  `json:"batteryTypes"`
	SystemVoltages      []Option  `json:"systemVoltages"`
	BatteryUnitVoltages []Option  `json:"batteryUnitVoltages"`
}

// DefaultCatalog returns the standard option lists
func DefaultCatalog() Catalog {
	kva := make([]float64, len(InverterCatalogKva))
	copy(kva, InverterCatalogKva)

	return Catalog{
		InverterKva: kva,
		PanelWattages: []Option{
			{300, "300W"},
			{400, "400W"},
			{450, "450W"},
			{550, "550W"},
		},
		BatteryTypes: []Option{
			{0.8, "Lithium-ion (80% DoD)"},
			{0.9, "Lithium-ion (90% DoD)"},
			{0.5, "Lead-Acid (50% DoD)"},
		},
		SystemVoltages: []Option{
			{12, "12V"},
			{24, "24V"},
			{48, "48V"},
		},
		BatteryUnitVoltages: []Option{
			{2, "2V"},
			{6, "6V"},
			{12, "12V"},
		},
	}
}
