package telemetry

import "time"

// Component is a serviced vehicle subsystem in the maintenance corpus.
type Component string

const (
	Brakes     Component = "Brakes"
	Battery    Component = "Battery"
	Engine     Component = "Engine"
	Tyres      Component = "Tyres"
	Suspension Component = "Suspension"
)

// Components lists every corpus component in generation order.
func Components() []Component {
	return []Component{Brakes, Battery, Engine, Tyres, Suspension}
}

// MaintenanceRecord is one historical service job. The corpus is built once
// and read-only afterwards.
type MaintenanceRecord struct {
	VehicleID  string    `json:"vehicle_id"`
	Date       time.Time `json:"date"`
	Component  Component `json:"component"`
	Issue      string    `json:"issue"`
	Severity   int       `json:"severity"`
	Cost       int       `json:"cost"`
	RCATag     string    `json:"rca_tag"`
	CAPAAction string    `json:"capa_action"`
}

type componentProfile struct {
	issue string
	rca   string
	capa  string
}

var profiles = map[Component]componentProfile{
	Brakes:     {"Brake pad wear", "City stop-go traffic", "Upgrade pad material; better cooling slots"},
	Battery:    {"Cranking issue", "Short trips / accessories", "Higher CCA rating; smart alternator profile"},
	Engine:     {"Overheating", "Low coolant / oil quality", "Improved cooling routing; sensor calibration"},
	Tyres:      {"Uneven wear", "Improper alignment", "Factory alignment spec update"},
	Suspension: {"Noise on bumps", "Bad roads", "Reinforced bushings"},
}
