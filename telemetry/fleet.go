package telemetry

import "fmt"

// Vehicle is one row of the static fleet table.
type Vehicle struct {
	ID          string `json:"id"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	City        string `json:"city"`
	Segment     string `json:"segment"`
	AvgKmPerDay int    `json:"avg_km_per_day"`
}

type fleetRow struct {
	make, model, city, segment string
	age, kmPerDay              int
}

var fleetTable = []fleetRow{
	{"Hero", "Xtreme 160R", "Mumbai", "2W", 1, 38},
	{"Hero", "Splendor Plus", "Pune", "2W", 3, 32},
	{"Hero", "Glamour", "Delhi", "2W", 2, 45},
	{"Hero", "Maestro Edge", "Nagpur", "2W", 4, 25},
	{"Mahindra", "XUV700", "Bengaluru", "4W", 1, 52},
	{"Mahindra", "Scorpio N", "Chennai", "4W", 5, 40},
	{"Mahindra", "Thar", "Jaipur", "4W", 3, 30},
	{"Mahindra", "Bolero Neo", "Lucknow", "4W", 6, 34},
	{"Hero", "Xpulse 200", "Hyderabad", "2W", 2, 48},
	{"Mahindra", "XUV300", "Indore", "4W", 4, 29},
	{"Hero", "Destini 125", "Surat", "2W", 2, 28},
	{"Mahindra", "Bolero", "Ranchi", "4W", 7, 36},
	{"Tata", "Nexon EV", "Kolkata", "4W", 1, 44},
	{"Tata", "Harrier", "Ahmedabad", "4W", 3, 31},
	{"Maruti", "Swift", "Bengaluru", "4W", 2, 38},
	{"Hyundai", "i20", "Pune", "4W", 1, 29},
	{"Kia", "Seltos", "Chennai", "4W", 4, 33},
	{"Honda", "CB Shine", "Lucknow", "2W", 2, 26},
	{"RoyalEnfield", "Classic 350", "Jaipur", "2W", 3, 22},
	{"Mahindra", "Marazzo", "Delhi", "4W", 5, 27},
}

// BuildFleet returns the 20-vehicle demo fleet with model years relative to
// baseYear.
func BuildFleet(baseYear int) []Vehicle {
	fleet := make([]Vehicle, len(fleetTable))
	for i, row := range fleetTable {
		fleet[i] = Vehicle{
			ID:          vehicleID(i + 1),
			Make:        row.make,
			Model:       row.model,
			Year:        baseYear - row.age,
			City:        row.city,
			Segment:     row.segment,
			AvgKmPerDay: row.kmPerDay,
		}
	}
	return fleet
}

// FindVehicle looks a vehicle up by id.
func FindVehicle(fleet []Vehicle, id string) (Vehicle, bool) {
	for _, v := range fleet {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

func vehicleID(n int) string {
	return fmt.Sprintf("V%03d", n)
}
