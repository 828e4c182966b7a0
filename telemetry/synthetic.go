package telemetry

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Config controls the synthetic fleet data.
type Config struct {
	CorpusSize  int    `json:"corpus_size,omitempty" yaml:"corpus_size,omitempty"`
	Seed        uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	HistoryDays int    `json:"history_days,omitempty" yaml:"history_days,omitempty"`
}

// DefaultConfig returns 200 records over the last two years, seed 42.
func DefaultConfig() Config {
	return Config{
		CorpusSize:  200,
		Seed:        42,
		HistoryDays: 730,
	}
}

func (c *Config) Merge(source *Config) {
	if source.CorpusSize > 0 {
		c.CorpusSize = source.CorpusSize
	}
	if source.Seed > 0 {
		c.Seed = source.Seed
	}
	if source.HistoryDays > 0 {
		c.HistoryDays = source.HistoryDays
	}
}

// ErrInvalidConfig reports synthetic data settings that cannot generate a
// corpus.
var ErrInvalidConfig = errors.New("invalid telemetry config")

// Validate rejects a negative corpus size and a non-empty corpus without a
// history window.
func (c Config) Validate() error {
	if c.CorpusSize < 0 {
		return fmt.Errorf("%w: corpus_size %d is negative", ErrInvalidConfig, c.CorpusSize)
	}
	if c.CorpusSize > 0 && c.HistoryDays <= 0 {
		return fmt.Errorf("%w: history_days must be positive, got %d", ErrInvalidConfig, c.HistoryDays)
	}
	return nil
}

// BuildMaintenanceLog generates the maintenance corpus. The same seed and
// day always produce the same records. cfg must pass Validate.
func BuildMaintenanceLog(today time.Time, cfg Config) []MaintenanceRecord {
	src := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	components := Components()
	fleetSize := len(fleetTable)

	records := make([]MaintenanceRecord, cfg.CorpusSize)
	for i := range records {
		comp := components[src.IntN(len(components))]
		profile := profiles[comp]
		records[i] = MaintenanceRecord{
			VehicleID:  vehicleID(src.IntN(fleetSize) + 1),
			Date:       day.AddDate(0, 0, -(src.IntN(cfg.HistoryDays) + 1)),
			Component:  comp,
			Issue:      profile.issue,
			Severity:   src.IntN(5) + 1,
			Cost:       800 + src.IntN(20000-800+1),
			RCATag:     profile.rca,
			CAPAAction: profile.capa,
		}
	}
	return records
}

// SyntheticSignals derives plausible readings for a fleet vehicle. Mileage
// follows the vehicle's age and daily usage; the rest is drawn from a source
// seeded by the vehicle position so scans are repeatable.
func SyntheticSignals(v Vehicle, baseYear int, seed uint64) Signals {
	src := rand.New(rand.NewPCG(seed, uint64(len(v.ID))+uint64(v.AvgKmPerDay)))
	age := max(1, baseYear-v.Year)

	return Signals{
		EngineTemp:    float64(180 + src.IntN(71)),
		BrakeHealth:   float64(20 + src.IntN(81)),
		BatteryHealth: float64(20 + src.IntN(81)),
		TyrePressure:  float64(26 + src.IntN(13)),
		Mileage:       float64(v.AvgKmPerDay * 365 * age),
		Year:          v.Year,
	}
}

// FleetRequests builds one analysis request per fleet vehicle.
func FleetRequests(fleet []Vehicle, baseYear int, seed uint64) []Request {
	reqs := make([]Request, len(fleet))
	for i, v := range fleet {
		reqs[i] = Request{
			VehicleID: v.ID,
			Make:      v.Make,
			Model:     v.Model,
			OwnerName: "Owner " + v.ID,
			City:      v.City,
			Signals:   SyntheticSignals(v, baseYear, seed+uint64(i)),
		}
	}
	return reqs
}
