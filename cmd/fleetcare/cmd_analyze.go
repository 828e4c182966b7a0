package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/fleetcare/telemetry"
	"github.com/tailored-agentic-units/fleetcare/voice"
)

var analyzeFlags struct {
	payload  string
	asJSON   bool
	speak    bool
	override telemetry.Request
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the six-stage maintenance pipeline for one vehicle",
	Long: `Runs risk analysis, diagnosis, scheduling, the owner call script, the
feedback plan, and manufacturing insights for one vehicle.

Without --payload the demo vehicle (V001, Mahindra XUV700) is analysed.
Individual signal flags override the payload.`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	o := &analyzeFlags.override
	f.StringVar(&analyzeFlags.payload, "payload", "", "Request payload file (JSON or YAML)")
	f.BoolVar(&analyzeFlags.asJSON, "json", false, "Print the composite result as JSON")
	f.BoolVar(&analyzeFlags.speak, "speak", false, "Speak the engagement script")
	f.StringVar(&o.VehicleID, "vehicle", "", "Vehicle id")
	f.StringVar(&o.Make, "make", "", "Vehicle make")
	f.StringVar(&o.Model, "model", "", "Vehicle model")
	f.StringVar(&o.OwnerName, "owner", "", "Owner name")
	f.StringVar(&o.City, "city", "", "Service city")
	f.IntVar(&o.Signals.Year, "year", 0, "Model year")
	f.Float64Var(&o.Signals.Mileage, "mileage", 0, "Odometer in km")
	f.Float64Var(&o.Signals.EngineTemp, "engine-temp", 0, "Engine temperature in °F")
	f.Float64Var(&o.Signals.BrakeHealth, "brake-health", 0, "Brake health percent")
	f.Float64Var(&o.Signals.BatteryHealth, "battery-health", 0, "Battery health percent")
	f.Float64Var(&o.Signals.TyrePressure, "tyre-pressure", 0, "Tyre pressure in PSI")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	req, err := analyzeRequest(cmd)
	if err != nil {
		return err
	}

	k, err := newKernel()
	if err != nil {
		return err
	}
	defer k.Close()

	result, err := k.Orchestrator().Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeFlags.asJSON {
		return writeJSON(out, result)
	}
	printResult(out, req, result)

	if analyzeFlags.speak {
		return voice.NewDisabledSpeaker(cmd.ErrOrStderr()).Speak(cmd.Context(), result.VoiceScript)
	}
	return nil
}

func analyzeRequest(cmd *cobra.Command) (telemetry.Request, error) {
	req := telemetry.DefaultRequest()
	if analyzeFlags.payload != "" {
		r, err := loadPayload(analyzeFlags.payload)
		if err != nil {
			return telemetry.Request{}, err
		}
		req = r
	}

	f := cmd.Flags()
	o := analyzeFlags.override
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("vehicle", func() { req.VehicleID = o.VehicleID })
	set("make", func() { req.Make = o.Make })
	set("model", func() { req.Model = o.Model })
	set("owner", func() { req.OwnerName = o.OwnerName })
	set("city", func() { req.City = o.City })
	set("year", func() { req.Signals.Year = o.Signals.Year })
	set("mileage", func() { req.Signals.Mileage = o.Signals.Mileage })
	set("engine-temp", func() { req.Signals.EngineTemp = o.Signals.EngineTemp })
	set("brake-health", func() { req.Signals.BrakeHealth = o.Signals.BrakeHealth })
	set("battery-health", func() { req.Signals.BatteryHealth = o.Signals.BatteryHealth })
	set("tyre-pressure", func() { req.Signals.TyrePressure = o.Signals.TyrePressure })

	return req, nil
}

func loadPayload(path string) (telemetry.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return telemetry.Request{}, fmt.Errorf("open payload: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var p telemetry.Payload
		if err := yaml.NewDecoder(f).Decode(&p); err != nil {
			return telemetry.Request{}, fmt.Errorf("%w: %v", telemetry.ErrInvalidField, err)
		}
		return p.Request()
	default:
		return telemetry.DecodeRequest(f)
	}
}
