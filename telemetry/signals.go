// Package telemetry defines the vehicle data the maintenance pipeline
// consumes: per-request signals, the analysis request contract, the static
// fleet table, and the maintenance corpus.
package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Signals are the raw readings for one vehicle. Built once per request and
// never modified afterwards.
type Signals struct {
	EngineTemp    float64 `json:"engine_temp"`    // °F
	BrakeHealth   float64 `json:"brake_health"`   // percent
	BatteryHealth float64 `json:"battery_health"` // percent
	TyrePressure  float64 `json:"tyre_pressure"`  // PSI
	Mileage       float64 `json:"mileage"`        // km
	Year          int     `json:"year"`
}

// Request is a validated analysis request for one vehicle.
type Request struct {
	VehicleID string  `json:"vehicle_id"`
	Make      string  `json:"make"`
	Model     string  `json:"model"`
	OwnerName string  `json:"owner_name"`
	City      string  `json:"city"`
	Signals   Signals `json:"signals"`
}

// Payload is the wire shape of an analysis request. Every field is required;
// pointers distinguish an absent field from a zero value.
type Payload struct {
	Make          *string  `json:"make" yaml:"make"`
	Model         *string  `json:"model" yaml:"model"`
	Year          *int     `json:"year" yaml:"year"`
	Mileage       *float64 `json:"mileage" yaml:"mileage"`
	EngineTemp    *float64 `json:"engine_temp" yaml:"engine_temp"`
	BrakeHealth   *float64 `json:"brake_health" yaml:"brake_health"`
	BatteryHealth *float64 `json:"battery_health" yaml:"battery_health"`
	TyrePressure  *float64 `json:"tyre_pressure" yaml:"tyre_pressure"`
	OwnerName     *string  `json:"owner_name" yaml:"owner_name"`
	City          *string  `json:"city" yaml:"city"`
	VehicleID     *string  `json:"vehicle_id" yaml:"vehicle_id"`
}

// Input-contract violations. Both are fatal for the request.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
)

// FieldError names the offending payload field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Request converts the payload into a Request, reporting every missing field.
func (p Payload) Request() (Request, error) {
	var errs []error
	str := func(name string, v *string) string {
		if v == nil {
			errs = append(errs, &FieldError{Field: name, Err: ErrMissingField})
			return ""
		}
		return *v
	}
	num := func(name string, v *float64) float64 {
		if v == nil {
			errs = append(errs, &FieldError{Field: name, Err: ErrMissingField})
			return 0
		}
		return *v
	}

	req := Request{
		Make:      str("make", p.Make),
		Model:     str("model", p.Model),
		OwnerName: str("owner_name", p.OwnerName),
		City:      str("city", p.City),
		VehicleID: str("vehicle_id", p.VehicleID),
		Signals: Signals{
			Mileage:       num("mileage", p.Mileage),
			EngineTemp:    num("engine_temp", p.EngineTemp),
			BrakeHealth:   num("brake_health", p.BrakeHealth),
			BatteryHealth: num("battery_health", p.BatteryHealth),
			TyrePressure:  num("tyre_pressure", p.TyrePressure),
		},
	}
	if p.Year == nil {
		errs = append(errs, &FieldError{Field: "year", Err: ErrMissingField})
	} else {
		req.Signals.Year = *p.Year
	}

	if len(errs) > 0 {
		return Request{}, errors.Join(errs...)
	}
	return req, nil
}

// PayloadFor renders a Request back into its wire shape.
func PayloadFor(req Request) Payload {
	s := req.Signals
	return Payload{
		Make:          &req.Make,
		Model:         &req.Model,
		Year:          &s.Year,
		Mileage:       &s.Mileage,
		EngineTemp:    &s.EngineTemp,
		BrakeHealth:   &s.BrakeHealth,
		BatteryHealth: &s.BatteryHealth,
		TyrePressure:  &s.TyrePressure,
		OwnerName:     &req.OwnerName,
		City:          &req.City,
		VehicleID:     &req.VehicleID,
	}
}

// DecodeRequest reads a JSON payload and validates it. Wrong-typed fields are
// reported as ErrInvalidField, absent ones as ErrMissingField.
func DecodeRequest(r io.Reader) (Request, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Request{}, &FieldError{Field: typeErr.Field, Err: ErrInvalidField}
		}
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return p.Request()
}

// ParseRequest is DecodeRequest over a byte slice.
func ParseRequest(data []byte) (Request, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Request{}, fmt.Errorf("%w: empty payload", ErrMissingField)
	}
	return DecodeRequest(bytes.NewReader(data))
}

// DefaultRequest is the demo payload used when nothing else is known about
// the caller's vehicle.
func DefaultRequest() Request {
	return Request{
		VehicleID: "V001",
		Make:      "Mahindra",
		Model:     "XUV700",
		OwnerName: "Owner",
		City:      "Mumbai",
		Signals: Signals{
			EngineTemp:    195,
			BrakeHealth:   80,
			BatteryHealth: 75,
			TyrePressure:  32,
			Mileage:       45000,
			Year:          2022,
		},
	}
}

// String is a short identity used in logs.
func (r Request) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s (%d)", r.VehicleID, r.Make, r.Model, r.Signals.Year))
}
