package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/fleetcare/booking"
	"github.com/tailored-agentic-units/fleetcare/kernel"
	"github.com/tailored-agentic-units/fleetcare/voice"
)

var bookFlags struct {
	vehicle string
	padMM   float64
	city    string
	answer  string
	db      string
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Handle a brake sensor event: diagnose, call the owner, book a visit",
	Long: `Diagnoses a brake pad reading for a vehicle in the vehicle database. When
the pads are worn the owner is called; without --answer the call prompt is
printed and the answer is read from stdin.`,
	RunE: runBook,
}

func init() {
	f := bookCmd.Flags()
	f.StringVar(&bookFlags.vehicle, "vehicle", "MH-01-AB-1234", "Vehicle registration in the database")
	f.Float64Var(&bookFlags.padMM, "pad-mm", 2.5, "Brake pad thickness in mm")
	f.StringVar(&bookFlags.city, "city", "Mumbai", "Service city")
	f.StringVar(&bookFlags.answer, "answer", "", "Owner's answer; read from stdin when empty")
	f.StringVar(&bookFlags.db, "db", "", "Vehicle database file (overrides config)")
}

func runBook(cmd *cobra.Command, _ []string) error {
	if bookFlags.db != "" {
		cfg.Store.Path = bookFlags.db
	}

	var caller voice.Caller = voice.ConsoleCaller{
		Speaker: voice.NewDisabledSpeaker(cmd.OutOrStdout()),
		In:      cmd.InOrStdin(),
	}
	if bookFlags.answer != "" {
		caller = voice.ScriptedCaller{Answer: bookFlags.answer}
	}

	k, err := newKernel(kernel.WithCaller(caller))
	if err != nil {
		return err
	}
	defer k.Close()

	flow, err := k.Booking().ProcessBrakeEvent(cmd.Context(), bookFlags.vehicle, bookFlags.padMM, bookFlags.city)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch flow.Status {
	case booking.StatusNoIssue:
		fmt.Fprintf(out, "%s: brake pads OK, no action needed.\n", flow.VehicleID)
	case booking.StatusDeclined:
		fmt.Fprintf(out, "%s: %s detected, %s declined the booking.\n", flow.VehicleID, flow.Issue, flow.Owner)
	case booking.StatusBooked:
		fmt.Fprintf(out, "%s: %s detected, booked %s in %s.\n", flow.VehicleID, flow.Issue, flow.Booking.Slot, flow.Booking.City)
	}
	return nil
}
