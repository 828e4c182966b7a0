package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/fleetcare/kernel"
	"github.com/tailored-agentic-units/fleetcare/voice"
)

var chatSpeak bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the maintenance assistant",
	Long: `Reads one utterance per line from stdin and prints the assistant's reply.
Try "analyze vehicle", "book slot", or "yes" after an analysis. An empty
line or EOF ends the session.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatSpeak, "speak", false, "Speak each reply")
}

func runChat(cmd *cobra.Command, _ []string) error {
	var opts []kernel.Option
	if chatSpeak {
		opts = append(opts, kernel.WithSpeaker(voice.NewDisabledSpeaker(cmd.ErrOrStderr())))
	}

	k, err := newKernel(opts...)
	if err != nil {
		return err
	}
	defer k.Close()

	dashboard := k.Sessions().Get("")
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			break
		}

		reply, err := k.Assistant().Handle(cmd.Context(), dashboard, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.Text)
	}
	fmt.Fprintln(out)

	c := dashboard.Counters()
	fmt.Fprintf(out, "Session %s: %d analyses, %d bookings\n", dashboard.ID(), c.TotalAnalyses, len(dashboard.Bookings()))
	return scanner.Err()
}
