// Package voice holds the speech and owner-call collaborators. There is no
// speech engine in this build: speech is written out as text.
package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// DisabledSpeaker prints what would have been spoken.
type DisabledSpeaker struct {
	Out io.Writer
	mu  sync.Mutex
}

func NewDisabledSpeaker(out io.Writer) *DisabledSpeaker {
	return &DisabledSpeaker{Out: out}
}

func (s *DisabledSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.Out, "[VOICE DISABLED] "+text)
	return err
}

// Caller phones a vehicle owner about an issue and returns their answer.
type Caller interface {
	Call(ctx context.Context, owner, issue string) (string, error)
}

// ScriptedCaller answers every call with Answer.
type ScriptedCaller struct {
	Answer string
}

func (c ScriptedCaller) Call(context.Context, string, string) (string, error) {
	return c.Answer, nil
}

// ConsoleCaller speaks the call prompt and reads the owner's answer from In.
type ConsoleCaller struct {
	Speaker Speaker
	In      io.Reader
}

// CallPrompt is what the owner hears.
func CallPrompt(owner, issue string) string {
	return fmt.Sprintf("Hello %s, our telematics detected %s on your vehicle. Shall I book a service visit for you?", owner, issue)
}

func (c ConsoleCaller) Call(ctx context.Context, owner, issue string) (string, error) {
	if err := c.Speaker.Speak(ctx, CallPrompt(owner, issue)); err != nil {
		return "", fmt.Errorf("speak prompt: %w", err)
	}

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Accepted reports whether an answer agrees to the booking: it contains
// "yes" or starts with "y".
func Accepted(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return strings.Contains(a, "yes") || strings.HasPrefix(a, "y")
}
