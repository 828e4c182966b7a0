package assistant

import "strings"

// Intent is what a chat or voice utterance asks for.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentAnalyze
	IntentBook
	IntentConfirm
)

func (i Intent) String() string {
	switch i {
	case IntentAnalyze:
		return "analyze"
	case IntentBook:
		return "book"
	case IntentConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// Classifier maps text to an Intent.
type Classifier interface {
	Classify(text string) Intent
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(text string) Intent

func (f ClassifierFunc) Classify(text string) Intent { return f(text) }

// KeywordClassifier matches lowercase substrings. Intents are checked in
// order analyze, book, confirm; the first with any matching keyword wins.
type KeywordClassifier struct {
	Analyze []string
	Book    []string
	Confirm []string
}

func DefaultKeywords() KeywordClassifier {
	return KeywordClassifier{
		Analyze: []string{"analyze", "scan", "diagnos", "health", "check"},
		Book:    []string{"book", "slot", "schedule", "appointment", "confirm"},
		Confirm: []string{"yes", "ok", "confirm"},
	}
}

func (k KeywordClassifier) Classify(text string) Intent {
	q := strings.ToLower(strings.TrimSpace(text))
	switch {
	case containsAny(q, k.Analyze):
		return IntentAnalyze
	case containsAny(q, k.Book):
		return IntentBook
	case containsAny(q, k.Confirm):
		return IntentConfirm
	default:
		return IntentUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
