package conversation

import (
	"slices"
	"strings"
)

var greetingPhrases = []string{
	"hello", "hi", "hey",
	"good morning", "good evening", "good afternoon",
	"greetings", "hi there", "hello there",
}

// IsGreeting reports whether text reads as a standalone greeting: either
// an exact greeting phrase, or a short message (three words or fewer)
// containing one.
func IsGreeting(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))

	if len(strings.Fields(text)) <= 3 {
		for _, greet := range greetingPhrases {
			if strings.Contains(text, greet) {
				return true
			}
		}
	}

	return slices.Contains(greetingPhrases, text)
}
