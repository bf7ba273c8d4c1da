// Package dates rewrites natural-language date phrases inside free text
// into ISO YYYY-MM-DD form. It is a pure textual rewrite: phrases that
// cannot be resolved to a calendar date are left untouched.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const isoDate = "2006-01-02"

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december`

var (
	betweenRe = regexp.MustCompile(`(?i)between\s+(.*?)\s+and\s+(.*?)([.!?]|$)`)

	// Standalone phrases, resolved independently and replaced in place.
	phraseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btoday\b`),
		regexp.MustCompile(`(?i)\btomorrow\b`),
		regexp.MustCompile(`(?i)\byesterday\b`),
		regexp.MustCompile(`(?i)\b(?:next|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		regexp.MustCompile(`(?i)\b(?:on\s+)?\d{1,2}(?:st|nd|rd|th)?\s+(?:` + monthNames + `)\b`),
		regexp.MustCompile(`(?i)\b(?:on\s+)?(?:` + monthNames + `)\s+\d{1,2}(?:st|nd|rd|th)?\b`),
	}

	ordinalRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	leadOnRe  = regexp.MustCompile(`(?i)^on\s+`)
)

// Normalize rewrites date phrases in text relative to now. Each matched
// span is substituted at most once, left to right.
func Normalize(text string, now time.Time) string {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	// "between X and Y" spans first, so the standalone patterns do not
	// consume their halves separately.
	text = betweenRe.ReplaceAllStringFunc(text, func(span string) string {
		m := betweenRe.FindStringSubmatch(span)
		from, okFrom := resolvePhrase(parser, m[1], now)
		to, okTo := resolvePhrase(parser, m[2], now)
		if !okFrom || !okTo {
			return span
		}
		return "from " + from + " to " + to + m[3]
	})

	for _, re := range phraseRes {
		text = re.ReplaceAllStringFunc(text, func(phrase string) string {
			if iso, ok := resolvePhrase(parser, phrase, now); ok {
				return iso
			}
			return phrase
		})
	}

	return text
}

// resolvePhrase turns one phrase into an ISO date. Explicit month-day
// forms are parsed with time layouts (year taken from now); relative
// phrases go through the natural-language parser.
func resolvePhrase(parser *when.Parser, phrase string, now time.Time) (string, bool) {
	phrase = strings.TrimSpace(leadOnRe.ReplaceAllString(phrase, ""))
	if phrase == "" {
		return "", false
	}

	if iso, ok := parseMonthDay(phrase, now); ok {
		return iso, true
	}

	r, err := parser.Parse(phrase, now)
	if err != nil || r == nil {
		return "", false
	}
	// The match must cover the whole phrase; a date-like fragment inside
	// a longer span is not a resolution of that span.
	if r.Index != 0 || len(r.Text) != len(phrase) {
		return "", false
	}
	return r.Time.Format(isoDate), true
}

func parseMonthDay(phrase string, now time.Time) (string, bool) {
	cleaned := titleWords(ordinalRe.ReplaceAllString(phrase, "$1"))
	for _, layout := range []string{"2 January", "January 2"} {
		t, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		return d.Format(isoDate), true
	}
	return "", false
}

// titleWords uppercases the first letter of each ASCII word so month
// names match time package layouts.
func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}
