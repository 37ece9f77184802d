// internal/tracker/extract.go
package tracker

import (
	"regexp"
	"strconv"

	"github.com/user/inkwell/internal/types"
)

// datePatterns are tried in fixed priority order; the first match wins.
// Explicit RP_DATE markers come first since the host model is instructed to
// emit them, then the structured date tag, the localized phrase, and the
// plain numeric forms as a backstop.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{\{RP_DATE:\s*(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일\s*\}\}`),
	regexp.MustCompile(`\{\{RP_DATE:\s*(\d{4})-(\d{1,2})-(\d{1,2})\s*\}\}`),
	regexp.MustCompile(`\[RP_DATE:\s*(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일\s*\]`),
	regexp.MustCompile(`(?i)<date[^>]*year="(\d+)"[^>]*month="(\d+)"[^>]*day="(\d+)"[^>]*>`),
	regexp.MustCompile(`\[?(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일\]?`),
	regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`),
}

// markerPattern matches any RP_DATE marker for scrubbing from display text.
var markerPattern = regexp.MustCompile(`\{\{RP_DATE:[^}]+\}\}|\[RP_DATE:[^\]]+\]`)

// Extractor pulls a StoryDate out of unstructured message text.
// Range validation is an opt-in policy: the stories this follows may run on
// fictional calendars, so out-of-range month/day values pass through by
// default, exactly as the host produced them.
type Extractor struct {
	ValidateRange bool
}

// Extract returns the first date matched by the recognized patterns.
// Pure function of the input; returns false when nothing matches (or when
// the matched date fails the optional range policy).
func (e Extractor) Extract(text string) (types.StoryDate, bool) {
	if text == "" {
		return types.StoryDate{}, false
	}
	for _, pattern := range datePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		year, err1 := strconv.Atoi(m[1])
		month, err2 := strconv.Atoi(m[2])
		day, err3 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		date := types.StoryDate{Year: year, Month: month, Day: day}
		if e.ValidateRange && !inRange(date) {
			return types.StoryDate{}, false
		}
		return date, true
	}
	return types.StoryDate{}, false
}

func inRange(d types.StoryDate) bool {
	return d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 31
}

// ScrubMarkers removes RP_DATE markers from text bound for presentation.
func ScrubMarkers(text string) string {
	return markerPattern.ReplaceAllString(text, "")
}
