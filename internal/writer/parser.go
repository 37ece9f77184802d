// internal/writer/parser.go
package writer

import (
	"regexp"
	"strings"
)

// ParsedEntry holds the structured fields recovered from a model response.
type ParsedEntry struct {
	FontStyle   string
	Weather     string
	Mood        string
	Content     string
	ImagePrompt string
}

const (
	defaultWeather     = "☀️"
	placeholderContent = "오늘 하루도 무사히 지나갔다..."
)

var (
	styleTag   = regexp.MustCompile(`(?s)<style>(.*?)</style>`)
	weatherTag = regexp.MustCompile(`(?s)<weather>(.*?)</weather>`)
	moodTag    = regexp.MustCompile(`(?s)<mood>(.*?)</mood>`)
	contentTag = regexp.MustCompile(`(?s)<content>(.*?)</content>`)
	imageTag   = regexp.MustCompile(`(?s)<image>(.*?)</image>`)
	diaryTag   = regexp.MustCompile(`(?s)<diary>(.*?)</diary>`)
)

// ParseResponse extracts the tagged sections from a model response. Every
// section is independently optional and degrades to a default; the function
// never fails. When no <content> section exists the content falls back to
// the <diary> body stripped of the other known tags, and finally to a fixed
// placeholder line.
func ParseResponse(response string) ParsedEntry {
	parsed := ParsedEntry{
		FontStyle: DefaultFontStyle,
		Weather:   defaultWeather,
	}

	if m := styleTag.FindStringSubmatch(response); m != nil {
		if key := strings.TrimSpace(m[1]); ValidStyle(key) {
			parsed.FontStyle = key
		}
	}
	if m := weatherTag.FindStringSubmatch(response); m != nil {
		if w := strings.TrimSpace(m[1]); w != "" {
			parsed.Weather = w
		}
	}
	if m := moodTag.FindStringSubmatch(response); m != nil {
		parsed.Mood = strings.TrimSpace(m[1])
	}
	if m := contentTag.FindStringSubmatch(response); m != nil {
		parsed.Content = strings.TrimSpace(m[1])
	}
	if m := imageTag.FindStringSubmatch(response); m != nil {
		parsed.ImagePrompt = strings.TrimSpace(m[1])
	}

	if parsed.Content == "" {
		if m := diaryTag.FindStringSubmatch(response); m != nil {
			body := m[1]
			for _, tag := range []*regexp.Regexp{styleTag, weatherTag, moodTag, imageTag} {
				body = tag.ReplaceAllString(body, "")
			}
			parsed.Content = strings.TrimSpace(body)
		}
	}
	if parsed.Content == "" {
		parsed.Content = placeholderContent
	}

	return parsed
}
