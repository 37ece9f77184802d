// internal/writer/parser_test.go
package writer

import "testing"

func TestParseResponseFullTags(t *testing.T) {
	response := `<diary>
<style>dreamy</style>
<weather>🌧️</weather>
<mood>아련함</mood>
<content>
빗소리를 들으며 하루를 돌아본다.
</content>
<image>1girl, brown hair, long hair, green eyes, window, rain, sitting</image>
</diary>`

	parsed := ParseResponse(response)
	if parsed.FontStyle != "dreamy" {
		t.Errorf("FontStyle = %q, want dreamy", parsed.FontStyle)
	}
	if parsed.Weather != "🌧️" {
		t.Errorf("Weather = %q, want 🌧️", parsed.Weather)
	}
	if parsed.Mood != "아련함" {
		t.Errorf("Mood = %q, want 아련함", parsed.Mood)
	}
	if parsed.Content != "빗소리를 들으며 하루를 돌아본다." {
		t.Errorf("Content = %q", parsed.Content)
	}
	if parsed.ImagePrompt != "1girl, brown hair, long hair, green eyes, window, rain, sitting" {
		t.Errorf("ImagePrompt = %q", parsed.ImagePrompt)
	}
}

func TestParseResponseContentOnly(t *testing.T) {
	parsed := ParseResponse("<content>오늘은 좋은 날이었다.</content>")
	if parsed.Content != "오늘은 좋은 날이었다." {
		t.Errorf("Content = %q", parsed.Content)
	}
	if parsed.FontStyle != DefaultFontStyle {
		t.Errorf("FontStyle = %q, want %q", parsed.FontStyle, DefaultFontStyle)
	}
	if parsed.Weather != defaultWeather {
		t.Errorf("Weather = %q, want %q", parsed.Weather, defaultWeather)
	}
	if parsed.Mood != "" {
		t.Errorf("Mood = %q, want empty", parsed.Mood)
	}
	if parsed.ImagePrompt != "" {
		t.Errorf("ImagePrompt = %q, want empty", parsed.ImagePrompt)
	}
}

func TestParseResponseUnknownStyleFallsBack(t *testing.T) {
	parsed := ParseResponse("<style>gothic</style><content>내용</content>")
	if parsed.FontStyle != DefaultFontStyle {
		t.Errorf("FontStyle = %q, want %q", parsed.FontStyle, DefaultFontStyle)
	}
}

func TestParseResponseDiaryBodyFallback(t *testing.T) {
	response := `<diary>
<style>whisper</style>
<weather>🌙</weather>
조용히 하루를 마무리했다.
<image>1girl, black hair, night</image>
</diary>`

	parsed := ParseResponse(response)
	if parsed.Content != "조용히 하루를 마무리했다." {
		t.Errorf("Content = %q", parsed.Content)
	}
	if parsed.FontStyle != "whisper" {
		t.Errorf("FontStyle = %q, want whisper", parsed.FontStyle)
	}
	if parsed.ImagePrompt != "1girl, black hair, night" {
		t.Errorf("ImagePrompt = %q", parsed.ImagePrompt)
	}
}

func TestParseResponseNoTagsUsesPlaceholder(t *testing.T) {
	parsed := ParseResponse("the model refused to follow instructions")
	if parsed.Content != placeholderContent {
		t.Errorf("Content = %q, want placeholder", parsed.Content)
	}
	if parsed.FontStyle != DefaultFontStyle || parsed.Weather != defaultWeather {
		t.Errorf("defaults not applied: style=%q weather=%q", parsed.FontStyle, parsed.Weather)
	}
}

func TestParseResponseEmptyWeatherUsesDefault(t *testing.T) {
	parsed := ParseResponse("<weather>  </weather><content>내용</content>")
	if parsed.Weather != defaultWeather {
		t.Errorf("Weather = %q, want %q", parsed.Weather, defaultWeather)
	}
}

func TestValidStyle(t *testing.T) {
	for _, s := range Styles() {
		if !ValidStyle(s.Key) {
			t.Errorf("ValidStyle(%q) = false", s.Key)
		}
	}
	if ValidStyle("ELEGANT") {
		t.Error("style keys should be case-sensitive")
	}
	if ValidStyle("") {
		t.Error("empty key should be invalid")
	}
}
