// internal/writer/styles.go
package writer

// FontStyle is one handwriting style the model may choose for an entry.
// The set is closed; unrecognized identifiers fall back to DefaultFontStyle.
type FontStyle struct {
	Key         string
	Name        string
	Description string
	Prompt      string
}

// DefaultFontStyle is used when the response names no style or an unknown one.
const DefaultFontStyle = "elegant"

var fontStyles = []FontStyle{
	{
		Key:         "elegant",
		Name:        "우아한 필기체",
		Description: "흘려쓴 듯 우아하고 세련된 캘리그라피 느낌",
		Prompt:      "Write in an elegant, flowing calligraphy style. Graceful and sophisticated, with beautiful metaphors.",
	},
	{
		Key:         "vintage",
		Name:        "빈티지 일기",
		Description: "오래된 일기장에서 발견한 듯한 클래식한 문체",
		Prompt:      "Write in a vintage diary style, like an old journal from decades ago. Nostalgic and timeless.",
	},
	{
		Key:         "dreamy",
		Name:        "몽환적",
		Description: "꿈꾸는 듯 흐릿하고 신비로운 분위기",
		Prompt:      "Write in a dreamy, ethereal style. Soft, hazy, like thoughts drifting between dreams and reality.",
	},
	{
		Key:         "passionate",
		Name:        "격정적",
		Description: "감정이 폭발하는 듯한 강렬하고 진한 표현",
		Prompt:      "Write with intense passion and raw emotion. Bold strokes of feeling, dramatic and powerful.",
	},
	{
		Key:         "whisper",
		Name:        "속삭임",
		Description: "비밀을 털어놓듯 조용하고 은밀한 톤",
		Prompt:      "Write like sharing secrets in whispers. Intimate, private, soft-spoken confessions.",
	},
	{
		Key:         "artistic",
		Name:        "예술가의 노트",
		Description: "감각적이고 추상적인 예술가의 메모 스타일",
		Prompt:      "Write like an artist's personal notes. Abstract, sensory, full of imagery and creative observations.",
	},
	{
		Key:         "melancholy",
		Name:        "우수에 젖은",
		Description: "쓸쓸하고 아련한 감성, 비 오는 날의 창가 같은",
		Prompt:      "Write with gentle melancholy. Bittersweet, wistful, like watching rain on a window.",
	},
	{
		Key:         "playful",
		Name:        "장난스러운",
		Description: "유쾌하고 재치있는 톤, 웃음이 묻어나는",
		Prompt:      "Write playfully with wit and humor. Light-hearted, fun, with clever observations.",
	},
}

// Styles returns the closed style set in presentation order.
func Styles() []FontStyle {
	return fontStyles
}

// ValidStyle reports whether key names a recognized style.
func ValidStyle(key string) bool {
	for _, s := range fontStyles {
		if s.Key == key {
			return true
		}
	}
	return false
}
