// internal/image/prompt.go
package image

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/user/inkwell/internal/types"
)

const (
	qualityTags = "masterpiece, best quality, absurdres, highres"
	diaryTags   = "soft lighting, warm colors, slice of life"
)

var danbooruPrefix = regexp.MustCompile(`(?i)^(1girl|1boy|2girls|2boys|1girl 1boy|multiple|solo)`)

// IsDanbooru reports whether prompt already looks like a Danbooru tag list,
// judged by its leading subject-count tag.
func IsDanbooru(prompt string) bool {
	return danbooruPrefix.MatchString(strings.TrimSpace(prompt))
}

// Enhance prepends quality tags for diary illustrations. Prompts that are
// not already tag lists also get the diary mood tags.
func Enhance(prompt string) string {
	if IsDanbooru(prompt) {
		return qualityTags + ", " + prompt
	}
	return qualityTags + ", " + diaryTags + ", " + prompt
}

// Normalize deduplicates and trims a Danbooru tag list, preserving first
// occurrence order. Non-tag prompts pass through untouched.
func Normalize(prompt string) string {
	if !IsDanbooru(prompt) {
		return prompt
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, raw := range strings.Split(prompt, ",") {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return strings.Join(tags, ", ")
}

// InjectCharacterTags replaces registered character names appearing in the
// prompt with their appearance tags, using the multi-character separator.
// Matching is case-insensitive on word boundaries.
func InjectCharacterTags(prompt string, appearances []types.CharacterAppearance) string {
	result := prompt
	for _, char := range appearances {
		if char.Name == "" || char.Tags == "" {
			continue
		}
		nameRe, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(char.Name) + `\b`)
		if err != nil {
			continue
		}
		result = nameRe.ReplaceAllString(result, "|"+char.Tags)
	}
	return result
}

// characterKeywords mark a free-text prompt as depicting a person, which
// makes it worth prefixing the narrator's appearance tags.
var characterKeywords = []string{
	"character", "person", "girl", "boy", "woman", "man", "she", "he", "1girl", "1boy",
}

var fallbackScenes = []string{
	"1girl, indoors, sitting, relaxed, casual clothes, window, natural lighting",
	"1girl, outdoors, standing, looking up, sky, peaceful",
	"1girl, bedroom, lying on bed, reading, cozy, warm lighting",
	"1girl, cafe, sitting, drinking coffee, relaxed, smile",
	"1girl, park, walking, sunny day, happy, casual outfit",
}

// SceneForContent picks a generic scene tag list when the entry carries no
// image prompt of its own. The choice is a stable function of the content so
// retries produce the same scene.
func SceneForContent(content string) string {
	h := fnv.New32a()
	h.Write([]byte(content))
	return fallbackScenes[int(h.Sum32())%len(fallbackScenes)]
}

// ComposePrompt builds the final generation prompt for a diary entry. A
// tag-style prompt from the model gets registered character names swapped
// for their tags and is deduplicated; free-text prompts get the narrator's
// tags prefixed when they seem to depict a person. An empty prompt falls
// back to a generic scene derived from the entry content.
func ComposePrompt(imagePrompt, content, characterName string, appearances []types.CharacterAppearance) string {
	prompt := strings.TrimSpace(imagePrompt)
	if prompt == "" {
		prompt = SceneForContent(content)
	}

	if IsDanbooru(prompt) {
		prompt = InjectCharacterTags(prompt, appearances)
		return Normalize(prompt)
	}

	var narratorTags string
	for _, char := range appearances {
		if strings.EqualFold(char.Name, characterName) {
			narratorTags = char.Tags
			break
		}
	}
	if narratorTags != "" {
		lower := strings.ToLower(prompt)
		depictsCharacter := len(prompt) < 30
		for _, kw := range characterKeywords {
			if strings.Contains(lower, kw) {
				depictsCharacter = true
				break
			}
		}
		if strings.Contains(lower, strings.ToLower(characterName)) {
			depictsCharacter = true
		}
		if depictsCharacter {
			prompt = fmt.Sprintf("1girl, %s, %s", narratorTags, prompt)
		}
	}
	return prompt
}
