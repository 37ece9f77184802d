// internal/writer/prompt.go
package writer

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/inkwell/internal/types"
)

const summarySnippetRunes = 200

var weekdays = []string{"일", "월", "화", "수", "목", "금", "토"}

// FormatDate renders a story date as the localized phrase used throughout
// the prompts, e.g. "2024년 3월 15일 금요일".
func FormatDate(date types.StoryDate) string {
	t := time.Date(date.Year, time.Month(date.Month), date.Day, 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%d년 %d월 %d일 %s요일", date.Year, date.Month, date.Day, weekdays[t.Weekday()])
}

// snippet truncates a message for the dialogue summary.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= summarySnippetRunes {
		return text
	}
	return string(runes[:summarySnippetRunes]) + "..."
}

// BuildPrompt assembles the diary-writing prompt: target date, dialogue
// summary, narrator profile, user profile, pre-registered appearance tags,
// the style menu, and the required output format.
func BuildPrompt(
	date types.StoryDate,
	history []types.HostMessage,
	profile *types.NarratorProfile,
	appearances []types.CharacterAppearance,
) string {
	characterName := "캐릭터"
	if profile != nil && profile.CharacterName != "" {
		characterName = profile.CharacterName
	}

	var summary strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&summary, "%s: %s\n", msg.Name, snippet(msg.Text))
	}

	var styleList strings.Builder
	for _, style := range Styles() {
		fmt.Fprintf(&styleList, "   - %s: %s\n", style.Key, style.Description)
	}

	var characterInfo string
	if profile != nil && profile.CharacterDescription != "" {
		characterInfo = fmt.Sprintf("\n## Character Profile (%s):\n%s\n", characterName, profile.CharacterDescription)
	}

	var userInfo string
	if profile != nil && profile.UserPersona != "" {
		userName := profile.UserName
		if userName == "" {
			userName = "User"
		}
		userInfo = fmt.Sprintf("\n## User Profile (%s):\n%s\n", userName, profile.UserPersona)
	}

	var appearanceInfo string
	if len(appearances) > 0 {
		var lines strings.Builder
		for _, a := range appearances {
			fmt.Fprintf(&lines, "- %s: %s\n", a.Name, a.Tags)
		}
		appearanceInfo = fmt.Sprintf("\n## Pre-defined Character Master Prompts (Danbooru tags - DO NOT change order or omit any tags):\n%s", lines.String())
	}

	return fmt.Sprintf(`You are writing a personal diary entry for %[1]s.

## Context
Today's date: %[2]s

## Recent events (based on conversations):
%[3]s%[4]s%[5]s%[6]s
## Task
1. Choose a writing style that best fits %[1]s's personality and today's mood:
%[7]s
2. Write a diary entry (150-300 characters in Korean) from %[1]s's perspective.
   - Match the writing tone to the chosen style
   - Be personal and intimate, as if writing for oneself

3. Include a weather emoji and mood description.

4. Generate an image prompt using Danbooru-style tags for today's memory.

## IMAGE PROMPT RULES (CRITICAL):
* Use ONLY Danbooru tags separated by commas.
* Hair color and eye color tags are MANDATORY for all characters.
* Single Character: Start with 1girl or 1boy.
  - Example: 1girl, brown hair, long hair, green eyes, on bed, sitting, smile
* Multiple Characters: Start with count (e.g., 2girls, 1boy 1girl), then use | to separate each character's description.
  - Example: 1boy 1girl, indoors, |boy, black hair, green eyes, |girl, blonde hair, blue eyes, holding hands
* NEVER change the order of tags or omit any tags from the pre-defined character prompts above.
* Include scene/background tags: indoors, outdoors, bedroom, park, etc.
* Include pose/action tags: sitting, standing, lying, walking, etc.
* Include mood tags: smile, blush, crying, happy, etc.

## Output Format (MUST follow exactly):
<diary>
<style>chosen_style_name</style>
<weather>weather_emoji</weather>
<mood>mood_description</mood>
<content>
diary entry in Korean
</content>
<image>Danbooru tags only, example: 1girl, blonde hair, blue eyes, white dress, sitting, park, sunny, smile</image>
</diary>`,
		characterName,
		FormatDate(date),
		summary.String(),
		characterInfo,
		userInfo,
		appearanceInfo,
		styleList.String(),
	)
}
