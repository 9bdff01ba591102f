// Package speech holds the optional voice collaborators: reading assistant
// turns aloud and turning recorded audio into text.
package speech

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	LangChinese = "zh-CN"
	LangEnglish = "en-US"
)

// DetectLanguage picks the voice language: Chinese if any Han character appears.
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return LangChinese
		}
	}
	return LangEnglish
}

var (
	reCodeFence  = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\\n?(.*?)```")
	reInlineCode = regexp.MustCompile("`([^`]*)`")
	reLink       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reHeading    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	reQuote      = regexp.MustCompile(`(?m)^\s*>\s?`)
	reBullet     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	reEmphasis   = regexp.MustCompile(`(\*\*|__|\*|_|~~)`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes formatting marks so they are not read aloud.
func StripMarkdown(text string) string {
	text = reCodeFence.ReplaceAllString(text, "$1")
	text = reInlineCode.ReplaceAllString(text, "$1")
	text = reLink.ReplaceAllString(text, "$1")
	text = reHeading.ReplaceAllString(text, "")
	text = reQuote.ReplaceAllString(text, "")
	text = reBullet.ReplaceAllString(text, "")
	text = reEmphasis.ReplaceAllString(text, "")
	text = reBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
