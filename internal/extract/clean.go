package extract

import (
	"regexp"
	"strings"
)

var (
	bracketedRegex   = regexp.MustCompile(`\[[^\]]*\]`) // [Music], [Applause]
	parentheticRegex = regexp.MustCompile(`\([^)]*\)`)  // (inaudible)
	multiSpaceRegex  = regexp.MustCompile(`\s+`)
	// Cue timing lines: SRT "00:00:00,000 --> ..." and both VTT forms,
	// including the short "MM:SS.mmm --> MM:SS.mmm" one.
	subTimestampRe = regexp.MustCompile(`^(?:\d{1,2}:)?\d{1,2}:\d{2}(?:[.,]\d{1,3})?\s*-->`)
	subCueNumberRe = regexp.MustCompile(`^\d+$`)
	subTagRe       = regexp.MustCompile(`<[^>]+>`)
	subHeaderRe    = regexp.MustCompile(`^(WEBVTT|Kind:|Language:)`)
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&#x27;", "'",
	"&nbsp;", " ",
)

// CleanTranscript strips caption artifacts (bracketed sound cues,
// parenthesized asides, HTML entities) and collapses whitespace.
func CleanTranscript(text string) string {
	text = bracketedRegex.ReplaceAllString(text, "")
	text = parentheticRegex.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	text = multiSpaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanSubtitleFile converts VTT/SRT subtitle content to plain text: headers,
// cue numbers and timestamp lines are dropped, markup tags removed, and
// consecutive duplicate lines (an auto-sub artifact) deduplicated.
func CleanSubtitleFile(content string) string {
	var textLines []string
	var lastLine string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || subCueNumberRe.MatchString(line) || subTimestampRe.MatchString(line) || subHeaderRe.MatchString(line) {
			continue
		}
		line = subTagRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" || line == lastLine {
			continue
		}
		textLines = append(textLines, line)
		lastLine = line
	}

	return CleanTranscript(strings.Join(textLines, " "))
}
