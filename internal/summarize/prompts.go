package summarize

import (
	"fmt"
	"strings"
)

func summaryPrompt(title, transcript string) string {
	return fmt.Sprintf(`Summarize this YouTube video transcript clearly and concisely.

Video title: %s

Transcript:
%s

Provide a summary covering the main topics, key points, and any conclusions. Use plain prose, no preamble.`, title, transcript)
}

func chunkPrompt(title string, index, total int, chunk string) string {
	return fmt.Sprintf(`This is part %d of %d of a YouTube video transcript. Summarize the key points of this part only.

Video title: %s

Transcript part:
%s`, index, total, title, chunk)
}

func combinePrompt(title string, partials []string) string {
	var sb strings.Builder
	for i, p := range partials {
		fmt.Fprintf(&sb, "Part %d summary:\n%s\n\n", i+1, p)
	}
	return fmt.Sprintf(`Below are summaries of consecutive parts of one YouTube video. Merge them into a single coherent summary of the whole video. Remove repetition and keep the narrative order.

Video title: %s

%s`, title, sb.String())
}

func transcribePrompt(transcript string) string {
	return fmt.Sprintf(`Reformat this raw YouTube caption text into readable prose. Restore punctuation and paragraph breaks. Do not summarize, add, or remove content.

%s`, transcript)
}

func metadataPrompt(title, author, description string) string {
	return fmt.Sprintf(`No transcript is available for this YouTube video. Using only the metadata below, describe what the video most likely covers. Be explicit that the description is inferred from metadata, not from the video's actual content.

Title: %s
Channel: %s
Description: %s`, title, author, description)
}
