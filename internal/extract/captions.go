package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// CaptionsAPIStrategy fetches transcripts through the YouTube player API via
// the kkdai/youtube client. It is the primary layer: fastest and most
// reliable when the video has caption tracks. English variants are tried
// first, then every other listed track; that per-language retrying is this
// strategy's own concern, not the resolver's.
type CaptionsAPIStrategy struct {
	Client *youtube.Client
}

func (s *CaptionsAPIStrategy) Name() string { return "captions_api" }

func (s *CaptionsAPIStrategy) Attempt(ctx context.Context, req Request) (Artifact, error) {
	video, err := s.Client.GetVideoContext(ctx, req.VideoID)
	if err != nil {
		return nil, wrapCategory(CategoryNetwork, fmt.Errorf("fetching video for captions: %w", err))
	}

	if len(video.CaptionTracks) == 0 {
		return nil, wrapCategory(CategoryNoData, errors.New("video lists no caption tracks"))
	}

	for _, lang := range captionLanguages(video.CaptionTracks) {
		transcript, err := s.Client.GetTranscriptCtx(ctx, video, lang)
		if err != nil || len(transcript) == 0 {
			continue
		}

		var sb strings.Builder
		for _, segment := range transcript {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(segment.Text)
		}
		text := CleanTranscript(sb.String())
		if text == "" {
			continue
		}
		return &Transcript{Text: text, Language: lang, Segments: len(transcript)}, nil
	}

	return nil, wrapCategory(CategoryNoData, errors.New("no caption track yielded usable text"))
}

// captionLanguages orders track language codes English-first without
// duplicates.
func captionLanguages(tracks []youtube.CaptionTrack) []string {
	seen := make(map[string]struct{}, len(tracks))
	var english, other []string
	for _, track := range tracks {
		code := track.LanguageCode
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		if strings.HasPrefix(code, "en") {
			english = append(english, code)
		} else {
			other = append(other, code)
		}
	}
	return append(english, other...)
}
