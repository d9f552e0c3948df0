package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ytbrief/ytbrief/internal/extract"
	"github.com/ytbrief/ytbrief/internal/history"
)

// Action selects what Process produces for a video.
type Action string

const (
	ActionSummarize  Action = "summarize"
	ActionTranscribe Action = "transcribe"
	ActionInfo       Action = "info"
)

// ParseAction validates an action string, accepting "transcript" as an alias
// kept for older clients.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionSummarize, ActionTranscribe, ActionInfo:
		return Action(s), nil
	case "transcript":
		return ActionTranscribe, nil
	case "":
		return ActionSummarize, nil
	}
	return "", fmt.Errorf("unknown action %q (want summarize, transcribe or info)", s)
}

// Summarizer is the LLM surface Process needs. Implemented by
// summarize.Client; tests substitute a stub.
type Summarizer interface {
	Summarize(ctx context.Context, info *extract.VideoInfo, transcript string) (string, error)
	SummarizeMetadata(ctx context.Context, info *extract.VideoInfo) (string, error)
	Transcribe(ctx context.Context, transcript string) (string, error)
	Ping(ctx context.Context) error
}

// Service wires the resolver, strategy chains, summarizer and history store
// into the one operation the CLI and the HTTP API both call.
type Service struct {
	Resolver   *extract.Resolver
	Metadata   []extract.Strategy
	Transcript []extract.Strategy
	Summarizer Summarizer
	History    *history.DB
	Logger     *log.Logger
}

// Outcome is the result of processing one video.
type Outcome struct {
	VideoID            string             `json:"videoId"`
	URL                string             `json:"url"`
	Action             Action             `json:"action"`
	Info               *extract.VideoInfo `json:"info,omitempty"`
	Transcript         string             `json:"transcript,omitempty"`
	Language           string             `json:"language,omitempty"`
	Summary            string             `json:"summary,omitempty"`
	TranscriptStrategy string             `json:"transcriptStrategy,omitempty"`
	MetadataStrategy   string             `json:"metadataStrategy,omitempty"`
	// Transcription is the transcript reflowed into readable prose by the
	// model; Transcript always keeps the raw extracted text.
	Transcription string `json:"transcription,omitempty"`
	FromCache     bool   `json:"fromCache,omitempty"`
	// MetadataOnly marks a summary inferred from metadata because no
	// transcript could be extracted.
	MetadataOnly bool `json:"metadataOnly,omitempty"`
}

// Process runs the requested action against one video URL or ID.
//
// Metadata always resolves (the placeholder strategy cannot fail), so even an
// exhausted transcript chain leaves something to report. For summarize, an
// exhausted transcript falls back to a metadata-only summary; for transcribe,
// exhaustion is returned to the caller as the *ExhaustedError itself.
func (s *Service) Process(ctx context.Context, rawURL string, action Action) (*Outcome, error) {
	if action == ActionSummarize && s.Summarizer == nil {
		return nil, errors.New("no summarizer configured; set GEMINI_API_KEY")
	}
	url, err := extract.ValidateInputURL(rawURL)
	if err != nil {
		return nil, err
	}
	videoID, err := extract.ExtractVideoID(url)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{VideoID: videoID, URL: url, Action: action}

	metaRes, err := s.Resolver.Resolve(ctx, extract.Request{URL: url, VideoID: videoID, Kind: extract.KindMetadata}, s.Metadata)
	if err != nil {
		// Only possible with a misconfigured chain missing the placeholder.
		return nil, err
	}
	outcome.Info = metaRes.Artifact.(*extract.VideoInfo)
	outcome.MetadataStrategy = metaRes.Strategy
	for _, attempt := range metaRes.Attempts {
		s.logf("metadata strategy %s failed for %s: %v", attempt.Strategy, videoID, attempt.Err)
	}

	if action == ActionInfo {
		s.record(outcome, nil)
		return outcome, nil
	}

	if err := s.resolveTranscript(ctx, outcome); err != nil {
		var exhausted *extract.ExhaustedError
		if !errors.As(err, &exhausted) {
			return nil, err
		}
		if action == ActionTranscribe {
			s.record(outcome, err)
			return nil, err
		}
		// Summarize falls back to describing the metadata.
		summary, serr := s.Summarizer.SummarizeMetadata(ctx, outcome.Info)
		if serr != nil {
			s.record(outcome, serr)
			return nil, serr
		}
		outcome.Summary = summary
		outcome.MetadataOnly = true
		s.record(outcome, nil)
		return outcome, nil
	}

	if action == ActionTranscribe {
		if s.Summarizer != nil {
			transcription, err := s.Summarizer.Transcribe(ctx, outcome.Transcript)
			if err != nil {
				s.logf("transcript reflow failed for %s, returning raw text: %v", outcome.VideoID, err)
			} else {
				outcome.Transcription = transcription
			}
		}
		s.record(outcome, nil)
		return outcome, nil
	}

	summary, err := s.Summarizer.Summarize(ctx, outcome.Info, outcome.Transcript)
	if err != nil {
		s.record(outcome, err)
		return nil, err
	}
	outcome.Summary = summary
	s.record(outcome, nil)
	return outcome, nil
}

// resolveTranscript fills the transcript fields, consulting the history cache
// before running the strategy chain.
func (s *Service) resolveTranscript(ctx context.Context, outcome *Outcome) error {
	if s.History != nil {
		text, lang, strategy, ok, err := s.History.CachedTranscript(outcome.VideoID)
		if err != nil {
			s.logf("transcript cache lookup failed for %s: %v", outcome.VideoID, err)
		} else if ok {
			outcome.Transcript = text
			outcome.Language = lang
			outcome.TranscriptStrategy = strategy
			outcome.FromCache = true
			return nil
		}
	}

	res, err := s.Resolver.Resolve(ctx, extract.Request{URL: outcome.URL, VideoID: outcome.VideoID, Kind: extract.KindTranscript}, s.Transcript)
	if err != nil {
		return err
	}
	transcript := res.Artifact.(*extract.Transcript)
	outcome.Transcript = transcript.Text
	outcome.Language = transcript.Language
	outcome.TranscriptStrategy = res.Strategy
	for _, attempt := range res.Attempts {
		s.logf("transcript strategy %s failed for %s: %v", attempt.Strategy, outcome.VideoID, attempt.Err)
	}
	return nil
}

// PingSummarizer verifies the model is reachable, for the health surface.
func (s *Service) PingSummarizer(ctx context.Context) error {
	if s.Summarizer == nil {
		return errors.New("no summarizer configured")
	}
	return s.Summarizer.Ping(ctx)
}

// HistoryCount reports how many requests have been recorded.
func (s *Service) HistoryCount() (int, error) {
	if s.History == nil {
		return 0, nil
	}
	return s.History.Count()
}

func (s *Service) record(outcome *Outcome, procErr error) {
	if s.History == nil {
		return
	}
	rec := history.Record{
		VideoID:            outcome.VideoID,
		URL:                outcome.URL,
		Action:             string(outcome.Action),
		TranscriptStrategy: outcome.TranscriptStrategy,
		MetadataStrategy:   outcome.MetadataStrategy,
		Language:           outcome.Language,
		Summary:            outcome.Summary,
		Succeeded:          procErr == nil,
	}
	if outcome.Info != nil {
		rec.Title = outcome.Info.Title
		rec.Author = outcome.Info.Author
	}
	// Cached transcripts are already stored; re-inserting them would only
	// grow the table.
	if !outcome.FromCache {
		rec.Transcript = outcome.Transcript
	}
	if procErr != nil {
		rec.ErrorText = procErr.Error()
	}
	if _, err := s.History.Insert(rec); err != nil {
		s.logf("recording request for %s: %v", outcome.VideoID, err)
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
