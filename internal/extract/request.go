package extract

import (
	"context"
	"strings"
)

// Kind selects which artifact a resolution should produce.
type Kind string

const (
	KindMetadata   Kind = "metadata"
	KindTranscript Kind = "transcript"
)

// Request identifies one externally sourced artifact. It is constructed once
// per resolution call and never mutated.
type Request struct {
	URL     string
	VideoID string
	Kind    Kind
}

// Artifact is the data a strategy produced. An artifact below the viability
// threshold is treated as a failure for that strategy, never as a partial
// success.
type Artifact interface {
	Viable(minChars int) bool
}

// Transcript is the caption text of a video, already cleaned and joined.
type Transcript struct {
	Text     string
	Language string
	Segments int
}

func (t *Transcript) Viable(minChars int) bool {
	return t != nil && len(strings.TrimSpace(t.Text)) >= minChars
}

// VideoInfo is the metadata record for a video. Placeholder marks the
// last-resort record built when no source could be reached; consumers use it
// to decide whether the metadata is worth feeding to an LLM.
type VideoInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author,omitempty"`
	Description     string `json:"description,omitempty"`
	Views           int    `json:"views,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	PublishDate     string `json:"publishDate,omitempty"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	Placeholder     bool   `json:"placeholder,omitempty"`
}

func (v *VideoInfo) Viable(int) bool {
	return v != nil && strings.TrimSpace(v.Title) != ""
}

// Strategy is one concrete method for obtaining an artifact. Expected failure
// modes (no captions, missing tool, unreachable service) are returned as
// error values; only a bug in the strategy itself should panic.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req Request) (Artifact, error)
}
