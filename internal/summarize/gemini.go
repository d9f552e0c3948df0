package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ytbrief/ytbrief/internal/extract"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// defaultChunkDelay spaces out per-chunk requests to stay under the free-tier
// rate limit.
const defaultChunkDelay = 500 * time.Millisecond

// generator produces text for one prompt. Real calls go through Gemini; tests
// substitute a stub.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Client summarizes transcripts and metadata with the Gemini API. Long
// transcripts are split into chunks, summarized per chunk, then combined in a
// final pass.
type Client struct {
	client     *genai.Client
	gen        generator
	chunkDelay time.Duration
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return out, nil
}

// New builds a Gemini-backed client. The caller must Close it.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("summarize: missing Gemini API key")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{
		client:     client,
		gen:        &geminiGenerator{model: client.GenerativeModel(model)},
		chunkDelay: defaultChunkDelay,
	}, nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Summarize produces a summary of a transcript. Transcripts over the chunk
// budget are summarized per chunk with a combining pass at the end.
func (c *Client) Summarize(ctx context.Context, info *extract.VideoInfo, transcript string) (string, error) {
	title := ""
	if info != nil {
		title = info.Title
	}

	chunks := ChunkText(transcript)
	switch len(chunks) {
	case 0:
		return "", errors.New("summarize: empty transcript")
	case 1:
		return c.generate(ctx, summaryPrompt(title, chunks[0]))
	}

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 && c.chunkDelay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.chunkDelay):
			}
		}
		partial, err := c.generate(ctx, chunkPrompt(title, i+1, len(chunks), chunk))
		if err != nil {
			return "", fmt.Errorf("summarizing chunk %d of %d: %w", i+1, len(chunks), err)
		}
		partials = append(partials, partial)
	}
	return c.generate(ctx, combinePrompt(title, partials))
}

// SummarizeMetadata produces a best-effort description from metadata alone,
// for videos whose transcript could not be extracted. Placeholder records
// skip the model entirely; there is nothing real to describe.
func (c *Client) SummarizeMetadata(ctx context.Context, info *extract.VideoInfo) (string, error) {
	if info == nil || info.Placeholder {
		return "No transcript or metadata could be retrieved for this video, so a summary cannot be provided.", nil
	}
	return c.generate(ctx, metadataPrompt(info.Title, info.Author, info.Description))
}

// Transcribe reflows raw caption text into readable prose: punctuation and
// paragraph breaks restored, content unchanged. Long transcripts are returned
// as-is; reflowing them chunk by chunk costs more than it adds.
func (c *Client) Transcribe(ctx context.Context, transcript string) (string, error) {
	chunks := ChunkText(transcript)
	switch len(chunks) {
	case 0:
		return "", errors.New("summarize: empty transcript")
	case 1:
		return c.generate(ctx, transcribePrompt(chunks[0]))
	}
	return transcript, nil
}

// Ping issues a trivial generation to verify the API key and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.generate(ctx, "Reply with the single word: ok")
	return err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.gen.generate(ctx, prompt)
	if err != nil {
		return "", extract.WrapLLM(err)
	}
	return out, nil
}
