package extract

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageScrapeStrategy extracts captions straight from the watch page. It digs
// the ytInitialPlayerResponse blob out of an inline script, picks a caption
// track, and fetches the timedtext XML that track points at. Last transcript
// layer: no API client and no external binary, just the page YouTube serves
// to browsers.
type PageScrapeStrategy struct {
	Client *http.Client

	// watchBase overrides the watch page origin, for tests.
	watchBase string
}

func (s *PageScrapeStrategy) Name() string { return "page_scrape" }

// playerResponse is the subset of ytInitialPlayerResponse we need.
type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []scrapedCaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		Author           string `json:"author"`
		ShortDescription string `json:"shortDescription"`
		LengthSeconds    string `json:"lengthSeconds"`
		ViewCount        string `json:"viewCount"`
	} `json:"videoDetails"`
}

type scrapedCaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func (s *PageScrapeStrategy) Attempt(ctx context.Context, req Request) (Artifact, error) {
	player, err := fetchPlayerResponse(ctx, s.Client, watchPageURL(s.watchBase, req.VideoID))
	if err != nil {
		return nil, err
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, wrapCategory(CategoryNoData, errors.New("watch page lists no caption tracks"))
	}
	track := pickCaptionTrack(tracks)

	text, segments, err := fetchTimedText(ctx, s.Client, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, wrapCategory(CategoryNoData, errors.New("timedtext track was empty"))
	}
	return &Transcript{Text: text, Language: track.LanguageCode, Segments: segments}, nil
}

// pickCaptionTrack prefers manually authored English, then auto-generated
// English, then whatever comes first.
func pickCaptionTrack(tracks []scrapedCaptionTrack) scrapedCaptionTrack {
	var autoEnglish *scrapedCaptionTrack
	for i, track := range tracks {
		if !strings.HasPrefix(track.LanguageCode, "en") {
			continue
		}
		if track.Kind != "asr" {
			return track
		}
		if autoEnglish == nil {
			autoEnglish = &tracks[i]
		}
	}
	if autoEnglish != nil {
		return *autoEnglish
	}
	return tracks[0]
}

func watchPageURL(base, videoID string) string {
	if base == "" {
		return WatchURL(videoID)
	}
	return base + "/watch?v=" + videoID
}

func fetchPlayerResponse(ctx context.Context, client *http.Client, pageURL string) (*playerResponse, error) {
	doc, err := fetchWatchPage(ctx, client, pageURL)
	if err != nil {
		return nil, err
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if blob, ok := extractPlayerJSON(sel.Text()); ok {
			raw = blob
			return false
		}
		return true
	})
	if raw == "" {
		return nil, wrapCategory(CategoryNoData, errors.New("ytInitialPlayerResponse not found on watch page"))
	}

	var player playerResponse
	if err := json.Unmarshal([]byte(raw), &player); err != nil {
		return nil, wrapCategory(CategoryNoData, fmt.Errorf("parsing player response: %w", err))
	}
	return &player, nil
}

func fetchWatchPage(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building watch page request: %w", err)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, wrapCategory(CategoryNetwork, fmt.Errorf("fetching watch page: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapCategory(CategoryNetwork, fmt.Errorf("watch page returned status %d", resp.StatusCode))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, wrapCategory(CategoryNetwork, fmt.Errorf("parsing watch page: %w", err))
	}
	return doc, nil
}

// extractPlayerJSON finds the JSON object assigned to ytInitialPlayerResponse
// in a script body by matching braces; the assignment is not on its own line
// and the blob contains nested objects and strings with escapes.
func extractPlayerJSON(script string) (string, bool) {
	const marker = "ytInitialPlayerResponse = "
	start := strings.Index(script, marker)
	if start < 0 {
		return "", false
	}
	rest := script[start+len(marker):]
	if !strings.HasPrefix(rest, "{") {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i, r := range rest {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return rest[:i+1], true
				}
			}
		}
	}
	return "", false
}

func fetchTimedText(ctx context.Context, client *http.Client, baseURL string) (string, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("building timedtext request: %w", err)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", 0, wrapCategory(CategoryNetwork, fmt.Errorf("fetching timedtext: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, wrapCategory(CategoryNetwork, fmt.Errorf("timedtext returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, wrapCategory(CategoryNetwork, fmt.Errorf("reading timedtext: %w", err))
	}

	var parsed timedText
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", 0, wrapCategory(CategoryNoData, fmt.Errorf("parsing timedtext XML: %w", err))
	}

	var sb strings.Builder
	for _, segment := range parsed.Texts {
		text := strings.TrimSpace(segment.Value)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return CleanTranscript(sb.String()), len(parsed.Texts), nil
}
