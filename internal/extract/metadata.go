package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kkdai/youtube/v2"
)

// VideoAPIStrategy reads full metadata through the YouTube player API via the
// kkdai/youtube client. Primary metadata layer: the only one that returns
// views, duration and description.
type VideoAPIStrategy struct {
	Client *youtube.Client
}

func (s *VideoAPIStrategy) Name() string { return "video_api" }

func (s *VideoAPIStrategy) Attempt(ctx context.Context, req Request) (Artifact, error) {
	video, err := s.Client.GetVideoContext(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, youtube.ErrVideoIDMinLength) {
			return nil, wrapCategory(CategoryInvalidURL, err)
		}
		return nil, wrapCategory(CategoryNetwork, fmt.Errorf("fetching video metadata: %w", err))
	}

	info := &VideoInfo{
		ID:              video.ID,
		Title:           video.Title,
		Author:          video.Author,
		Description:     video.Description,
		Views:           video.Views,
		DurationSeconds: int(video.Duration.Seconds()),
	}
	if !video.PublishDate.IsZero() {
		info.PublishDate = video.PublishDate.Format("2006-01-02")
	}
	if len(video.Thumbnails) > 0 {
		info.ThumbnailURL = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return info, nil
}

// OEmbedStrategy hits YouTube's oEmbed endpoint, which needs no API key and
// survives most access restrictions. Returns title, author and thumbnail
// only.
type OEmbedStrategy struct {
	Client *http.Client

	// endpoint overrides the oEmbed origin, for tests.
	endpoint string
}

func (s *OEmbedStrategy) Name() string { return "oembed" }

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *OEmbedStrategy) Attempt(ctx context.Context, req Request) (Artifact, error) {
	origin := s.endpoint
	if origin == "" {
		origin = "https://www.youtube.com/oembed"
	}
	endpoint := origin + "?format=json&url=" + url.QueryEscape(WatchURL(req.VideoID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building oembed request: %w", err)
	}
	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, wrapCategory(CategoryNetwork, fmt.Errorf("fetching oembed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized:
		return nil, wrapCategory(CategoryNoData, fmt.Errorf("oembed reports video unavailable (status %d)", resp.StatusCode))
	default:
		return nil, wrapCategory(CategoryNetwork, fmt.Errorf("oembed returned status %d", resp.StatusCode))
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, wrapCategory(CategoryNoData, fmt.Errorf("decoding oembed response: %w", err))
	}
	return &VideoInfo{
		ID:           req.VideoID,
		Title:        body.Title,
		Author:       body.AuthorName,
		ThumbnailURL: body.ThumbnailURL,
	}, nil
}

// PageMetaStrategy scrapes the watch page for Open Graph tags and the
// document title. Coarse, but works when both APIs refuse to answer.
type PageMetaStrategy struct {
	Client *http.Client

	// watchBase overrides the watch page origin, for tests.
	watchBase string
}

func (s *PageMetaStrategy) Name() string { return "page_meta" }

func (s *PageMetaStrategy) Attempt(ctx context.Context, req Request) (Artifact, error) {
	doc, err := fetchWatchPage(ctx, s.Client, watchPageURL(s.watchBase, req.VideoID))
	if err != nil {
		return nil, err
	}

	info := &VideoInfo{ID: req.VideoID}
	if v, ok := metaContent(doc, `meta[property="og:title"]`); ok {
		info.Title = v
	} else {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		info.Title = strings.TrimSuffix(title, " - YouTube")
	}
	if v, ok := metaContent(doc, `meta[property="og:description"]`); ok {
		info.Description = v
	}
	if v, ok := metaContent(doc, `meta[property="og:image"]`); ok {
		info.ThumbnailURL = v
	}
	if v, ok := metaContent(doc, `link[itemprop="name"]`, "content"); ok {
		info.Author = v
	}

	if strings.TrimSpace(info.Title) == "" {
		return nil, wrapCategory(CategoryNoData, errors.New("watch page carried no title"))
	}
	return info, nil
}

func metaContent(doc *goquery.Document, selector string, attr ...string) (string, bool) {
	name := "content"
	if len(attr) > 0 {
		name = attr[0]
	}
	value, exists := doc.Find(selector).First().Attr(name)
	value = strings.TrimSpace(value)
	return value, exists && value != ""
}

// PlaceholderStrategy always succeeds with a canned record so metadata
// resolution never exhausts. It must be last in the chain; the Placeholder
// flag tells consumers the record carries no real information.
type PlaceholderStrategy struct{}

func (PlaceholderStrategy) Name() string { return "placeholder" }

func (PlaceholderStrategy) Attempt(_ context.Context, req Request) (Artifact, error) {
	return &VideoInfo{
		ID:          req.VideoID,
		Title:       "YouTube Video " + req.VideoID,
		Author:      "Unknown",
		Description: "Video metadata could not be retrieved.",
		Placeholder: true,
	}, nil
}
