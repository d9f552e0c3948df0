package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// YtDlpStrategy shells out to an installed yt-dlp binary to download subtitle
// files without the media. It is the second transcript layer: slower than the
// player API but tolerant of videos the API refuses to serve. When the binary
// is not on PATH the strategy reports unavailable and the resolver moves on.
type YtDlpStrategy struct {
	// BinaryPath overrides PATH lookup, for tests.
	BinaryPath string
	// Timeout bounds the subprocess; zero means 60s.
	Timeout time.Duration
}

func (s *YtDlpStrategy) Name() string { return "yt_dlp" }

func (s *YtDlpStrategy) Attempt(ctx context.Context, req Request) (Artifact, error) {
	binary := s.BinaryPath
	if binary == "" {
		found, err := exec.LookPath("yt-dlp")
		if err != nil {
			return nil, wrapCategory(CategoryUnavailable, errors.New("yt-dlp not installed"))
		}
		binary = found
	}

	timeout := s.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "ytbrief-subs-*")
	if err != nil {
		return nil, fmt.Errorf("creating subtitle temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.CommandContext(ctx, binary,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*,en",
		"--sub-format", "vtt",
		"--output", filepath.Join(tmpDir, "%(id)s.%(ext)s"),
		WatchURL(req.VideoID),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, wrapCategory(CategoryNetwork, fmt.Errorf("yt-dlp timed out: %w", ctx.Err()))
		}
		return nil, wrapCategory(CategoryUnavailable, fmt.Errorf("yt-dlp failed: %s", firstLine(string(out))))
	}

	subFile, lang, err := findSubtitleFile(tmpDir, req.VideoID)
	if err != nil {
		return nil, wrapCategory(CategoryNoData, err)
	}
	content, err := os.ReadFile(subFile)
	if err != nil {
		return nil, fmt.Errorf("reading subtitle file: %w", err)
	}

	text := CleanSubtitleFile(string(content))
	if text == "" {
		return nil, wrapCategory(CategoryNoData, errors.New("subtitle file contained no text"))
	}
	return &Transcript{Text: text, Language: lang}, nil
}

// findSubtitleFile locates the downloaded subtitle for the video, preferring
// English tracks. File names follow the "<id>.<lang>.vtt" output template.
func findSubtitleFile(dir, videoID string) (path, lang string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("listing subtitle dir: %w", err)
	}

	var fallbackPath, fallbackLang string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, videoID+".") {
			continue
		}
		ext := filepath.Ext(name)
		if ext != ".vtt" && ext != ".srt" {
			continue
		}
		code := strings.TrimSuffix(strings.TrimPrefix(name, videoID+"."), ext)
		full := filepath.Join(dir, name)
		if strings.HasPrefix(code, "en") {
			return full, code, nil
		}
		if fallbackPath == "" {
			fallbackPath, fallbackLang = full, code
		}
	}
	if fallbackPath != "" {
		return fallbackPath, fallbackLang, nil
	}
	return "", "", errors.New("yt-dlp produced no subtitle files")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
