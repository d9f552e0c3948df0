package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kkdai/youtube/v2"

	"github.com/ytbrief/ytbrief/internal/app"
	"github.com/ytbrief/ytbrief/internal/extract"
	"github.com/ytbrief/ytbrief/internal/history"
	"github.com/ytbrief/ytbrief/internal/summarize"
	"github.com/ytbrief/ytbrief/internal/web"
)

const version = "0.3.0"

func main() {
	// Missing .env is fine; the environment may carry the key directly.
	_ = godotenv.Load()

	var (
		serve         = flag.Bool("serve", false, "run the HTTP API instead of processing URLs")
		addr          = flag.String("addr", envOr("YTBRIEF_ADDR", ":8000"), "listen address for -serve")
		actionName    = flag.String("action", "summarize", "what to produce: summarize, transcribe or info")
		jsonOut       = flag.Bool("json", false, "emit JSON output")
		jobs          = flag.Int("jobs", 1, "number of URLs processed concurrently")
		timeout       = flag.Duration("timeout", 2*time.Minute, "per-video extraction timeout")
		minTranscript = flag.Int("min-transcript", envOrInt("YTBRIEF_MIN_TRANSCRIPT", extract.DefaultMinTranscriptChars), "minimum transcript length in characters to count as usable")
		dbPath        = flag.String("db", envOr("YTBRIEF_DB", "ytbrief.db"), "path to the request history database (empty disables history)")
		model         = flag.String("model", summarize.DefaultModel, "Gemini model name")
		quiet         = flag.Bool("quiet", false, "suppress status output (results still printed)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	action, err := app.ParseAction(*actionName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	svc, cleanup, err := buildService(ctx, *model, *timeout, *minTranscript, *dbPath, action, *serve)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if *serve {
		if err := web.ListenAndServe(ctx, *addr, svc, version); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("server: %v", err)
		}
		return
	}

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <url> [url...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	results, exitCode := app.Run(ctx, svc, urls, action, *jobs)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		for _, res := range results {
			_ = enc.Encode(res)
		}
	} else {
		printer := app.NewPrinter(*quiet)
		for _, res := range results {
			printer.Result(res)
		}
		printer.Summary(results)
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// buildService wires the strategy chains, summarizer and history store. The
// returned cleanup closes everything the service owns.
func buildService(ctx context.Context, model string, timeout time.Duration, minTranscript int, dbPath string, action app.Action, serve bool) (*app.Service, func(), error) {
	httpClient := extract.NewHTTPClient(timeout)
	ytClient := &youtube.Client{HTTPClient: &http.Client{Timeout: timeout}}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		extract.CloseIdleConnections()
	}

	svc := &app.Service{
		Resolver: &extract.Resolver{MinTranscriptChars: minTranscript},
		Metadata: []extract.Strategy{
			&extract.VideoAPIStrategy{Client: ytClient},
			&extract.OEmbedStrategy{Client: httpClient},
			&extract.PageMetaStrategy{Client: httpClient},
			extract.PlaceholderStrategy{},
		},
		Transcript: []extract.Strategy{
			&extract.CaptionsAPIStrategy{Client: ytClient},
			&extract.YtDlpStrategy{Timeout: timeout},
			&extract.PageScrapeStrategy{Client: httpClient},
		},
		Logger: log.New(os.Stderr, "", log.LstdFlags),
	}

	// Transcribe and info runs work without a key; summarize and the API
	// server need the model.
	if serve || action == app.ActionSummarize {
		summarizer, err := summarize.New(ctx, os.Getenv("GEMINI_API_KEY"), model)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = summarizer.Close() })
		svc.Summarizer = summarizer
	}

	if dbPath != "" {
		db, err := history.Open(dbPath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		svc.History = db
	}

	return svc, cleanup, nil
}
