package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/ytbrief/ytbrief/internal/app"
	"github.com/ytbrief/ytbrief/internal/extract"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// Processor is the surface the API needs from the application layer.
// Implemented by *app.Service; tests substitute a stub.
type Processor interface {
	Process(ctx context.Context, url string, action app.Action) (*app.Outcome, error)
	PingSummarizer(ctx context.Context) error
	HistoryCount() (int, error)
}

// ProcessRequest is the body of POST /api/process-video. VideoID is accepted
// as an alternative to URL for clients that already parsed one out.
type ProcessRequest struct {
	URL     string `json:"url"`
	VideoID string `json:"videoId"`
	Action  string `json:"action"`
}

// APIResponse is the uniform envelope for every endpoint. A request that was
// handled but produced no usable data comes back 200 with Success false; 4xx
// and 5xx are reserved for bad requests and infrastructure failures.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) *requestError {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		return &requestError{http.StatusUnsupportedMediaType, "content type must be application/json"}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return &requestError{http.StatusRequestEntityTooLarge, "request body too large"}
		}
		return &requestError{http.StatusBadRequest, "invalid JSON payload"}
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return &requestError{http.StatusBadRequest, "invalid JSON payload"}
	}
	return nil
}

// Server is the HTTP API over a Processor.
type Server struct {
	processor Processor
	startedAt time.Time
	version   string
}

func NewServer(processor Processor, version string) *Server {
	return &Server{
		processor: processor,
		startedAt: time.Now(),
		version:   version,
	}
}

// Handler builds the full route table wrapped in the shared middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process-video", s.handleProcessVideo)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/test-gemini", s.handleTestGemini)
	mux.HandleFunc("/", s.handleRoot)
	return withSecurityHeaders(withCORS(mux))
}

func (s *Server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req ProcessRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err.status, err.message)
		return
	}
	input := req.URL
	if input == "" {
		input = req.VideoID
	}
	if input == "" {
		writeJSONError(w, http.StatusBadRequest, "url or videoId is required")
		return
	}
	action, err := app.ParseAction(req.Action)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.processor.Process(r.Context(), input, action)
	if err != nil {
		s.writeProcessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: outcome})
}

// writeProcessError maps processing failures onto status codes. Exhaustion
// and no-data outcomes are expected results of asking about the wrong video,
// not server faults, so they answer 200 with Success false.
func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	var exhausted *extract.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		writeJSON(w, http.StatusOK, APIResponse{Success: false, Error: exhausted.Error()})
	case extract.CategoryOf(err) == extract.CategoryInvalidURL:
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case extract.CategoryOf(err) == extract.CategoryNoData:
		writeJSON(w, http.StatusOK, APIResponse{Success: false, Error: err.Error()})
	case extract.CategoryOf(err) == extract.CategoryLLM:
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	count, err := s.processor.HistoryCount()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read request history")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]any{
		"uptime":             time.Since(s.startedAt).Truncate(time.Second).String(),
		"requests_processed": count,
	}})
}

func (s *Server) handleTestGemini(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	if err := s.processor.PingSummarizer(ctx); err != nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{"message": "Gemini API is reachable"}})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{
		"message": "ytbrief API is running",
		"version": s.version,
	}})
}

// ListenAndServe runs the API server until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, processor Processor, version string) error {
	srv := NewServer(processor, version)
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// withCORS allows browser extensions and local frontends to call the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
