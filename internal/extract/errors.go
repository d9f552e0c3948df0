package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies an error for exit codes and API status mapping.
type Category string

const (
	CategoryInvalidURL  Category = "invalid_url"
	CategoryUnavailable Category = "unavailable" // dependency missing or unreachable
	CategoryNoData      Category = "no_data"     // strategy ran but produced nothing usable
	CategoryNetwork     Category = "network"
	CategoryLLM         Category = "llm"
	CategoryUnknown     Category = "unknown"
)

// CategorizedError attaches a Category to an underlying error.
type CategorizedError struct {
	Category Category
	Err      error
}

func (e CategorizedError) Error() string { return e.Err.Error() }
func (e CategorizedError) Unwrap() error { return e.Err }

func wrapCategory(category Category, err error) error {
	if err == nil {
		return nil
	}
	return CategorizedError{Category: category, Err: err}
}

// WrapLLM marks err as a model-layer failure so exit codes and API responses
// can tell it apart from extraction failures.
func WrapLLM(err error) error {
	return wrapCategory(CategoryLLM, err)
}

// CategoryOf returns the category of err, or CategoryUnknown.
func CategoryOf(err error) Category {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryUnknown
}

// ExitCode maps an error to a process exit code for the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExhaustedError
	if errors.As(err, &ee) {
		return 4
	}
	switch CategoryOf(err) {
	case CategoryInvalidURL:
		return 2
	case CategoryNetwork, CategoryUnavailable:
		return 3
	case CategoryNoData:
		return 4
	case CategoryLLM:
		return 5
	default:
		return 1
	}
}

// ErrNoStrategies reports a resolver invoked with an empty strategy list.
// This is a configuration error, not a runtime failure.
var ErrNoStrategies = errors.New("extract: no strategies configured")

// Attempt records one strategy that was tried and why it did not win.
type Attempt struct {
	Strategy string
	Err      error
}

// ExhaustedError is the terminal failure value returned when every strategy
// was tried without a viable artifact. It is an expected outcome for videos
// without captions and must not be treated as a crash.
type ExhaustedError struct {
	Kind     Kind
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "all %d strategies exhausted for %s: no strategy produced usable data; video may lack captions or be access-restricted", len(e.Attempts), e.Kind)
	for _, a := range e.Attempts {
		fmt.Fprintf(&sb, "; %s: %v", a.Strategy, a.Err)
	}
	return sb.String()
}
