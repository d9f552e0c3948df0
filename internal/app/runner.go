package app

import (
	"context"
	"sync"

	"github.com/ytbrief/ytbrief/internal/extract"
)

// Result pairs one input URL with its outcome for CLI reporting and -json
// output.
type Result struct {
	URL     string   `json:"url"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Err     error    `json:"-"`
	Error   string   `json:"error,omitempty"`
}

// Run processes urls through svc with a bounded worker pool and returns the
// results plus the process exit code (the worst exit code of any failure, or
// 130 when the context was cancelled).
func Run(ctx context.Context, svc *Service, urls []string, action Action, jobs int) ([]Result, int) {
	if jobs < 1 {
		jobs = 1
	}

	tasks := make(chan string)
	results := make(chan Result, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case url, ok := <-tasks:
					if !ok {
						return
					}
					outcome, err := svc.Process(ctx, url, action)
					result := Result{URL: url, Outcome: outcome, Err: err}
					if err != nil {
						result.Error = err.Error()
					}
					select {
					case results <- result:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	submitted := 0
	for _, url := range urls {
		select {
		case <-ctx.Done():
			goto done
		case tasks <- url:
			submitted++
		}
	}

done:
	close(tasks)
	go func() {
		wg.Wait()
		close(results)
	}()

	output := make([]Result, 0, submitted)
	exitCode := 0
	cancelled := false
	for res := range results {
		output = append(output, res)
		if res.Err != nil {
			if code := extract.ExitCode(res.Err); code > exitCode {
				exitCode = code
			}
		}
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
	}

	if cancelled && exitCode == 0 {
		exitCode = 130
	}
	return output, exitCode
}
