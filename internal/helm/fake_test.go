package helm

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner records invocations and answers them from a script keyed by
// helm subcommand.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	results map[string][]*Result
	err     error
	onRun   func(args []string)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string][]*Result{}}
}

// on queues results for a subcommand; the last one is repeated.
func (f *fakeRunner) on(sub string, results ...*Result) *fakeRunner {
	f.results[sub] = append(f.results[sub], results...)

	return f
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string{name}, args...))

	if f.onRun != nil {
		f.onRun(args)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if f.err != nil {
		return nil, f.err
	}

	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}

	queue := f.results[sub]
	if len(queue) == 0 {
		return &Result{}, nil
	}

	res := queue[0]
	if len(queue) > 1 {
		f.results[sub] = queue[1:]
	}

	return res, nil
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c, " ")
	}

	return out
}

func ok(stdout string) *Result {
	return &Result{Stdout: []byte(stdout)}
}

func fail(code int, stderr string) *Result {
	return &Result{ExitCode: code, Stderr: []byte(stderr)}
}

const notFound = "Error: uninstall: Release not loaded: demo: release: not found\n"
