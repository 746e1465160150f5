package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/internal/helm"
	"github.com/dmonroy/avionix/internal/logging"
	"github.com/dmonroy/avionix/pkg/entity"
	"github.com/dmonroy/avionix/pkg/kube/core"
	"github.com/dmonroy/avionix/pkg/kube/meta"
)

// executeCommand is a test helper that runs the CLI with the given args and
// captures both stdout and stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	cmd := NewRootCommand()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()

	return outBuf.String(), errBuf.String(), err
}

// scriptedRunner answers helm and kubectl invocations from results keyed
// by the first argument and records every command line.
type scriptedRunner struct {
	mu      sync.Mutex
	calls   []string
	results map[string]*helm.Result
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (*helm.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))

	if res, ok := r.results[args[0]]; ok {
		return res, nil
	}

	return &helm.Result{}, nil
}

func (r *scriptedRunner) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

// useRunner makes every command built during the test use a scripted
// runner with the given results.
func useRunner(t *testing.T, results map[string]*helm.Result) *scriptedRunner {
	t.Helper()

	r := &scriptedRunner{results: results}
	if r.results == nil {
		r.results = map[string]*helm.Result{}
	}

	prev := newRunner
	newRunner = func() helm.Runner { return r }

	t.Cleanup(func() { newRunner = prev })

	return r
}

// writeChart assembles a chart holding one ConfigMap and writes it to a
// temporary directory.
func writeChart(t *testing.T, deps ...chart.Dependency) string {
	t.Helper()

	layout, err := chart.Assemble(chart.Descriptor{
		Metadata: chart.Metadata{Name: "demo", Version: "0.1.0", Dependencies: deps},
		Objects: []entity.Object{
			core.ConfigMap{
				Metadata: meta.Named("settings"),
				Data:     entity.Some(map[string]string{"mode": "fast"}),
			},
		},
	})
	require.NoError(t, err)

	dir, err := layout.Write(t.TempDir(), logging.Discard())
	require.NoError(t, err)

	return dir
}

func failed(code int, stderr string) *helm.Result {
	return &helm.Result{ExitCode: code, Stderr: []byte(stderr)}
}

func succeeded(stdout string) *helm.Result {
	return &helm.Result{Stdout: []byte(stdout)}
}
