package avionix_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmonroy/avionix/pkg/avionix"
	"github.com/dmonroy/avionix/pkg/entity"
	"github.com/dmonroy/avionix/pkg/kube/meta"
	"github.com/dmonroy/avionix/pkg/kube/node"
)

// recorder answers helm invocations by subcommand and records them.
type recorder struct {
	mu      sync.Mutex
	calls   []string
	results map[string]*avionix.Result
}

func (r *recorder) Run(_ context.Context, name string, args ...string) (*avionix.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))

	if res, ok := r.results[args[0]]; ok {
		return res, nil
	}

	return &avionix.Result{}, nil
}

func newBuilder(t *testing.T, r *recorder, opts ...avionix.Option) (*avionix.ChartBuilder, string) {
	t.Helper()

	out := t.TempDir()
	info := avionix.ChartInfo{
		Name:        "test-chart",
		Version:     "0.1.0",
		AppVersion:  "v1",
		Description: "runtime classes",
	}

	objects := []entity.Object{node.NewRuntimeClass(meta.Named("runtime-class"), "test")}

	opts = append([]avionix.Option{avionix.WithOutputDir(out), avionix.WithRunner(r)}, opts...)

	return avionix.New(info, objects, opts...), out
}

func TestChartBuilder_Assemble(t *testing.T) {
	b, _ := newBuilder(t, &recorder{})

	files, err := b.Assemble()
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "Chart.yaml", files[0].Path)
	assert.Contains(t, string(files[0].Data), "name: test-chart\n")
	assert.Equal(t, filepath.Join("templates", "runtimeclass-runtime-class.yaml"), files[1].Path)
	assert.Equal(t, `apiVersion: node.k8s.io/v1
kind: RuntimeClass
metadata:
  name: runtime-class
handler: test
`, string(files[1].Data))
}

func TestChartBuilder_Defaults(t *testing.T) {
	b, _ := newBuilder(t, &recorder{})

	assert.Equal(t, "test-chart", b.ReleaseName())
	assert.Equal(t, "default", b.Namespace())

	b, _ = newBuilder(t, &recorder{}, avionix.WithReleaseName("rc"), avionix.WithNamespace("sandbox"))
	assert.Equal(t, "rc", b.ReleaseName())
	assert.Equal(t, "sandbox", b.Namespace())
}

func TestChartBuilder_InvalidChart(t *testing.T) {
	b := avionix.New(avionix.ChartInfo{Name: "bad", Version: "one"}, nil, avionix.WithOutputDir(t.TempDir()))

	_, err := b.Assemble()
	require.Error(t, err)
	assert.True(t, avionix.IsConfigurationError(err))

	r := &recorder{}
	b = avionix.New(avionix.ChartInfo{Name: "bad", Version: "one"}, nil,
		avionix.WithOutputDir(t.TempDir()), avionix.WithRunner(r))
	require.Error(t, b.Install(context.Background()))
	assert.Empty(t, r.calls)
}

func TestChartBuilder_BuildAndPlan(t *testing.T) {
	b, out := newBuilder(t, &recorder{})

	changes, err := b.Plan("")
	require.NoError(t, err)
	require.Len(t, changes, 2)

	for _, c := range changes {
		assert.Equal(t, "added", c.Type)
	}

	path, err := b.Build("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "test-chart"), path)
	assert.FileExists(t, filepath.Join(path, "templates", "runtimeclass-runtime-class.yaml"))

	changes, err = b.Plan("")
	require.NoError(t, err)
	assert.Empty(t, changes)

	tpl := filepath.Join(path, "templates", "runtimeclass-runtime-class.yaml")
	require.NoError(t, os.WriteFile(tpl, []byte("handler: other\n"), 0o600))

	changes, err = b.Plan(out)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "modified", changes[0].Type)
	assert.Contains(t, changes[0].Diff, "+handler: test")
}

func TestChartBuilder_Lifecycle(t *testing.T) {
	r := &recorder{results: map[string]*avionix.Result{
		"status": {Stdout: []byte(`{"name":"test-chart","namespace":"default","version":1,"info":{"status":"deployed"}}`)},
	}}
	b, out := newBuilder(t, r)
	ctx := context.Background()
	path := filepath.Join(out, "test-chart")

	require.NoError(t, b.Install(ctx))
	require.NoError(t, b.Upgrade(ctx))
	require.NoError(t, b.Rollback(ctx, 1))

	st, err := b.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, avionix.StateInstalled, st.State)

	require.NoError(t, b.Uninstall(ctx))

	assert.Equal(t, []string{
		"helm install test-chart " + path + " --namespace default",
		"helm upgrade test-chart " + path + " --namespace default",
		"helm rollback test-chart 1 --namespace default",
		"helm status test-chart --namespace default --output json",
		"helm uninstall test-chart --namespace default",
	}, r.calls)
}

func TestChartBuilder_InstallFetchesRemoteDependencies(t *testing.T) {
	r := &recorder{}
	out := t.TempDir()
	b := avionix.New(avionix.ChartInfo{
		Name:    "app",
		Version: "1.0.0",
		Dependencies: []avionix.ChartDependency{
			{Name: "redis", Version: "~17.0.0", Repository: "https://charts.example.com", LocalRepoName: "example"},
			{Name: "common", Version: "1.0.0", Repository: "file://../common"},
		},
	}, nil, avionix.WithOutputDir(out), avionix.WithRunner(r))

	require.NoError(t, b.Install(context.Background()))

	path := filepath.Join(out, "app")
	assert.Equal(t, []string{
		"helm repo add example https://charts.example.com --force-update",
		"helm dependency update " + path,
		"helm install app " + path + " --namespace default",
	}, r.calls)
}

func TestChartBuilder_InstallFailureIsTyped(t *testing.T) {
	r := &recorder{results: map[string]*avionix.Result{
		"install": {ExitCode: 1, Stderr: []byte("Error: INSTALLATION FAILED: boom\n")},
	}}
	b, _ := newBuilder(t, r)

	err := b.Install(context.Background())
	require.Error(t, err)

	var installErr *avionix.InstallError
	require.ErrorAs(t, err, &installErr)
	assert.Equal(t, "Error: INSTALLATION FAILED: boom\n", installErr.Output)
	assert.True(t, avionix.IsHelmFailure(err))
}

func TestInstallation_TearsDown(t *testing.T) {
	r := &recorder{}
	b, out := newBuilder(t, r, avionix.WithNamespace("sandbox"), avionix.WithCreateNamespace())

	ran := false
	err := avionix.Installation(context.Background(), b, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	assert.Equal(t, []string{
		"helm install test-chart " + filepath.Join(out, "test-chart") + " --namespace sandbox --create-namespace",
		"helm uninstall test-chart --namespace sandbox",
	}, r.calls)
}

func TestInstallation_PrimaryErrorWins(t *testing.T) {
	r := &recorder{results: map[string]*avionix.Result{
		"uninstall": {ExitCode: 1, Stderr: []byte("Error: cluster unreachable\n")},
	}}
	b, _ := newBuilder(t, r)
	inScope := errors.New("verification failed")

	err := avionix.Installation(context.Background(), b, func(context.Context) error { return inScope })
	require.Error(t, err)

	var scopeErr *avionix.ScopeError
	require.ErrorAs(t, err, &scopeErr)
	assert.ErrorIs(t, scopeErr.Primary, inScope)

	var uninstallErr *avionix.UninstallError
	assert.ErrorAs(t, err, &uninstallErr)
}

func TestInstallation_AlreadyUninstalled(t *testing.T) {
	r := &recorder{results: map[string]*avionix.Result{
		"uninstall": {ExitCode: 1, Stderr: []byte("Error: uninstall: Release not loaded: test-chart: release: not found\n")},
	}}
	b, _ := newBuilder(t, r)

	err := avionix.Installation(context.Background(), b, func(ctx context.Context) error {
		return b.Uninstall(ctx)
	})
	require.NoError(t, err)
	assert.Len(t, r.calls, 3)
}
