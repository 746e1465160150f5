package helm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(r Runner, opts ...Option) *Orchestrator {
	return New(r, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

// ---------------------------------------------------------------------------
// Install / Upgrade
// ---------------------------------------------------------------------------

func TestInstall_Success(t *testing.T) {
	r := newFakeRunner()
	o := newTestOrchestrator(r)

	require.NoError(t, o.Install(context.Background(), "/charts/demo", "demo", "apps"))
	assert.Equal(t, []string{"helm install demo /charts/demo --namespace apps"}, r.commands())
}

func TestInstall_Options(t *testing.T) {
	r := newFakeRunner()
	o := newTestOrchestrator(r,
		WithBinary("/usr/local/bin/helm"),
		WithKubeContext("kind-dev"),
		WithWait(true),
		WithTimeout(90*time.Second),
		WithCreateNamespace(true),
	)

	require.NoError(t, o.Install(context.Background(), "./demo", "demo", ""))
	assert.Equal(t, []string{
		"/usr/local/bin/helm install demo ./demo --namespace default --create-namespace --wait --timeout 1m30s --kube-context kind-dev",
	}, r.commands())
}

func TestInstall_FailureCarriesOutputVerbatim(t *testing.T) {
	diag := "Error: INSTALLATION FAILED: cannot re-use a name that is still in use\n"
	r := newFakeRunner().on("install", &Result{ExitCode: 1, Stdout: []byte("partial\n"), Stderr: []byte(diag)})
	o := newTestOrchestrator(r)

	err := o.Install(context.Background(), "./demo", "demo", "apps")

	var installErr *InstallError
	require.ErrorAs(t, err, &installErr)
	assert.Equal(t, "partial\n"+diag, installErr.Output)
	assert.Equal(t, 1, installErr.ExitCode)
	assert.Equal(t, "install", installErr.Op)
	assert.Contains(t, err.Error(), "cannot re-use a name")
	assert.True(t, IsOperationFailure(err))
	assert.Len(t, r.commands(), 1, "failures are not retried")
}

func TestUpgrade(t *testing.T) {
	r := newFakeRunner().on("upgrade", ok(""), fail(1, "Error: UPGRADE FAILED: has no deployed releases\n"))
	o := newTestOrchestrator(r, WithWait(true))

	require.NoError(t, o.Upgrade(context.Background(), "./demo", "demo", "apps"))
	assert.Equal(t, "helm upgrade demo ./demo --namespace apps --wait", r.commands()[0])

	err := o.Upgrade(context.Background(), "./demo", "demo", "apps")

	var upgradeErr *UpgradeError
	require.ErrorAs(t, err, &upgradeErr)
	assert.Equal(t, "Error: UPGRADE FAILED: has no deployed releases\n", upgradeErr.Output)

	var installErr *InstallError
	assert.False(t, errors.As(err, &installErr))
}

// ---------------------------------------------------------------------------
// Rollback
// ---------------------------------------------------------------------------

func TestRollback(t *testing.T) {
	r := newFakeRunner()
	o := newTestOrchestrator(r)

	require.NoError(t, o.Rollback(context.Background(), "demo", "apps", 3))
	require.NoError(t, o.Rollback(context.Background(), "demo", "apps", 0))

	assert.Equal(t, []string{
		"helm rollback demo 3 --namespace apps",
		"helm rollback demo --namespace apps",
	}, r.commands())
}

func TestRollback_FailureCarriesOutputVerbatim(t *testing.T) {
	r := newFakeRunner().on("rollback", fail(1, "Error: release has no 7 version\n"))
	o := newTestOrchestrator(r)

	err := o.Rollback(context.Background(), "demo", "apps", 7)

	var rbErr *RollbackError
	require.ErrorAs(t, err, &rbErr)
	assert.Equal(t, "Error: release has no 7 version\n", rbErr.Output)
}

// ---------------------------------------------------------------------------
// Uninstall
// ---------------------------------------------------------------------------

func TestUninstall_TwiceSucceeds(t *testing.T) {
	r := newFakeRunner().on("uninstall", ok("release \"demo\" uninstalled\n"), fail(1, notFound))
	o := newTestOrchestrator(r)

	require.NoError(t, o.Uninstall(context.Background(), "demo", "apps"))
	require.NoError(t, o.Uninstall(context.Background(), "demo", "apps"))
	assert.Len(t, r.commands(), 2)
}

func TestUninstall_OtherFailure(t *testing.T) {
	r := newFakeRunner().on("uninstall", fail(1, "Error: Kubernetes cluster unreachable\n"))
	o := newTestOrchestrator(r)

	err := o.Uninstall(context.Background(), "demo", "apps")

	var unErr *UninstallError
	require.ErrorAs(t, err, &unErr)
	assert.Equal(t, "Error: Kubernetes cluster unreachable\n", unErr.Output)
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

const statusJSON = `{
  "name": "demo",
  "namespace": "apps",
  "version": 4,
  "info": {
    "status": "deployed",
    "description": "Upgrade complete",
    "last_deployed": "2026-03-01T10:00:00Z"
  },
  "chart": {
    "metadata": {"name": "demo", "version": "0.2.0", "appVersion": "1.1", "apiVersion": "v2"}
  }
}`

func TestStatus_Deployed(t *testing.T) {
	r := newFakeRunner().on("status", ok(statusJSON))
	o := newTestOrchestrator(r)

	st, err := o.Status(context.Background(), "demo", "apps")
	require.NoError(t, err)

	assert.Equal(t, "helm status demo --namespace apps --output json", r.commands()[0])
	assert.Equal(t, StateInstalled, st.State)
	assert.Equal(t, "deployed", st.Status)
	assert.Equal(t, 4, st.Revision)
	assert.Equal(t, "demo", st.Chart)
	assert.Equal(t, "0.2.0", st.ChartVersion)
	assert.Equal(t, "1.1", st.AppVersion)
	assert.Equal(t, "Upgrade complete", st.Description)
	assert.Equal(t, 2026, st.LastDeployed.Year())
}

func TestStatus_Absent(t *testing.T) {
	r := newFakeRunner().on("status", fail(1, "Error: release: not found\n"))
	o := newTestOrchestrator(r)

	st, err := o.Status(context.Background(), "demo", "apps")
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, st.State)
	assert.Equal(t, "demo", st.Name)
	assert.Equal(t, "apps", st.Namespace)
}

func TestStatus_Failure(t *testing.T) {
	r := newFakeRunner().on("status", fail(1, "Error: Kubernetes cluster unreachable\n"))
	o := newTestOrchestrator(r)

	_, err := o.Status(context.Background(), "demo", "apps")
	require.Error(t, err)
	assert.True(t, IsOperationFailure(err))
}

func TestStatus_BadJSON(t *testing.T) {
	r := newFakeRunner().on("status", ok("{not json"))
	o := newTestOrchestrator(r)

	_, err := o.Status(context.Background(), "demo", "apps")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding status")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ABSENT", StateAbsent.String())
	assert.Equal(t, "INSTALLING", StateInstalling.String())
	assert.Equal(t, "INSTALLED", StateInstalled.String())
	assert.Equal(t, "UPGRADING", StateUpgrading.String())
	assert.Equal(t, "UNINSTALLING", StateUninstalling.String())
	assert.Equal(t, "FAILED", StateFailed.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

func TestRepoAddAndDependencyUpdate(t *testing.T) {
	r := newFakeRunner()
	o := newTestOrchestrator(r)

	require.NoError(t, o.RepoAdd(context.Background(), "bitnami", "https://charts.bitnami.com/bitnami"))
	require.NoError(t, o.DependencyUpdate(context.Background(), "./demo"))

	assert.Equal(t, []string{
		"helm repo add bitnami https://charts.bitnami.com/bitnami --force-update",
		"helm dependency update ./demo",
	}, r.commands())
}

func TestRepoAdd_Invalid(t *testing.T) {
	r := newFakeRunner()
	o := newTestOrchestrator(r)

	require.Error(t, o.RepoAdd(context.Background(), "", "https://example.com"))
	assert.Empty(t, r.commands())
}

func TestDependencyUpdate_Failure(t *testing.T) {
	r := newFakeRunner().on("dependency", fail(1, "Error: no repository definition for https://charts.example.com\n"))
	o := newTestOrchestrator(r)

	err := o.DependencyUpdate(context.Background(), "./demo")

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "dependency update", opErr.Op)
}

// ---------------------------------------------------------------------------
// Validation and interruption
// ---------------------------------------------------------------------------

func TestInvalidTargetsNeverRunHelm(t *testing.T) {
	tests := []struct {
		name      string
		release   string
		namespace string
	}{
		{"empty release", "", "apps"},
		{"upper case release", "Demo", "apps"},
		{"release with slash", "a/b", "apps"},
		{"bad namespace", "demo", "Apps_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRunner()
			o := newTestOrchestrator(r)
			ctx := context.Background()

			require.ErrorIs(t, o.Install(ctx, "./demo", tt.release, tt.namespace), ErrInvalidRelease)
			require.ErrorIs(t, o.Upgrade(ctx, "./demo", tt.release, tt.namespace), ErrInvalidRelease)
			require.ErrorIs(t, o.Rollback(ctx, tt.release, tt.namespace, 1), ErrInvalidRelease)
			require.ErrorIs(t, o.Uninstall(ctx, tt.release, tt.namespace), ErrInvalidRelease)

			_, err := o.Status(ctx, tt.release, tt.namespace)
			require.ErrorIs(t, err, ErrInvalidRelease)

			assert.Empty(t, r.commands())
		})
	}
}

func TestInstall_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newFakeRunner()
	o := newTestOrchestrator(r)

	err := o.Install(ctx, "./demo", "demo", "apps")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsOperationFailure(err))
}

func TestInstall_RunnerError(t *testing.T) {
	r := newFakeRunner()
	r.err = errors.New(`exec: "helm": executable file not found in $PATH`)
	o := newTestOrchestrator(r)

	err := o.Install(context.Background(), "./demo", "demo", "apps")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executable file not found")
}

func TestClientVersion(t *testing.T) {
	r := newFakeRunner().on("version", ok("v3.20.0+g1234567\n"))
	o := newTestOrchestrator(r, WithKubeContext("ignored"))

	v, err := o.ClientVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v3.20.0+g1234567", v)
	assert.Equal(t, []string{"helm version --short"}, r.commands())
}
