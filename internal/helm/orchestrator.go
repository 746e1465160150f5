package helm

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/release"
	"k8s.io/apimachinery/pkg/util/validation"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/dmonroy/avionix/internal/logging"
)

// DefaultBinary is the helm executable looked up on PATH.
const DefaultBinary = "helm"

// DefaultNamespace is used when an operation is given no namespace.
const DefaultNamespace = "default"

// Orchestrator runs helm lifecycle commands through a Runner.
type Orchestrator struct {
	runner          Runner
	binary          string
	kubeContext     string
	wait            bool
	timeout         time.Duration
	createNamespace bool
	logger          *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBinary sets the helm executable.
func WithBinary(path string) Option {
	return func(o *Orchestrator) {
		if path != "" {
			o.binary = path
		}
	}
}

// WithKubeContext selects a kubeconfig context for every command.
func WithKubeContext(name string) Option {
	return func(o *Orchestrator) { o.kubeContext = name }
}

// WithWait makes install, upgrade and rollback wait for resources to
// become ready.
func WithWait(wait bool) Option {
	return func(o *Orchestrator) { o.wait = wait }
}

// WithTimeout bounds how long helm waits for Kubernetes operations.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithCreateNamespace makes install create the target namespace.
func WithCreateNamespace(create bool) Option {
	return func(o *Orchestrator) { o.createNamespace = create }
}

// WithLogger sets the logger for command and transition logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator. A nil runner runs helm with ExecRunner.
func New(runner Runner, opts ...Option) *Orchestrator {
	if runner == nil {
		runner = ExecRunner{}
	}

	o := &Orchestrator{
		runner: runner,
		binary: DefaultBinary,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Install installs chartPath as release in namespace.
func (o *Orchestrator) Install(ctx context.Context, chartPath, releaseName, namespace string) error {
	namespace, err := checkTarget(releaseName, namespace)
	if err != nil {
		return err
	}

	args := []string{"install", releaseName, chartPath, "--namespace", namespace}
	if o.createNamespace {
		args = append(args, "--create-namespace")
	}

	args = o.waitArgs(args)

	res, err := o.transition(ctx, releaseName, namespace, StateAbsent, StateInstalling, args)
	if err != nil {
		return fmt.Errorf("installing release %s/%s: %w", namespace, releaseName, err)
	}

	if !res.Success() {
		o.logFailure("install", releaseName, namespace, res)

		return &InstallError{*newOpError("install", releaseName, namespace, res)}
	}

	logging.ForRelease(o.logger, releaseName, namespace).Info("release installed")

	return nil
}

// Upgrade upgrades release to chartPath. The release is expected to be
// installed already; that precondition is not checked.
func (o *Orchestrator) Upgrade(ctx context.Context, chartPath, releaseName, namespace string) error {
	namespace, err := checkTarget(releaseName, namespace)
	if err != nil {
		return err
	}

	args := o.waitArgs([]string{"upgrade", releaseName, chartPath, "--namespace", namespace})

	res, err := o.transition(ctx, releaseName, namespace, StateInstalled, StateUpgrading, args)
	if err != nil {
		return fmt.Errorf("upgrading release %s/%s: %w", namespace, releaseName, err)
	}

	if !res.Success() {
		o.logFailure("upgrade", releaseName, namespace, res)

		return &UpgradeError{*newOpError("upgrade", releaseName, namespace, res)}
	}

	logging.ForRelease(o.logger, releaseName, namespace).Info("release upgraded")

	return nil
}

// Rollback rolls release back to revision. A revision of zero or less
// rolls back to the previous revision.
func (o *Orchestrator) Rollback(ctx context.Context, releaseName, namespace string, revision int) error {
	namespace, err := checkTarget(releaseName, namespace)
	if err != nil {
		return err
	}

	args := []string{"rollback", releaseName}
	if revision > 0 {
		args = append(args, strconv.Itoa(revision))
	}

	args = o.waitArgs(append(args, "--namespace", namespace))

	res, err := o.transition(ctx, releaseName, namespace, StateInstalled, StateUpgrading, args)
	if err != nil {
		return fmt.Errorf("rolling back release %s/%s: %w", namespace, releaseName, err)
	}

	if !res.Success() {
		o.logFailure("rollback", releaseName, namespace, res)

		return &RollbackError{*newOpError("rollback", releaseName, namespace, res)}
	}

	logging.ForRelease(o.logger, releaseName, namespace).Info("release rolled back", slog.Int("revision", revision))

	return nil
}

// Uninstall removes release. Uninstalling a release that does not exist
// succeeds, so teardown can be repeated safely.
func (o *Orchestrator) Uninstall(ctx context.Context, releaseName, namespace string) error {
	namespace, err := checkTarget(releaseName, namespace)
	if err != nil {
		return err
	}

	args := []string{"uninstall", releaseName, "--namespace", namespace}
	if o.wait {
		args = append(args, "--wait")
	}

	if o.timeout > 0 {
		args = append(args, "--timeout", o.timeout.String())
	}

	res, err := o.transition(ctx, releaseName, namespace, StateInstalled, StateUninstalling, args)
	if err != nil {
		return fmt.Errorf("uninstalling release %s/%s: %w", namespace, releaseName, err)
	}

	if !res.Success() {
		if isNotFound(res.Output()) {
			logging.ForRelease(o.logger, releaseName, namespace).Debug("release already absent")

			return nil
		}

		o.logFailure("uninstall", releaseName, namespace, res)

		return &UninstallError{*newOpError("uninstall", releaseName, namespace, res)}
	}

	logging.ForRelease(o.logger, releaseName, namespace).Info("release uninstalled")

	return nil
}

// ReleaseStatus is a release as the cluster currently reports it.
type ReleaseStatus struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	State     State  `json:"state"`
	// Status is helm's own status string, e.g. "deployed"; empty when absent.
	Status       string    `json:"status,omitempty"`
	Revision     int       `json:"revision,omitempty"`
	Chart        string    `json:"chart,omitempty"`
	ChartVersion string    `json:"chartVersion,omitempty"`
	AppVersion   string    `json:"appVersion,omitempty"`
	Description  string    `json:"description,omitempty"`
	LastDeployed time.Time `json:"lastDeployed,omitzero"`
}

// Status queries helm for release. A release helm does not know is
// reported with State StateAbsent and no error.
func (o *Orchestrator) Status(ctx context.Context, releaseName, namespace string) (*ReleaseStatus, error) {
	namespace, err := checkTarget(releaseName, namespace)
	if err != nil {
		return nil, err
	}

	res, err := o.run(ctx, []string{"status", releaseName, "--namespace", namespace, "--output", "json"})
	if err != nil {
		return nil, fmt.Errorf("querying release %s/%s: %w", namespace, releaseName, err)
	}

	if !res.Success() {
		if isNotFound(res.Output()) {
			return &ReleaseStatus{Name: releaseName, Namespace: namespace, State: StateAbsent}, nil
		}

		return nil, newOpError("status", releaseName, namespace, res)
	}

	var rel release.Release
	if err := sigsyaml.Unmarshal(res.Stdout, &rel); err != nil {
		return nil, fmt.Errorf("decoding status of %s/%s: %w", namespace, releaseName, err)
	}

	return statusOf(&rel, releaseName, namespace), nil
}

func statusOf(rel *release.Release, releaseName, namespace string) *ReleaseStatus {
	st := &ReleaseStatus{
		Name:      rel.Name,
		Namespace: rel.Namespace,
		Revision:  rel.Version,
		State:     StateUnknown,
	}

	if st.Name == "" {
		st.Name = releaseName
	}

	if st.Namespace == "" {
		st.Namespace = namespace
	}

	if rel.Info != nil {
		st.Status = rel.Info.Status.String()
		st.State = stateOf(rel.Info.Status)
		st.Description = rel.Info.Description
		st.LastDeployed = rel.Info.LastDeployed.Time
	}

	if rel.Chart != nil && rel.Chart.Metadata != nil {
		st.Chart = rel.Chart.Metadata.Name
		st.ChartVersion = rel.Chart.Metadata.Version
		st.AppVersion = rel.Chart.Metadata.AppVersion
	}

	return st
}

// DependencyUpdate fetches the dependencies declared by the chart at
// chartPath into its charts/ directory.
func (o *Orchestrator) DependencyUpdate(ctx context.Context, chartPath string) error {
	res, err := o.run(ctx, []string{"dependency", "update", chartPath})
	if err != nil {
		return fmt.Errorf("updating dependencies of %s: %w", chartPath, err)
	}

	if !res.Success() {
		return newOpError("dependency update", chartPath, "", res)
	}

	return nil
}

// RepoAdd registers a chart repository under name, replacing any existing
// entry with the same name.
func (o *Orchestrator) RepoAdd(ctx context.Context, name, url string) error {
	if name == "" || url == "" {
		return fmt.Errorf("%w: repository name and url are required", ErrInvalidRelease)
	}

	res, err := o.run(ctx, []string{"repo", "add", name, url, "--force-update"})
	if err != nil {
		return fmt.Errorf("adding repository %s: %w", name, err)
	}

	if !res.Success() {
		return newOpError("repo add", name, "", res)
	}

	return nil
}

// ClientVersion returns the output of "helm version --short", trimmed.
func (o *Orchestrator) ClientVersion(ctx context.Context) (string, error) {
	res, err := o.runner.Run(ctx, o.binary, "version", "--short")
	if err != nil {
		return "", fmt.Errorf("querying helm version: %w", err)
	}

	if !res.Success() {
		return "", newOpError("version", "", "", res)
	}

	return strings.TrimSpace(string(res.Stdout)), nil
}

// transition logs the move into a transient state and runs the command.
// An interrupted command leaves the release in an unknown state.
func (o *Orchestrator) transition(ctx context.Context, releaseName, namespace string, from, to State, args []string) (*Result, error) {
	log := logging.ForRelease(o.logger, releaseName, namespace)
	log.Debug("release transition", slog.String("from", from.String()), slog.String("to", to.String()))

	res, err := o.run(ctx, args)
	if err != nil {
		log.Warn("helm interrupted, release state unknown",
			slog.String("state", StateUnknown.String()),
			slog.String("error", err.Error()),
		)
	}

	return res, err
}

func (o *Orchestrator) run(ctx context.Context, args []string) (*Result, error) {
	if o.kubeContext != "" {
		args = append(args, "--kube-context", o.kubeContext)
	}

	o.logger.Debug("running helm", slog.String("command", commandLine(o.binary, args)))

	start := time.Now()

	res, err := o.runner.Run(ctx, o.binary, args...)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("helm finished",
		slog.Int("exit_code", res.ExitCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

func (o *Orchestrator) waitArgs(args []string) []string {
	if o.wait {
		args = append(args, "--wait")
	}

	if o.timeout > 0 {
		args = append(args, "--timeout", o.timeout.String())
	}

	return args
}

func newOpError(op, releaseName, namespace string, res *Result) *OperationError {
	return &OperationError{
		Op:        op,
		Release:   releaseName,
		Namespace: namespace,
		ExitCode:  res.ExitCode,
		Output:    res.Output(),
	}
}

func (o *Orchestrator) logFailure(op, releaseName, namespace string, res *Result) {
	logging.ForRelease(o.logger, releaseName, namespace).Error("helm "+op+" failed",
		slog.Int("exit_code", res.ExitCode),
		logging.Output("output", res.Output()),
	)
}

// checkTarget validates the release name and namespace before any process
// is started and returns the effective namespace.
func checkTarget(releaseName, namespace string) (string, error) {
	if err := chartutil.ValidateReleaseName(releaseName); err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidRelease, releaseName, err)
	}

	if namespace == "" {
		return DefaultNamespace, nil
	}

	if problems := validation.IsDNS1123Label(namespace); len(problems) > 0 {
		return "", fmt.Errorf("%w: namespace %q: %v", ErrInvalidRelease, namespace, problems)
	}

	return namespace, nil
}
