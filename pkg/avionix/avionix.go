// Package avionix builds Helm charts from typed Kubernetes objects and
// manages their releases with the helm CLI.
//
// Basic usage:
//
//	b := avionix.New(avionix.ChartInfo{Name: "demo", Version: "0.1.0"},
//	    []entity.Object{node.NewRuntimeClass(meta.Named("gvisor"), "runsc")},
//	    avionix.WithOutputDir("build"),
//	)
//	if err := b.Install(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Scoped installation, torn down when fn returns:
//
//	err := avionix.Installation(ctx, b, func(ctx context.Context) error {
//	    return checkSomething(ctx)
//	})
package avionix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/internal/helm"
	"github.com/dmonroy/avionix/internal/logging"
	"github.com/dmonroy/avionix/internal/plan"
	"github.com/dmonroy/avionix/pkg/entity"
)

// Types shared with the helm orchestrator.
type (
	Orchestrator  = helm.Orchestrator
	Runner        = helm.Runner
	Result        = helm.Result
	ReleaseStatus = helm.ReleaseStatus
	State         = helm.State

	InstallError   = helm.InstallError
	UpgradeError   = helm.UpgradeError
	RollbackError  = helm.RollbackError
	UninstallError = helm.UninstallError
	OperationError = helm.OperationError
	ScopeError     = helm.ScopeError

	ConfigurationError = chart.ConfigurationError
)

// Release states.
const (
	StateAbsent       = helm.StateAbsent
	StateInstalling   = helm.StateInstalling
	StateInstalled    = helm.StateInstalled
	StateUpgrading    = helm.StateUpgrading
	StateUninstalling = helm.StateUninstalling
	StateFailed       = helm.StateFailed
	StateUnknown      = helm.StateUnknown
)

// ErrInvalidRelease is returned before helm runs when a release name or
// namespace is rejected.
var ErrInvalidRelease = helm.ErrInvalidRelease

// DefaultOutputDir is where charts are written when no output directory is
// configured.
const DefaultOutputDir = "charts"

// ChartInfo describes the chart itself, i.e. the content of Chart.yaml.
type ChartInfo struct {
	// APIVersion is the chart API version; defaults to "v2".
	APIVersion   string
	Name         string
	Version      string
	AppVersion   string
	Description  string
	Dependencies []ChartDependency
}

// ChartDependency is a chart the built chart depends on.
type ChartDependency struct {
	Name string
	// Version is a SemVer constraint, e.g. "~17.0.0".
	Version string
	// Repository is the repository URL, or a file:// path for a vendored
	// chart.
	Repository string
	// LocalRepoName is the name the repository is added under; defaults to
	// Name.
	LocalRepoName string
}

// File is one file of an assembled chart.
type File struct {
	// Path is relative to the chart directory.
	Path string
	Data []byte
}

// Change is one file that building the chart would add, remove or modify.
type Change struct {
	// Type is "added", "removed" or "modified".
	Type string
	Path string
	// Diff is the unified diff of a modified file.
	Diff string
}

// Option configures a ChartBuilder.
type Option func(*options)

type options struct {
	outputDir    string
	releaseName  string
	namespace    string
	orchestrator *Orchestrator
	runner       Runner
	helmBinary   string
	kubeContext  string
	wait         bool
	timeout      time.Duration
	createNS     bool
	logger       *slog.Logger
}

// WithOutputDir sets the directory the chart is written beneath before it is
// installed (default: "charts").
func WithOutputDir(dir string) Option { return func(o *options) { o.outputDir = dir } }

// WithReleaseName sets the release name (default: the chart name).
func WithReleaseName(name string) Option { return func(o *options) { o.releaseName = name } }

// WithNamespace sets the release namespace (default: "default").
func WithNamespace(ns string) Option { return func(o *options) { o.namespace = ns } }

// WithRunner runs helm through r instead of executing the helm binary.
func WithRunner(r Runner) Option { return func(o *options) { o.runner = r } }

// WithHelmBinary sets the helm executable (default: "helm" on PATH).
func WithHelmBinary(path string) Option { return func(o *options) { o.helmBinary = path } }

// WithKubeContext selects a kubeconfig context.
func WithKubeContext(name string) Option { return func(o *options) { o.kubeContext = name } }

// WithWait makes helm wait until resources are ready.
func WithWait() Option { return func(o *options) { o.wait = true } }

// WithTimeout bounds how long helm waits for Kubernetes operations.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithCreateNamespace makes install create the release namespace.
func WithCreateNamespace() Option { return func(o *options) { o.createNS = true } }

// WithLogger sets the logger; by default nothing is logged.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// WithOrchestrator uses o for every helm command, so several builders can
// share one. The runner and helm options above are ignored when it is set.
func WithOrchestrator(o *Orchestrator) Option {
	return func(opts *options) { opts.orchestrator = o }
}

// NewOrchestrator creates an orchestrator from the runner and helm options
// among opts; other options are ignored.
func NewOrchestrator(opts ...Option) *Orchestrator {
	return newOptions(opts).newOrchestrator()
}

func newOptions(opts []Option) options {
	o := options{
		outputDir: DefaultOutputDir,
		namespace: helm.DefaultNamespace,
		logger:    logging.Discard(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o options) newOrchestrator() *Orchestrator {
	return helm.New(o.runner,
		helm.WithBinary(o.helmBinary),
		helm.WithKubeContext(o.kubeContext),
		helm.WithWait(o.wait),
		helm.WithTimeout(o.timeout),
		helm.WithCreateNamespace(o.createNS),
		helm.WithLogger(o.logger),
	)
}

// ChartBuilder assembles a chart from objects and drives the lifecycle of
// its release.
type ChartBuilder struct {
	info    ChartInfo
	objects []entity.Object
	opts    options
	helm    *Orchestrator
}

// New creates a ChartBuilder for objects. Objects become templates in the
// given order.
func New(info ChartInfo, objects []entity.Object, opts ...Option) *ChartBuilder {
	o := newOptions(opts)

	if o.releaseName == "" {
		o.releaseName = info.Name
	}

	orch := o.orchestrator
	if orch == nil {
		orch = o.newOrchestrator()
	}

	return &ChartBuilder{info: info, objects: objects, opts: o, helm: orch}
}

// ReleaseName returns the name the chart is installed under.
func (b *ChartBuilder) ReleaseName() string { return b.opts.releaseName }

// Namespace returns the release namespace.
func (b *ChartBuilder) Namespace() string { return b.opts.namespace }

// Assemble renders the chart without touching the filesystem. The first
// file is Chart.yaml, followed by one template per object.
func (b *ChartBuilder) Assemble() ([]File, error) {
	layout, err := b.layout()
	if err != nil {
		return nil, err
	}

	files := layout.Files()
	out := make([]File, len(files))

	for i, f := range files {
		out[i] = File{Path: f.Path, Data: f.Data}
	}

	return out, nil
}

// Build writes the chart to <dir>/<chart-name> and returns that path. An
// empty dir uses the configured output directory.
func (b *ChartBuilder) Build(dir string) (string, error) {
	layout, err := b.layout()
	if err != nil {
		return "", err
	}

	return layout.Write(b.dir(dir), b.opts.logger)
}

// Plan reports what Build(dir) would change on disk, without writing.
func (b *ChartBuilder) Plan(dir string) ([]Change, error) {
	layout, err := b.layout()
	if err != nil {
		return nil, err
	}

	p, err := plan.DiffLayout(layout, filepath.Join(b.dir(dir), layout.Name))
	if err != nil {
		return nil, err
	}

	changes := make([]Change, 0, len(p.Changes))

	for _, c := range p.Changes {
		ch := Change{Type: string(c.Type), Path: c.Path}
		if c.Diff != nil {
			ch.Diff = c.Diff.Unified
		}

		changes = append(changes, ch)
	}

	return changes, nil
}

// Install builds the chart into the output directory and installs it. When
// the chart has remote dependencies their repositories are added and the
// dependencies fetched first.
func (b *ChartBuilder) Install(ctx context.Context) error {
	path, err := b.prepare(ctx)
	if err != nil {
		return err
	}

	return b.helm.Install(ctx, path, b.opts.releaseName, b.opts.namespace)
}

// Upgrade builds the chart into the output directory and upgrades the
// installed release to it.
func (b *ChartBuilder) Upgrade(ctx context.Context) error {
	path, err := b.prepare(ctx)
	if err != nil {
		return err
	}

	return b.helm.Upgrade(ctx, path, b.opts.releaseName, b.opts.namespace)
}

// Rollback returns the release to revision, or to the previous revision
// when revision is zero.
func (b *ChartBuilder) Rollback(ctx context.Context, revision int) error {
	return b.helm.Rollback(ctx, b.opts.releaseName, b.opts.namespace, revision)
}

// Uninstall removes the release. Uninstalling a release that does not exist
// succeeds.
func (b *ChartBuilder) Uninstall(ctx context.Context) error {
	return b.helm.Uninstall(ctx, b.opts.releaseName, b.opts.namespace)
}

// Status reports the release as the cluster currently sees it.
func (b *ChartBuilder) Status(ctx context.Context) (*ReleaseStatus, error) {
	return b.helm.Status(ctx, b.opts.releaseName, b.opts.namespace)
}

// Installation builds and installs the chart of b, runs fn, and uninstalls
// the release afterwards whatever happened. The error from the install or
// from fn takes precedence; if cleanup fails as well, both are returned in a
// *ScopeError.
func Installation(ctx context.Context, b *ChartBuilder, fn func(ctx context.Context) error) error {
	path, err := b.prepare(ctx)
	if err != nil {
		return err
	}

	return helm.WithRelease(ctx, b.helm, path, b.opts.releaseName, b.opts.namespace, fn)
}

// IsHelmFailure reports whether err comes from helm exiting non-zero.
func IsHelmFailure(err error) bool {
	return helm.IsOperationFailure(err)
}

// IsConfigurationError reports whether err is a rejected chart description.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError

	return errors.As(err, &cfgErr)
}

func (b *ChartBuilder) layout() (*chart.Layout, error) {
	deps := make([]chart.Dependency, len(b.info.Dependencies))
	for i, d := range b.info.Dependencies {
		deps[i] = chart.Dependency{
			Name:           d.Name,
			Version:        d.Version,
			Repository:     d.Repository,
			RepositoryName: d.LocalRepoName,
		}
	}

	return chart.Assemble(chart.Descriptor{
		Metadata: chart.Metadata{
			APIVersion:   b.info.APIVersion,
			Name:         b.info.Name,
			Version:      b.info.Version,
			AppVersion:   b.info.AppVersion,
			Description:  b.info.Description,
			Dependencies: deps,
		},
		Objects: b.objects,
	})
}

// prepare writes the chart and fetches its remote dependencies.
func (b *ChartBuilder) prepare(ctx context.Context) (string, error) {
	layout, err := b.layout()
	if err != nil {
		return "", err
	}

	path, err := layout.Write(b.opts.outputDir, b.opts.logger)
	if err != nil {
		return "", err
	}

	if !layout.HasRemoteDependencies() {
		return path, nil
	}

	for _, d := range layout.Dependencies {
		if d.IsLocal() {
			continue
		}

		if err := b.helm.RepoAdd(ctx, d.RepoName(), d.Repository); err != nil {
			return "", fmt.Errorf("preparing dependency %s: %w", d.Name, err)
		}
	}

	if err := b.helm.DependencyUpdate(ctx, path); err != nil {
		return "", fmt.Errorf("preparing dependencies of %s: %w", layout.Name, err)
	}

	return path, nil
}

func (b *ChartBuilder) dir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return b.opts.outputDir
	}

	return dir
}
