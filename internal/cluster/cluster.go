// Package cluster queries a Kubernetes cluster through kubectl so callers
// can check what a release actually created.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/dmonroy/avionix/internal/helm"
)

// DefaultBinary is the kubectl executable looked up on PATH.
const DefaultBinary = "kubectl"

// QueryError reports a kubectl command that exited non-zero.
type QueryError struct {
	Kind      string
	Namespace string
	ExitCode  int
	// Output is kubectl's stdout and stderr, unmodified.
	Output string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("kubectl get %s failed with exit code %d: %s",
		e.Kind, e.ExitCode, strings.TrimSpace(e.Output))
}

// Client runs kubectl.
type Client struct {
	Runner      helm.Runner
	Binary      string
	KubeContext string
	Logger      *slog.Logger
}

// Get lists objects of kind. An empty namespace queries all namespaces.
func (c *Client) Get(ctx context.Context, kind, namespace string) (*unstructured.UnstructuredList, error) {
	if kind == "" {
		return nil, fmt.Errorf("kind is required")
	}

	args := []string{"get", kind, "--output", "json"}
	if namespace == "" {
		args = append(args, "--all-namespaces")
	} else {
		args = append(args, "--namespace", namespace)
	}

	if c.KubeContext != "" {
		args = append(args, "--context", c.KubeContext)
	}

	c.logger().Debug("running kubectl", slog.String("args", strings.Join(args, " ")))

	res, err := c.runner().Run(ctx, c.binary(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", kind, err)
	}

	if !res.Success() {
		return nil, &QueryError{Kind: kind, Namespace: namespace, ExitCode: res.ExitCode, Output: res.Output()}
	}

	list := &unstructured.UnstructuredList{}
	if err := list.UnmarshalJSON(toJSON(res.Stdout)); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", kind, err)
	}

	return list, nil
}

// GetAll queries every kind concurrently and merges the results into one
// list, items grouped by kind in the order given. The first failure cancels
// the remaining queries.
func (c *Client) GetAll(ctx context.Context, kinds []string, namespace string) (*unstructured.UnstructuredList, error) {
	lists := make([]*unstructured.UnstructuredList, len(kinds))

	g, ctx := errgroup.WithContext(ctx)

	for i, kind := range kinds {
		g.Go(func() error {
			list, err := c.Get(ctx, kind, namespace)
			if err != nil {
				return err
			}

			lists[i] = list

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &unstructured.UnstructuredList{Object: map[string]any{"apiVersion": "v1", "kind": "List"}}
	for _, l := range lists {
		merged.Items = append(merged.Items, l.Items...)
	}

	return merged, nil
}

// Names lists objects of kind and returns their names in server order.
func (c *Client) Names(ctx context.Context, kind, namespace string) ([]string, error) {
	list, err := c.Get(ctx, kind, namespace)
	if err != nil {
		return nil, err
	}

	return Names(list), nil
}

// QualifiedNames returns kind/name for every item in list, as
// "kubectl get -o name" prints them.
func QualifiedNames(list *unstructured.UnstructuredList) []string {
	if list == nil {
		return nil
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		names = append(names, strings.ToLower(item.GetKind())+"/"+item.GetName())
	}

	return names
}

// Names returns the metadata.name of every item in list.
func Names(list *unstructured.UnstructuredList) []string {
	if list == nil {
		return nil
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		names = append(names, item.GetName())
	}

	return names
}

// toJSON normalizes kubectl output, which is JSON in practice but may be
// YAML when a plugin rewrites it.
func toJSON(b []byte) []byte {
	out, err := sigsyaml.YAMLToJSON(b)
	if err != nil {
		return b
	}

	return out
}

func (c *Client) runner() helm.Runner {
	if c.Runner == nil {
		return helm.ExecRunner{}
	}

	return c.Runner
}

func (c *Client) binary() string {
	if c.Binary == "" {
		return DefaultBinary
	}

	return c.Binary
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}

	return c.Logger
}
