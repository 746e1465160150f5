package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/dmonroy/avionix/internal/cluster"
	"github.com/dmonroy/avionix/internal/config"
)

type getOptions struct {
	allNamespaces bool
	output        string
}

func newGetCommand() *cobra.Command {
	opts := &getOptions{}

	cmd := &cobra.Command{
		Use:   "get <kind>...",
		Short: "List cluster objects of one or more kinds",
		Long: `Get queries the cluster through kubectl for every object of each <kind>
in the configured namespace, or in all namespaces with --all-namespaces.
Several kinds are queried concurrently. It is meant for checking what a
release created, e.g.

  avionix get configmaps -n demo
  avionix get runtimeclasses apiservices -o yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			switch opts.output {
			case "name", "json", "yaml":
			default:
				return &ExitError{Code: exitUsage, Err: fmt.Errorf("unknown output %q (supported: name, json, yaml)", opts.output)}
			}

			namespace := config.FromContext(ctx).Namespace
			if opts.allNamespaces {
				namespace = ""
			}

			client := newClusterClient(ctx)

			var (
				list *unstructured.UnstructuredList
				err  error
			)

			if len(args) == 1 {
				list, err = client.Get(ctx, args[0], namespace)
			} else {
				list, err = client.GetAll(ctx, args, namespace)
			}

			if err != nil {
				return classify(err)
			}

			w := cmd.OutOrStdout()

			if opts.output == "name" {
				names := cluster.Names(list)
				if len(args) > 1 {
					names = cluster.QualifiedNames(list)
				}

				for _, n := range names {
					_, _ = fmt.Fprintln(w, n)
				}

				return nil
			}

			data, err := encodeList(list.MarshalJSON, opts.output)
			if err != nil {
				return &ExitError{Code: exitRuntime, Err: fmt.Errorf("encoding %s: %w", strings.Join(args, ","), err)}
			}

			_, err = fmt.Fprintln(w, string(data))

			return err
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.allNamespaces, "all-namespaces", "A", false, "list objects in every namespace")
	f.StringVarP(&opts.output, "output", "o", "name", "output format: name, json, yaml")

	return cmd
}

// encodeList renders a kubectl list as indented JSON or as YAML.
func encodeList(marshal func() ([]byte, error), format string) ([]byte, error) {
	raw, err := marshal()
	if err != nil {
		return nil, err
	}

	if format == "yaml" {
		return sigsyaml.JSONToYAML(raw)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
