// avionix builds Helm charts from typed Kubernetes objects and drives the
// helm CLI through their release lifecycle.
package main

import (
	"os"

	"github.com/dmonroy/avionix/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
