package cli

import (
	"github.com/spf13/pflag"
)

// releaseOptions holds the flags shared by commands acting on a release.
type releaseOptions struct {
	release         string
	createNamespace bool
	skipDeps        bool
}

// registerReleaseFlag adds --release to a command operating on a chart
// directory, where the release name defaults to the chart name.
func registerReleaseFlag(fs *pflag.FlagSet, opts *releaseOptions) {
	fs.StringVarP(&opts.release, "release", "r", "", "release name (default: chart name)")
}

// registerInstallFlags adds the flags of commands that create a release.
func registerInstallFlags(fs *pflag.FlagSet, opts *releaseOptions) {
	registerReleaseFlag(fs, opts)

	fs.BoolVar(&opts.createNamespace, "create-namespace", false, "create the release namespace if it does not exist")
	fs.BoolVar(&opts.skipDeps, "skip-dependencies", false, "do not add repositories or fetch chart dependencies")
}
