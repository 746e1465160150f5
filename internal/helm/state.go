package helm

import (
	"helm.sh/helm/v3/pkg/release"
)

// State is where a release sits in its lifecycle.
type State int

const (
	// StateAbsent means no release of that name exists in the namespace.
	StateAbsent State = iota
	// StateInstalling is held while helm install runs.
	StateInstalling
	// StateInstalled means the last operation on the release succeeded.
	StateInstalled
	// StateUpgrading is held while helm upgrade or rollback runs.
	StateUpgrading
	// StateUninstalling is held while helm uninstall runs.
	StateUninstalling
	// StateFailed means helm recorded the last operation as failed.
	StateFailed
	// StateUnknown is used when helm reports a status this package does
	// not map, or when an interrupted operation left the outcome unknown.
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "ABSENT"
	case StateInstalling:
		return "INSTALLING"
	case StateInstalled:
		return "INSTALLED"
	case StateUpgrading:
		return "UPGRADING"
	case StateUninstalling:
		return "UNINSTALLING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// stateOf maps helm's release status onto the lifecycle.
func stateOf(s release.Status) State {
	switch s {
	case release.StatusDeployed:
		return StateInstalled
	case release.StatusPendingInstall:
		return StateInstalling
	case release.StatusPendingUpgrade, release.StatusPendingRollback:
		return StateUpgrading
	case release.StatusUninstalling:
		return StateUninstalling
	case release.StatusUninstalled:
		return StateAbsent
	case release.StatusFailed:
		return StateFailed
	default:
		return StateUnknown
	}
}
