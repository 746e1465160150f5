// Package helm drives the helm CLI through the lifecycle of a named,
// namespaced release: install, upgrade, rollback and uninstall.
//
// Every operation blocks until the helm process exits. Success is a zero
// exit status; anything else becomes a typed error carrying helm's output
// verbatim. Nothing is retried and no release state is cached between
// calls: the cluster is the source of truth, queried with Status.
//
// The orchestrator provides no locking. Callers that may race on the same
// release name must serialize their own calls.
package helm
