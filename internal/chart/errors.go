package chart

import "fmt"

// ConfigurationError reports structurally invalid chart input. It is
// raised before any file is written and is never retried.
type ConfigurationError struct {
	// Subject names the offending part of the descriptor, e.g.
	// "metadata.version" or "objects[2]".
	Subject string
	Reason  string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid chart configuration: %s: %s", e.Subject, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(subject, reason string, err error) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Reason: reason, Err: err}
}
