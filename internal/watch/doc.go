// Package watch re-deploys a chart while it is being edited. It monitors
// a chart directory for changes, debounces bursts of events and runs a
// callback (typically lint followed by helm upgrade) once things settle.
package watch
