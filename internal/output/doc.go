// Package output provides destinations for rendered documents: a stream
// writer for stdout, a single-file writer, and a tree writer that lays out a
// chart directory.
package output
