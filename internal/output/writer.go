package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Writer is the interface for rendered output destinations.
type Writer interface {
	// Write sends serialized bytes to the output destination.
	Write(data []byte) error
}

// StdoutWriter writes rendered documents to a stream, os.Stdout by default.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a writer that sends output to w.
// If w is nil, os.Stdout is used.
func NewStdoutWriter(w io.Writer) *StdoutWriter {
	if w == nil {
		w = os.Stdout
	}

	return &StdoutWriter{out: w}
}

// Write sends data to the stream.
func (sw *StdoutWriter) Write(data []byte) error {
	if _, err := sw.out.Write(data); err != nil {
		return fmt.Errorf("writing to stdout: %w", err)
	}

	return nil
}

// FileWriter writes one file, creating parent directories as needed.
type FileWriter struct {
	path   string
	perm   os.FileMode
	logger *slog.Logger
}

// FileWriterOption configures a FileWriter or TreeWriter.
type FileWriterOption func(*fileOptions)

type fileOptions struct {
	perm   os.FileMode
	logger *slog.Logger
}

func defaultFileOptions(opts []FileWriterOption) fileOptions {
	o := fileOptions{perm: 0o644, logger: slog.Default()}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithPermissions overrides the default file permissions (0644).
func WithPermissions(perm os.FileMode) FileWriterOption {
	return func(o *fileOptions) {
		o.perm = perm
	}
}

// WithLogger sets the logger used to report written and replaced files.
func WithLogger(logger *slog.Logger) FileWriterOption {
	return func(o *fileOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewFileWriter creates a writer that writes to path.
func NewFileWriter(path string, opts ...FileWriterOption) *FileWriter {
	o := defaultFileOptions(opts)

	return &FileWriter{path: path, perm: o.perm, logger: o.logger}
}

// Write creates parent directories and writes data to the file.
func (fw *FileWriter) Write(data []byte) error {
	dir := filepath.Dir(fw.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if _, err := os.Stat(fw.path); err == nil {
		fw.logger.Debug("overwriting existing file", slog.String("path", fw.path))
	}

	if err := os.WriteFile(fw.path, data, fw.perm); err != nil {
		return fmt.Errorf("writing file %s: %w", fw.path, err)
	}

	fw.logger.Debug("file written",
		slog.String("path", fw.path),
		slog.Int("bytes", len(data)),
	)

	return nil
}

// Path returns the output file path.
func (fw *FileWriter) Path() string {
	return fw.path
}

// File is one file of a tree, addressed relative to the tree root.
type File struct {
	Path string
	Data []byte
}

// TreeWriter writes a set of files beneath a root directory.
type TreeWriter struct {
	root string
	opts []FileWriterOption
}

// NewTreeWriter creates a writer rooted at root.
func NewTreeWriter(root string, opts ...FileWriterOption) *TreeWriter {
	return &TreeWriter{root: root, opts: opts}
}

// Root returns the tree root.
func (tw *TreeWriter) Root() string {
	return tw.root
}

// Replace removes the named subdirectories of the root, so that files from
// an earlier write that are no longer part of the tree do not survive.
func (tw *TreeWriter) Replace(subdirs ...string) error {
	for _, d := range subdirs {
		p := filepath.Join(tw.root, d)
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}

	return nil
}

// WriteFiles writes every file in order.
func (tw *TreeWriter) WriteFiles(files []File) error {
	for _, f := range files {
		if err := NewFileWriter(filepath.Join(tw.root, f.Path), tw.opts...).Write(f.Data); err != nil {
			return err
		}
	}

	return nil
}
