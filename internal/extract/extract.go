// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"fmt"
	"path"
	"strings"
)

// Func extracts plain text from one file format.
type Func func(data []byte) (string, error)

// Registry maps file extensions to extractors. Unknown extensions are
// treated as plain text.
type Registry struct {
	byExt map[string]Func
}

// NewRegistry builds the default registry with PDF and plain text support.
func NewRegistry() *Registry {
	return &Registry{byExt: map[string]Func{
		".pdf": extractPDF,
		".txt": extractPlain,
		".md":  extractPlain,
	}}
}

// Register adds or replaces the extractor for an extension (".csv" form).
func (r *Registry) Register(ext string, fn Func) {
	r.byExt[strings.ToLower(ext)] = fn
}

// Extract converts the file contents to plain text based on the filename's
// extension.
func (r *Registry) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	fn, ok := r.byExt[ext]
	if !ok {
		fn = extractPlain
	}

	text, err := fn(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", ext, err)
	}
	return text, nil
}

func extractPlain(data []byte) (string, error) {
	return string(data), nil
}
