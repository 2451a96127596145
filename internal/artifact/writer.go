// Package artifact renders the installer and mirror configuration files.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/google/renameio"
)

// Writer renders values to YAML files inside one directory.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteYAML marshals v through its JSON tags and atomically replaces name.
func (w *Writer) WriteYAML(name string, v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return w.Write(name, data)
}

func (w *Writer) Write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", w.Dir, err)
	}
	path := filepath.Join(w.Dir, name)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
