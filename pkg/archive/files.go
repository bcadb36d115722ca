package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const (
	// DefaultName is used when a text is saved without a name.
	DefaultName = "default"
	// textExt is the extension of every saved text file.
	textExt = ".txt"
)

// FileName turns a user supplied name into the name of a text file. An empty
// name becomes DefaultName, and a single trailing ".txt" is not doubled.
func FileName(name string) string {
	if name == "" {
		name = DefaultName
	}
	name = strings.TrimSuffix(name, textExt)
	return name + textExt
}

// WriteText atomically writes text to the file named by name inside dir,
// creating dir if needed, and returns the path written.
func WriteText(dir, name, text string) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("could not create output directory: %w", err)
		}
	}
	path := filepath.Join(dir, FileName(name))
	if err := atomic.WriteFile(path, strings.NewReader(text)); err != nil {
		return "", fmt.Errorf("could not write '%s': %w", path, err)
	}
	return path, nil
}
