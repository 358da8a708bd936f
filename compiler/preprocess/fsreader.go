package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
)

// NewOSFileReader builds a FileReader backed by the local filesystem,
// falling back to resourceRoots (e.g. a bundled standard-library
// directory) when a relative include cannot be found next to the
// including file.
func NewOSFileReader(resourceRoots ...string) *OSFileReader {
	return &OSFileReader{ResourceRoots: resourceRoots, readFile: os.ReadFile}
}

// ReadFile implements FileReader.
func (r *OSFileReader) ReadFile(path string) (string, error) {
	data, err := r.readFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Resolve implements FileReader: relative to includingFile's directory
// first, then each resource root in order.
func (r *OSFileReader) Resolve(includingFile, includePath string) (string, error) {
	if filepath.IsAbs(includePath) {
		if _, err := r.readFile(includePath); err == nil {
			return filepath.Abs(includePath)
		}
	}

	if includingFile != "" {
		candidate := filepath.Join(filepath.Dir(includingFile), includePath)
		if _, err := r.readFile(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	} else {
		if _, err := r.readFile(includePath); err == nil {
			return filepath.Abs(includePath)
		}
	}

	for _, root := range r.ResourceRoots {
		candidate := filepath.Join(root, includePath)
		if _, err := r.readFile(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}

	return "", fmt.Errorf("include %q not found next to %q or in resource roots", includePath, includingFile)
}
