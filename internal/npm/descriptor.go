// Package npm drives the package-manager side of a release: the on-disk
// package descriptor and the npm/yarn invocations for install, tests,
// version bump, publish and two-factor enforcement.
package npm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DescriptorFile is the package descriptor filename in the project root.
const DescriptorFile = "package.json"

// PackageDescriptor is the subset of the descriptor a release run needs.
type PackageDescriptor struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Private bool              `json:"private"`
	Scripts map[string]string `json:"scripts,omitempty"`
}

// ReadDescriptor reads the descriptor fresh from disk. Callers that need
// current on-disk truth (rollback in particular) must call this again rather
// than reuse an earlier value: the version-bump stage mutates the file.
func ReadDescriptor(dir string) (*PackageDescriptor, error) {
	path := filepath.Join(dir, DescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var desc PackageDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("%s has no name", path)
	}
	if desc.Version == "" {
		return nil, fmt.Errorf("%s has no version", path)
	}
	return &desc, nil
}
