package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TargetsDir is the directory under the ANGLE root holding one subdirectory
// per target.
const TargetsDir = "targets"

// DiscoverTargets lists the target names under <root>/targets in directory
// order, which os.ReadDir guarantees to be sorted by name.
func DiscoverTargets(root string) ([]string, error) {
	dir := filepath.Join(root, TargetsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
