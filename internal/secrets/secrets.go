// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Recognized key files: serper-api-key, firecrawl-api-key, context7-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key file names for the upstream providers.
const (
	SerperKey    = "serper-api-key"
	FirecrawlKey = "firecrawl-api-key"
	Context7Key  = "context7-api-key"
)

// Store maps key file names to their trimmed contents.
type Store map[string]string

// Load reads all files in dir and returns a Store of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty
// Store. Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			s[name] = value
		}
	}

	return s, nil
}

// Or returns configured when it is non-empty, otherwise the stored value for
// key. Explicit configuration always wins over the secrets directory.
func (s Store) Or(key, configured string) string {
	if configured != "" {
		return configured
	}
	return s[key]
}

// Names returns the sorted key names without their values, for logging.
func (s Store) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
