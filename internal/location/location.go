// Package location resolves tool supplied file paths to storage locations.
package location

import (
	"path/filepath"
	"strings"

	"github.com/viant/afs/url"
)

// Resolve joins a relative loc to baseURL. Without a base URL a relative loc
// becomes an absolute local path, so every service names a file the same way.
func Resolve(baseURL, loc string) string {
	if strings.Contains(loc, "://") {
		return loc
	}
	if url.IsRelative(loc) {
		if baseURL != "" {
			return url.Join(baseURL, loc)
		}
		if abs, err := filepath.Abs(loc); err == nil {
			return abs
		}
	}
	return filepath.Clean(loc)
}
