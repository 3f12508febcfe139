package version

import (
	"path/filepath"
	"time"

	"github.com/hifiberry/audiocontrol3/filesystem"
	"github.com/hifiberry/audiocontrol3/where"
)

// cacheTTL bounds how long cached lookup artifacts stay on disk.
const cacheTTL = 7 * 24 * time.Hour

// CollectGarbage prunes expired files from the cache directory. Run it in the
// background at startup.
func CollectGarbage() {
	fs := filesystem.API()
	dir := where.Cache()

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if time.Since(entry.ModTime()) > cacheTTL {
			_ = fs.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
