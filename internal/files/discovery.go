package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Session file extensions accepted by the ingester.
var SessionExtensions = []string{".csv", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Stem is the file name without its extension.
func (f FileInfo) Stem() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

// Ext is the lower-cased extension including the dot.
func (f FileInfo) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// Resolve joins relative dirs onto the base path.
func (d *Discovery) Resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindSessionFiles finds CSV and XLSX session files, sorted by name.
func (d *Discovery) FindSessionFiles(dir string) ([]FileInfo, error) {
	return d.FindByExtension(dir, SessionExtensions...)
}

// FindByExtension lists regular files whose extension matches one of exts
// case-insensitively, sorted by name.
func (d *Discovery) FindByExtension(dir string, exts ...string) ([]FileInfo, error) {
	fullPath := d.Resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !HasExtension(entry.Name(), exts...) {
			continue
		}
		// lock files left by spreadsheet editors
		if strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// HasExtension reports whether name ends in one of exts, ignoring case.
func HasExtension(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// HorizonModelName is the artifact file name for a horizon key.
func HorizonModelName(key string) string {
	return "C2_" + key + "_F1.json"
}

// FindHorizonModels maps each key to its artifact path. Keys without an
// artifact file are omitted.
func (d *Discovery) FindHorizonModels(dir string, keys []string) map[string]string {
	found := make(map[string]string, len(keys))
	for _, key := range keys {
		path := filepath.Join(d.Resolve(dir), HorizonModelName(key))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found[key] = path
		}
	}
	return found
}
