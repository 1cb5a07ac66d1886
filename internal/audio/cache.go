package audio

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

// audioCache stores synthesized speech keyed by text and voice settings
type audioCache struct {
	dir string
}

// DefaultCacheDir returns the cache location below the user cache directory
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "kikitori", "audio")
	}
	return filepath.Join(os.TempDir(), "kikitori-audio")
}

func newAudioCache(dir string) (*audioCache, error) {
	c := cacheAt(dir)
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, err
	}
	return c, nil
}

// cacheAt returns the cache rooted at dir without creating it
func cacheAt(dir string) *audioCache {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	return &audioCache{dir: dir}
}

// CacheStats reports the number and total size of the cached audio files
// below dir, the default cache when dir is empty. A missing cache is empty.
func CacheStats(dir string) (files int, size int64, err error) {
	return cacheAt(dir).Stats()
}

// ClearCache removes the audio cache below dir
func ClearCache(dir string) error {
	return cacheAt(dir).Clear()
}

// path returns the cache file for the given key parts
func (c *audioCache) path(ext string, parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	hash := hex.EncodeToString(h.Sum(nil))

	// Use first 2 chars as subdirectory for better file system performance
	return filepath.Join(c.dir, hash[:2], hash[2:]+ext)
}

// has reports whether a non-empty cache file exists
func (c *audioCache) has(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// write stores data from r at path via a temporary file, so readers never
// see a partially written file
func (c *audioCache) write(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return written, os.Rename(tmp.Name(), path)
}

// Stats returns cache statistics
func (c *audioCache) Stats() (fileCount int, totalSize int64, err error) {
	err = filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})
	return fileCount, totalSize, err
}

// Clear removes all cached audio files
func (c *audioCache) Clear() error {
	return os.RemoveAll(c.dir)
}
