package catalog

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mozillazg/go-unidecode"
	"github.com/spf13/afero"
)

type fileCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
	now func() time.Time
}

func newFileCache(fs afero.Fs, dir string, ttl time.Duration) *fileCache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &fileCache{fs: fs, dir: dir, ttl: ttl, now: time.Now}
}

// jitteredTTL staggers expiry between ttl and ttl*1.25, derived from the key
// hash so the same key always gets the same TTL.
func (c *fileCache) jitteredTTL(key string) time.Duration {
	spread := c.ttl / 4
	if spread <= 0 {
		return c.ttl
	}
	h := sha256.Sum256([]byte(key))
	n := binary.BigEndian.Uint64(h[:8])
	return c.ttl + time.Duration(n%uint64(spread))
}

func (c *fileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *fileCache) get(key string, v any) (bool, error) {
	if key == "" {
		return false, errors.New("empty key")
	}
	if c.ttl <= 0 {
		return false, nil
	}
	path := c.path(key)
	fi, err := c.fs.Stat(path)
	if err != nil {
		return false, nil
	}
	if c.now().Sub(fi.ModTime()) > c.jitteredTTL(key) {
		_ = c.fs.Remove(path)
		return false, nil
	}
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *fileCache) set(key string, v any) error {
	if key == "" {
		return errors.New("empty key")
	}
	if c.ttl <= 0 {
		return nil
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	// One temp file per writer; concurrent sets of a key must not share it.
	tmp, err := afero.TempFile(c.fs, c.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr, c.fs.Chmod(tmpName, 0o644)); err != nil {
		_ = c.fs.Remove(tmpName)
		return err
	}
	if err := c.fs.Rename(tmpName, c.path(key)); err != nil {
		_ = c.fs.Remove(tmpName)
		return err
	}
	return nil
}

// prune removes cache files whose TTL has elapsed and returns how many were
// deleted. Files that are not cache entries are left alone.
func (c *fileCache) prune() (int, error) {
	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	now := c.now()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		if now.Sub(entry.ModTime()) <= c.jitteredTTL(key) {
			continue
		}
		if err := c.fs.Remove(filepath.Join(c.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// itemCacheKey names the cache file of a detail lookup. Type is part of the
// key because a TMDb show may be served as tv or anime.
func itemCacheKey(t, key string) string {
	return "item_" + t + "_" + sanitizeKey(key)
}

// searchCacheKey hashes the search coordinates. The query is folded to ASCII
// lowercase so "Pokémon" and "pokemon " share an entry.
func searchCacheKey(provider, t string, page int, query string) string {
	folded := strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(query))), " ")
	h := sha256.Sum256([]byte(provider + "|" + t + "|" + folded + "|" + strconv.Itoa(page)))
	return "search_" + hex.EncodeToString(h[:12])
}

func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
