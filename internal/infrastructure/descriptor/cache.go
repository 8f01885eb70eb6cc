package descriptor

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// cacheEntry is one JSON line of the cache file.  A nil Values with
// Failed set records a known-bad structure so reruns skip it.
type cacheEntry struct {
	SMILES string             `json:"smiles"`
	Failed bool               `json:"failed,omitempty"`
	Values map[string]float64 `json:"values,omitempty"`
}

// Cache stores external descriptor results keyed by canonical SMILES,
// persisted as JSON lines.  Failed computations are remembered with a
// null marker.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]cacheEntry
	dirty   bool
}

// LoadCache reads the cache file at path, tolerating a missing file.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]cacheEntry{}}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "open descriptor cache").
			WithDetail("path=" + path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e cacheEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "corrupt descriptor cache line").
				WithDetail("path=" + path)
		}
		c.entries[e.SMILES] = e
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "read descriptor cache")
	}
	return c, nil
}

// Get returns the cached values for a SMILES.  failed reports a recorded
// null marker; ok reports whether any entry exists.
func (c *Cache) Get(smiles string) (values map[string]float64, failed, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[smiles]
	if !ok {
		return nil, false, false
	}
	return e.Values, e.Failed, true
}

// PutSuccess records computed values for a SMILES.
func (c *Cache) PutSuccess(smiles string, values map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[smiles] = cacheEntry{SMILES: smiles, Values: values}
	c.dirty = true
}

// PutFailure records a null marker for a SMILES whose computation failed.
func (c *Cache) PutFailure(smiles string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[smiles] = cacheEntry{SMILES: smiles, Failed: true}
	c.dirty = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache back to its file when anything changed.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	f, err := os.Create(c.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "create descriptor cache").
			WithDetail("path=" + c.path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range c.entries {
		if err := enc.Encode(e); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode descriptor cache entry")
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "flush descriptor cache")
	}
	c.dirty = false
	return nil
}
