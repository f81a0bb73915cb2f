package proxy

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/backcheck/backcheck/internal/config"
)

// PoolFileName is the proxy pool file under the XDG data directory.
const PoolFileName = "proxies.json"

// Pool is a mutex-guarded list of working proxy strings. Workers pick
// random proxies from it and remove endpoints that stop responding.
type Pool struct {
	mu      sync.Mutex
	proxies []string
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Add appends proxies to the pool, skipping duplicates.
func (p *Pool) Add(proxies ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, proxy := range proxies {
		if proxy == "" || slices.Contains(p.proxies, proxy) {
			continue
		}
		p.proxies = append(p.proxies, proxy)
	}
}

// Remove deletes a proxy from the pool. Removing an absent proxy is a
// no-op, so concurrent removals of the same failed endpoint are safe.
func (p *Pool) Remove(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := slices.Index(p.proxies, proxy); i >= 0 {
		p.proxies = slices.Delete(p.proxies, i, i+1)
	}
}

// Replace swaps the whole pool content, used after a health check.
func (p *Pool) Replace(proxies []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.proxies = slices.Clone(proxies)
}

// Len returns the number of proxies in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// Snapshot returns a copy of the pool content in insertion order.
func (p *Pool) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.proxies)
}

// Pick returns up to n distinct proxies chosen at random without
// replacement. It satisfies the fetcher's Picker interface.
func (p *Pool) Pick(n int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > len(p.proxies) {
		n = len(p.proxies)
	}
	if n <= 0 {
		return nil
	}

	shuffled := slices.Clone(p.proxies)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

// poolFile is the on-disk format of the persisted pool.
type poolFile struct {
	Proxies   []string  `json:"proxies"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultPoolPath returns the pool file location under the XDG data
// directory.
func DefaultPoolPath() string {
	return filepath.Join(config.XDGDataDir(), PoolFileName)
}

// Save writes the pool to path atomically (temp file plus rename), so
// a crash mid-write never corrupts the saved pool.
func (p *Pool) Save(path string) error {
	data, err := json.MarshalIndent(poolFile{Proxies: p.Snapshot(), Timestamp: time.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal proxy pool: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create pool directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write proxy pool: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename proxy pool: %w", err)
	}
	return nil
}

// Load replaces the pool content from the file at path. A missing
// file leaves the pool empty and returns no error, since a fresh
// install simply has no saved proxies yet.
func (p *Pool) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read proxy pool: %w", err)
	}

	var f poolFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse proxy pool: %w", err)
	}
	p.Replace(f.Proxies)
	return nil
}
