package ranking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
)

// responseCache memoizes full ranking responses. It is a bounded map with
// an insertion-order queue: when full, the oldest entry is evicted
// regardless of access recency. Safe for concurrent use.
type responseCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]domain.RankingResponse
	order   []string
}

func newResponseCache(maxSize int) *responseCache {
	if maxSize <= 0 {
		maxSize = 500
	}
	return &responseCache{
		maxSize: maxSize,
		entries: make(map[string]domain.RankingResponse, maxSize),
	}
}

func (c *responseCache) get(key string) (domain.RankingResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[key]
	return resp, ok
}

func (c *responseCache) put(key string, resp domain.RankingResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.entries[key] = resp
		return
	}
	if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = resp
	c.order = append(c.order, key)
}

func (c *responseCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]domain.RankingResponse, c.maxSize)
	c.order = nil
	return n
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey hashes the normalized filter parameters of a request.
// Destinations and amenity ceilings are deliberately left out of the key:
// two requests differing only in those fields share a cache entry. Known
// limitation, kept for parity with long-standing behavior.
func cacheKey(req domain.RankingRequest) string {
	towns := append([]string(nil), req.Towns...)
	sort.Strings(towns)
	flatTypes := append([]string(nil), req.FlatTypes...)
	sort.Strings(flatTypes)

	parts := []string{
		fmt.Sprintf("%d", req.TargetYear),
		fmt.Sprintf("%.2f:%.2f", req.BudgetMin, req.BudgetMax),
		strings.Join(towns, ","),
		strings.Join(flatTypes, ","),
		fmt.Sprintf("%.2f:%.2f", req.FloorAreaMin, req.FloorAreaMax),
		fmt.Sprintf("%.2f:%.2f", req.LeaseMin, req.LeaseMax),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
