package prayertime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

// Cache memoizes normalized upstream results for the life of the process.
// There is no expiry; Clear is the only way to drop entries.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]model.PrayerTimeEntry
}

type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]model.PrayerTimeEntry)}
}

func DayKey(district, date string) string {
	return district + "-" + date
}

func HijriKey(district string, year, month int) string {
	return fmt.Sprintf("%s-hijri-%d-%d", district, year, month)
}

func (c *Cache) Get(key string) ([]model.PrayerTimeEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]model.PrayerTimeEntry, len(v))
	copy(out, v)
	return out, true
}

func (c *Cache) Set(key string, entries []model.PrayerTimeEntry) {
	v := make([]model.PrayerTimeEntry, len(entries))
	copy(v, entries)
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string][]model.PrayerTimeEntry)
	c.mu.Unlock()
}

func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return CacheStats{Size: len(keys), Keys: keys}
}
