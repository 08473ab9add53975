package sketch

import (
	"log/slog"
	"sync"

	"Inkwell/internal/models"
)

func cacheLogger() *slog.Logger { return slog.With("component", "sketch") }

// Entry keeps the exact payload a shape arrived as. Erase matches on Raw.
type Entry struct {
	Raw   string
	Shape Shape
}

// Cache is the local working set of shapes for one room, oldest first.
type Cache struct {
	mu      sync.Mutex
	entries []Entry
	redraw  func([]Entry)
}

// NewCache creates an empty cache. redraw, if set, is called with a
// snapshot after every change.
func NewCache(redraw func([]Entry)) *Cache {
	return &Cache{redraw: redraw}
}

// Load replaces the cache with stored history given newest first, the
// order the history endpoint returns.
func (c *Cache) Load(newestFirst []string) {
	entries := make([]Entry, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		shape, err := Parse(newestFirst[i])
		if err != nil {
			cacheLogger().Debug("skipping stored payload", "error", err)
			continue
		}
		entries = append(entries, Entry{Raw: newestFirst[i], Shape: shape})
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	c.changed()
}

// Apply handles one server frame and reports whether the cache changed.
func (c *Cache) Apply(msg models.Outbound) bool {
	switch msg.Type {
	case models.MessageTypeChat:
		return c.ApplyChat(msg.Message)
	case models.MessageTypeErase:
		return c.ApplyErase(msg.Shape) > 0
	}
	return false
}

// ApplyChat appends a shape. Payloads that do not parse are dropped.
func (c *Cache) ApplyChat(raw string) bool {
	shape, err := Parse(raw)
	if err != nil {
		cacheLogger().Warn("invalid shape received", "error", err)
		return false
	}

	c.mu.Lock()
	c.entries = append(c.entries, Entry{Raw: raw, Shape: shape})
	c.mu.Unlock()
	c.changed()
	return true
}

// ApplyErase removes every entry whose payload equals raw exactly and
// returns how many were removed.
func (c *Cache) ApplyErase(raw string) int {
	c.mu.Lock()
	kept := c.entries[:0]
	removed := 0
	for _, e := range c.entries {
		if e.Raw == raw {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.entries = kept
	c.mu.Unlock()

	if removed > 0 {
		c.changed()
	}
	return removed
}

// FindAt returns the newest shape whose outline passes within tol of (x, y).
func (c *Cache) FindAt(x, y, tol float64) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.entries) - 1; i >= 0; i-- {
		if c.entries[i].Shape.Hit(x, y, tol) {
			return c.entries[i], true
		}
	}
	return Entry{}, false
}

// Shapes returns a snapshot, oldest first.
func (c *Cache) Shapes() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

func (c *Cache) changed() {
	if c.redraw != nil {
		c.redraw(c.Shapes())
	}
}
