package pipeline

import (
	"sync"

	"github.com/couchcryptid/walls-survey-etl/internal/walls"
)

// snapshotCache interns unit snapshots by Units.Key so that files declaring
// the same settings share one *walls.Units. Least recently used entries are
// evicted once maxEntries is exceeded.
type snapshotCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *walls.Units
	prev  *entry
	next  *entry
}

func newSnapshotCache(maxEntries int) *snapshotCache {
	return &snapshotCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// intern returns the cached snapshot equal to u, or stores u. hit reports
// whether an existing snapshot was returned.
func (c *snapshotCache) intern(u *walls.Units) (shared *walls.Units, hit bool) {
	key := u.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.moveToFront(e)
		return e.value, true
	}

	e := &entry{key: key, value: u}
	c.entries[key] = e
	c.addToFront(e)
	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return u, false
}

func (c *snapshotCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *snapshotCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *snapshotCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *snapshotCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *snapshotCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
