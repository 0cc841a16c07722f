package geocache

import "sync"

// LRU is a bounded, thread-safe least-recently-used cache implementing
// Store. Eviction keeps the cache from growing without limit.
type LRU struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*lruEntry
	head       *lruEntry // most recently used
	tail       *lruEntry // least recently used
}

type lruEntry struct {
	key   string
	value Entry
	prev  *lruEntry
	next  *lruEntry
}

// NewLRU creates an LRU cache holding at most maxEntries entries.
func NewLRU(maxEntries int) *LRU {
	return &LRU{
		maxEntries: maxEntries,
		entries:    make(map[string]*lruEntry),
	}
}

func (c *LRU) Get(key string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	c.moveToFront(e)
	return e.value, true, nil
}

func (c *LRU) Set(key string, value Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return nil
	}

	e := &lruEntry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return nil
}

// Len returns the current number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU) moveToFront(e *lruEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *LRU) addToFront(e *lruEntry) {
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

func (c *LRU) remove(e *lruEntry) {
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

func (c *LRU) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
