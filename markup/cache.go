package markup

import "github.com/fossabot/huozi/cache"

// parseResult carries both outcomes of a Parse call so failures are
// cached too; reparsing malformed input on every frame is as wasteful
// as reparsing valid input.
type parseResult struct {
	elements []Element
	err      error
}

// Cache memoizes Parse results keyed by source text. It is safe for
// concurrent use.
//
// Callers must treat returned elements as immutable: the same slice is
// handed to every caller that asks for the same source.
type Cache struct {
	results *cache.Sharded[string, parseResult]
}

// NewCache creates a parse cache holding up to capacity entries per
// shard. If capacity <= 0, cache.DefaultCapacity is used.
func NewCache(capacity int) *Cache {
	return &Cache{
		results: cache.New[string, parseResult](capacity, cache.StringHasher),
	}
}

// Parse returns the parsed form of input, computing it on first use.
func (c *Cache) Parse(input string) ([]Element, error) {
	r := c.results.GetOrCreate(input, func() parseResult {
		elements, err := Parse(input)
		return parseResult{elements: elements, err: err}
	})
	return r.elements, r.err
}

// Stats returns hit/miss counters for the underlying cache.
func (c *Cache) Stats() cache.Stats {
	return c.results.Stats()
}

// Clear drops all memoized results.
func (c *Cache) Clear() {
	c.results.Clear()
}
