package markup

import (
	"sync"
	"testing"
)

func TestCacheParse(t *testing.T) {
	c := NewCache(16)

	els, err := c.Parse(`[color=#ff0000]hi[/color]`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(els) != 1 || els[0].Block == nil || els[0].Block.Tag != "color" {
		t.Fatalf("unexpected parse result: %+v", els)
	}

	// Second parse of the same source must be a cache hit.
	els2, err := c.Parse(`[color=#ff0000]hi[/color]`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if &els[0] != &els2[0] {
		t.Error("expected cached slice to be returned on hit")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit / 1 miss, got %d / %d", stats.Hits, stats.Misses)
	}
}

func TestCacheParseError(t *testing.T) {
	c := NewCache(16)

	for i := 0; i < 2; i++ {
		_, err := c.Parse(`[a]unclosed`)
		if err == nil {
			t.Fatal("expected parse error")
		}
	}

	// The failure is memoized, not recomputed.
	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache(16)

	if _, err := c.Parse("plain text"); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c.Clear()
	if _, err := c.Parse("plain text"); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	stats := c.Stats()
	if stats.Misses != 2 {
		t.Errorf("expected 2 misses after Clear, got %d", stats.Misses)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(16)
	inputs := []string{
		"plain",
		`[b]bold[/b]`,
		`[size=24]big[/size]`,
		`[a][b]nested[/b][/a]`,
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				in := inputs[i%len(inputs)]
				if _, err := c.Parse(in); err != nil {
					t.Errorf("Parse(%q) failed: %v", in, err)
				}
			}
		}()
	}
	wg.Wait()

	if stats := c.Stats(); stats.Misses != uint64(len(inputs)) {
		t.Errorf("expected %d misses, got %d", len(inputs), stats.Misses)
	}
}

func BenchmarkCacheParseHit(b *testing.B) {
	c := NewCache(16)
	const src = `[color=#336699]cached [b]markup[/b][/color]`
	if _, err := c.Parse(src); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		if _, err := c.Parse(src); err != nil {
			b.Fatal(err)
		}
	}
}
