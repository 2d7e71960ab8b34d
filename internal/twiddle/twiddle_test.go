package twiddle

import (
	"errors"
	"sync"
	"testing"

	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
)

// ─── Domain ─────────────────────────────────────────────────────────────────

func TestNewDomain(t *testing.T) {
	t.Parallel()
	for _, f := range []*field.Field{field.Goldilocks(), field.BabyBear()} {
		for _, logN := range []int{0, 1, 3, 16} {
			d, err := NewDomain(f, logN)
			if err != nil {
				t.Fatalf("%s/%d: %v", f.Name(), logN, err)
			}
			if d.N != 1<<uint(logN) {
				t.Errorf("Expected N=%d, got %d", 1<<uint(logN), d.N)
			}
			if f.Mul(d.Omega, d.OmegaInv) != 1 {
				t.Errorf("%s/%d: ω·ω⁻¹ != 1", f.Name(), logN)
			}
			if f.Mul(d.NInv, f.Reduce(uint64(d.N))) != 1 {
				t.Errorf("%s/%d: n·n⁻¹ != 1", f.Name(), logN)
			}
			if f.Exp(d.Omega, uint64(d.N)) != 1 {
				t.Errorf("%s/%d: ω^n != 1", f.Name(), logN)
			}
			if d.N >= 2 && f.Exp(d.Omega, uint64(d.N/2)) == 1 {
				t.Errorf("%s/%d: ω^(n/2) == 1", f.Name(), logN)
			}
		}
	}
}

func TestNewDomainTooLarge(t *testing.T) {
	t.Parallel()
	_, err := NewDomain(field.BabyBear(), 28)
	if !errors.Is(err, apperrors.ErrInvalidDomainSize) {
		t.Errorf("Expected ErrInvalidDomainSize, got %v", err)
	}
}

// ─── Table ──────────────────────────────────────────────────────────────────

func TestGenerateMatchesExp(t *testing.T) {
	t.Parallel()
	f := field.Goldilocks()
	for _, logN := range []int{1, 5, 16} {
		for _, dir := range []Direction{Forward, Inverse} {
			tab, err := Generate(f, logN, dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(tab.Powers) != (1<<uint(logN))/2 {
				t.Fatalf("Expected %d powers, got %d", (1<<uint(logN))/2, len(tab.Powers))
			}
			for _, i := range []int{0, 1, len(tab.Powers) / 2, len(tab.Powers) - 1} {
				if i >= len(tab.Powers) {
					continue
				}
				if want := f.Exp(tab.Root, uint64(i)); tab.Powers[i] != want {
					t.Errorf("%s logN=%d: power %d = %d, want %d", dir, logN, i, tab.Powers[i], want)
				}
			}
		}
	}
}

func TestGenerateParallelPathIsContiguous(t *testing.T) {
	t.Parallel()
	f := field.BabyBear()
	tab, err := Generate(f, 17, Forward) // 65536 powers, chunked
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(tab.Powers); i++ {
		if tab.Powers[i] != f.Mul(tab.Powers[i-1], tab.Root) {
			t.Fatalf("Chain broken at index %d", i)
		}
	}
}

func TestInverseTableRootIsInverse(t *testing.T) {
	t.Parallel()
	f := field.BabyBear()
	fwd, _ := Generate(f, 10, Forward)
	inv, _ := Generate(f, 10, Inverse)
	if f.Mul(fwd.Root, inv.Root) != 1 {
		t.Error("Inverse table root is not ω⁻¹")
	}
	if fwd.NInv != inv.NInv {
		t.Error("Both directions must carry n⁻¹")
	}
}

func TestTableAt(t *testing.T) {
	t.Parallel()
	f := field.Goldilocks()
	tab, _ := Generate(f, 4, Forward) // n=16
	// Stage 0 only uses ω^0; the last stage uses consecutive powers.
	if tab.At(0, 0) != 1 {
		t.Errorf("Expected stage 0 twiddle 1, got %d", tab.At(0, 0))
	}
	if tab.At(3, 5) != tab.Powers[5] {
		t.Errorf("Expected last stage to read power 5")
	}
	if tab.At(1, 1) != tab.Powers[4] {
		t.Errorf("Expected stage 1 pairing 1 to read power 4")
	}
}

func TestGenerateEmptyDomain(t *testing.T) {
	t.Parallel()
	tab, err := Generate(field.Goldilocks(), 0, Inverse)
	if err != nil {
		t.Fatal(err)
	}
	if len(tab.Powers) != 0 || tab.NInv != 1 {
		t.Errorf("Expected empty table with n⁻¹=1, got %d powers, n⁻¹=%d", len(tab.Powers), tab.NInv)
	}
	if _, err := Generate(field.Goldilocks(), -1, Forward); !errors.Is(err, apperrors.ErrInvalidDomainSize) {
		t.Errorf("Expected ErrInvalidDomainSize, got %v", err)
	}
}

func TestDirectionString(t *testing.T) {
	t.Parallel()
	if Forward.String() != "forward" || Inverse.String() != "inverse" || Direction(9).String() != "Direction(9)" {
		t.Error("Unexpected direction names")
	}
}

// ─── Cache ──────────────────────────────────────────────────────────────────

func TestCacheHitsAndMisses(t *testing.T) {
	t.Parallel()
	c := NewCache(DefaultCacheConfig())
	f := field.Goldilocks()

	a, err := c.Get(f, 8, Forward)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Get(f, 8, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("Expected the same table on a hit")
	}
	inv, _ := c.Get(f, 8, Inverse)
	if inv == a {
		t.Error("Directions must not share a table")
	}
	bb, _ := c.Get(field.BabyBear(), 8, Forward)
	if bb == a {
		t.Error("Fields must not share a table")
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 3 || s.Size != 3 || s.Generations != 3 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if s.HitRate != 0.25 {
		t.Errorf("Expected hit rate 0.25, got %f", s.HitRate)
	}

	c.Clear()
	if s := c.Stats(); s.Size != 0 || s.Hits != 0 {
		t.Errorf("Expected empty cache after Clear, got %+v", s)
	}
}

func TestCacheSingleWinner(t *testing.T) {
	t.Parallel()
	c := NewCache(DefaultCacheConfig())
	f := field.BabyBear()

	const callers = 32
	tables := make([]*Table, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tab, err := c.Get(f, 18, Forward)
			if err != nil {
				t.Error(err)
				return
			}
			tables[i] = tab
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < callers; i++ {
		if tables[i] != tables[0] {
			t.Fatalf("Caller %d received a different table", i)
		}
	}
	if g := c.Stats().Generations; g != 1 {
		t.Errorf("Expected exactly one generation, got %d", g)
	}
}

func TestCacheEviction(t *testing.T) {
	t.Parallel()
	c := NewCache(CacheConfig{MaxEntries: 2})
	f := field.Goldilocks()
	first, _ := c.Get(f, 2, Forward)
	_, _ = c.Get(f, 3, Forward)
	_, _ = c.Get(f, 2, Forward) // refresh 2
	_, _ = c.Get(f, 4, Forward) // evicts 3

	s := c.Stats()
	if s.Size != 2 || s.Evictions != 1 {
		t.Fatalf("Expected 2 entries and 1 eviction, got %+v", s)
	}
	again, _ := c.Get(f, 2, Forward)
	if again != first {
		t.Error("Recently used entry was evicted")
	}
	if first.Powers == nil {
		t.Error("Evicted or cached tables must stay readable")
	}
}

func TestCacheKeysOnGenerator(t *testing.T) {
	t.Parallel()
	c := NewCache(DefaultCacheConfig())
	std := field.Goldilocks()
	// 7^7 is another generator: 7 does not divide p-1.
	alt, err := field.New("goldilocks-alt", field.GoldilocksModulus, 823543, 32)
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range []*field.Field{std, alt} {
		tab, err := c.Get(f, 4, Forward)
		if err != nil {
			t.Fatal(err)
		}
		want, err := f.RootOfUnity(4)
		if err != nil {
			t.Fatal(err)
		}
		if tab.Root != want {
			t.Errorf("%s: expected root %d, got %d", f.Name(), want, tab.Root)
		}
	}
	if s := c.Stats(); s.Size != 2 || s.Generations != 2 {
		t.Errorf("Expected one table per generator, got %+v", s)
	}
}

func TestCacheGetDuringClear(t *testing.T) {
	t.Parallel()
	c := NewCache(CacheConfig{MaxEntries: 4})
	f := field.BabyBear()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if (i+w)%17 == 0 {
					c.Clear()
					continue
				}
				if _, err := c.Get(f, 1+(i+w)%6, Forward); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lru.Len() != len(c.entries) {
		t.Fatalf("Expected list length %d to match the index, got %d", len(c.entries), c.lru.Len())
	}
	n := 0
	for e := c.lru.Front(); e != nil && n <= len(c.entries); e = e.Next() {
		if c.entries[e.Value.(*cacheEntry).key] != e {
			t.Fatal("Found a list node that is not indexed")
		}
		n++
	}
	if n != len(c.entries) {
		t.Errorf("Expected %d reachable nodes, got %d", len(c.entries), n)
	}
}

func TestCacheInvalidDomainNotCached(t *testing.T) {
	t.Parallel()
	c := NewCache(DefaultCacheConfig())
	_, err := c.Get(field.BabyBear(), 30, Forward)
	if !errors.Is(err, apperrors.ErrInvalidDomainSize) {
		t.Errorf("Expected ErrInvalidDomainSize, got %v", err)
	}
	if c.Stats().Size != 0 {
		t.Error("Failed generations must not be cached")
	}
}

func TestGlobalCacheIsShared(t *testing.T) {
	t.Parallel()
	if Global() != Global() {
		t.Error("Expected a single process-wide cache")
	}
}
