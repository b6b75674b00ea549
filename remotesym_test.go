package remotesym_test

import (
	"testing"

	"github.com/appsworld/remotesym"
	"github.com/appsworld/remotesym/internal/memtest"
)

func TestLookupRebasesMainImage64(t *testing.T) {
	const (
		headerAddr = 0x7000_0000_0000
		staticBase = 0x1_0000_0000
	)
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: headerAddr,
		Is64:       true,
		Symbols:    []memtest.Symbol{{Name: "_entry", Value: staticBase + 0x2000}},
	})
	f.WriteAllImages64(0x9000_0000_0000, []uint64{headerAddr}, 0)

	addr, ok := remotesym.Lookup(f, "entry")
	if !ok {
		t.Fatal("expected symbol to resolve")
	}
	want := uint64(headerAddr + 0x2000)
	if addr != want {
		t.Fatalf("addr = %#x, want %#x", addr, want)
	}
}

func TestLookupRebasesMainImage32(t *testing.T) {
	const (
		headerAddr = 0x8000_0000
		staticBase = 0x1000
	)
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: headerAddr,
		Is64:       false,
		Symbols:    []memtest.Symbol{{Name: "_entry32", Value: staticBase + 0x500}},
	})
	f.WriteAllImages32(0x5000_0000, []uint32{headerAddr}, 0)

	addr, ok := remotesym.Lookup(f, "entry32")
	if !ok {
		t.Fatal("expected symbol to resolve")
	}
	want := uint64(headerAddr + 0x500)
	if addr != want {
		t.Fatalf("addr = %#x, want %#x", addr, want)
	}
}

func TestLookupAppliesSharedCacheSlideToNonMainImage(t *testing.T) {
	const (
		mainHeader  = 0x7000_0000_0000
		cacheHeader = 0x7000_1000_0000
		slide       = 0x1_0000
	)
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: mainHeader,
		Is64:       true,
		Symbols:    []memtest.Symbol{{Name: "_main_only", Value: 0x1_0000_0000 + 0x10}},
	})
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr:      cacheHeader,
		Is64:            true,
		FromSharedCache: true,
		Symbols:         []memtest.Symbol{{Name: "_shared_thing", Value: 0x300}},
	})
	f.WriteAllImages64(0x9000_0000_0000, []uint64{mainHeader, cacheHeader}, slide)

	addr, ok := remotesym.Lookup(f, "shared_thing")
	if !ok {
		t.Fatal("expected symbol to resolve")
	}
	if want := uint64(0x300 + slide); addr != want {
		t.Fatalf("addr = %#x, want %#x", addr, want)
	}
}

func TestLookupNotFound(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x4000_0000,
		Is64:       true,
		Symbols:    []memtest.Symbol{{Name: "_present", Value: 0x1_0000_0000 + 0x10}},
	})
	f.WriteAllImages64(0x9000_0000_0000, []uint64{0x4000_0000}, 0)

	if _, ok := remotesym.Lookup(f, "absent"); ok {
		t.Fatal("expected lookup to fail for an undefined symbol")
	}
}

func TestLookupIsIdempotent(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x4000_0000,
		Is64:       true,
		Symbols:    []memtest.Symbol{{Name: "_stable", Value: 0x1_0000_0000 + 0x40}},
	})
	f.WriteAllImages64(0x9000_0000_0000, []uint64{0x4000_0000}, 0)

	addr1, ok1 := remotesym.Lookup(f, "stable")
	addr2, ok2 := remotesym.Lookup(f, "stable")
	if !ok1 || !ok2 || addr1 != addr2 {
		t.Fatalf("repeated lookups diverged: (%#x,%v) vs (%#x,%v)", addr1, ok1, addr2, ok2)
	}
}

func TestLookupPanicsOnEmptyName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Lookup(\"\") to panic")
		}
	}()
	remotesym.Lookup(memtest.New(), "")
}

func TestLookupOrZeroCollapsesMissToZero(t *testing.T) {
	f := memtest.New()
	f.WriteAllImages64(0x9000_0000_0000, nil, 0)

	if got := remotesym.LookupOrZero(f, "anything"); got != 0 {
		t.Fatalf("got %#x, want 0", got)
	}
}
