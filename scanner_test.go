package remotesym

import (
	"testing"

	"github.com/appsworld/remotesym/internal/memtest"
	"github.com/appsworld/remotesym/types"
)

func TestScanImage64FindsSymbol(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x7000_0000_0000,
		Is64:       true,
		Symbols: []memtest.Symbol{
			{Name: "_foo", Value: 0x1234},
			{Name: "_bar", Value: 0x5678},
		},
	})

	result, found, err := scanImage(f, 0x7000_0000_0000, "foo")
	if err != nil {
		t.Fatalf("scanImage: %v", err)
	}
	if !found {
		t.Fatal("expected symbol to be found")
	}
	if result.value != 0x1234 {
		t.Fatalf("value = %#x, want %#x", result.value, 0x1234)
	}
	if !result.is64 {
		t.Fatal("expected is64 to be true")
	}
}

func TestScanImageMatchesWithAndWithoutUnderscore(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x4000_0000,
		Is64:       true,
		Symbols:    []memtest.Symbol{{Name: "_widget_init", Value: 0x99}},
	})

	for _, query := range []string{"widget_init", "_widget_init"} {
		result, found, err := scanImage(f, 0x4000_0000, query)
		if err != nil || !found {
			t.Fatalf("query %q: found=%v err=%v", query, found, err)
		}
		if result.value != 0x99 {
			t.Fatalf("query %q: value = %#x, want 0x99", query, result.value)
		}
	}
}

func TestScanImageSkipsZeroValueSymbols(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x4000_0000,
		Is64:       true,
		Symbols:    []memtest.Symbol{{Name: "_undefined", Value: 0}},
	})

	_, found, err := scanImage(f, 0x4000_0000, "undefined")
	if err != nil {
		t.Fatalf("scanImage: %v", err)
	}
	if found {
		t.Fatal("a zero-value symbol must never match")
	}
}

func TestScanImageHonorsNonzeroFileSlide(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x4000_0000,
		Is64:       true,
		FileSlide:  0x20000,
		Symbols:    []memtest.Symbol{{Name: "_slid", Value: 0xAAAA}},
	})

	result, found, err := scanImage(f, 0x4000_0000, "slid")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if result.value != 0xAAAA {
		t.Fatalf("value = %#x, want 0xAAAA", result.value)
	}
}

func TestScanImage32FindsSymbol(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x2000_0000,
		Is64:       false,
		Symbols:    []memtest.Symbol{{Name: "_thirtytwo", Value: 0x55}},
	})

	result, found, err := scanImage(f, 0x2000_0000, "thirtytwo")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if result.is64 {
		t.Fatal("expected is64 to be false")
	}
	if result.value != 0x55 {
		t.Fatalf("value = %#x, want 0x55", result.value)
	}
}

func TestScanImageReportsSharedCacheMembership(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr:      0x3000_0000,
		Is64:            true,
		FromSharedCache: true,
		Symbols:         []memtest.Symbol{{Name: "_cached", Value: 0x10}},
	})

	result, found, err := scanImage(f, 0x3000_0000, "cached")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if !result.fromSharedCache {
		t.Fatal("expected fromSharedCache to be true")
	}
}

func TestScanImageIgnoresUnrelatedSegments(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr:            0x3000_0000,
		Is64:                  true,
		IncludeForeignSegment: true,
		Symbols:               []memtest.Symbol{{Name: "_after_data", Value: 0x42}},
	})

	result, found, err := scanImage(f, 0x3000_0000, "after_data")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if result.value != 0x42 {
		t.Fatalf("value = %#x, want 0x42", result.value)
	}
}

func TestScanImageNoMatchReturnsNotFound(t *testing.T) {
	f := memtest.New()
	f.BuildImage(memtest.ImageSpec{
		HeaderAddr: 0x4000_0000,
		Is64:       true,
		Symbols:    []memtest.Symbol{{Name: "_present", Value: 0x1}},
	})

	_, found, err := scanImage(f, 0x4000_0000, "absent")
	if err != nil {
		t.Fatalf("scanImage: %v", err)
	}
	if found {
		t.Fatal("expected no match")
	}
}

func TestScanImageUnsupportedMagicIsSkippedNotErrored(t *testing.T) {
	f := memtest.New()
	// A fully mapped header with an unrecognized magic: scanImage must
	// still be able to read it, it just can't make sense of it.
	f.WriteStruct(0x4000_0000, types.FileHeader{Magic: 0xdeadbeef})

	_, found, err := scanImage(f, 0x4000_0000, "anything")
	if err != nil {
		t.Fatalf("expected a skip, not an error: %v", err)
	}
	if found {
		t.Fatal("garbage header must never match")
	}
}

func TestMatchesSymbolName(t *testing.T) {
	cases := []struct {
		requested, stored string
		want              bool
	}{
		{"foo", "foo", true},
		{"foo", "_foo", true},
		{"_foo", "_foo", true}, // requested already has its own underscore: a verbatim match
		{"foo", "bar", false},
		{"foo", "", false},
	}
	for _, c := range cases {
		if got := matchesSymbolName(c.requested, c.stored); got != c.want {
			t.Errorf("matchesSymbolName(%q, %q) = %v, want %v", c.requested, c.stored, got, c.want)
		}
	}
}
