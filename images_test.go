package remotesym

import (
	"testing"

	"github.com/appsworld/remotesym/internal/memtest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestEnumerateImages64(t *testing.T) {
	f := memtest.New()
	f.WriteAllImages64(0x5000_0000, []uint64{0x1_0000_0000, 0x2_0000_0000, 0x3_0000_0000}, 0xABCD)

	got, err := enumerateImages(f)
	if err != nil {
		t.Fatalf("enumerateImages: %v", err)
	}
	want := imageList{
		headers:          []uint64{0x1_0000_0000, 0x2_0000_0000, 0x3_0000_0000},
		sharedCacheSlide: 0xABCD,
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(imageList{}), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("enumerateImages mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerateImages32(t *testing.T) {
	f := memtest.New()
	f.WriteAllImages32(0x6000_0000, []uint32{0x1000, 0x2000}, 0)

	got, err := enumerateImages(f)
	if err != nil {
		t.Fatalf("enumerateImages: %v", err)
	}
	// Unifies on the 64-bit path's behavior: a zero shared-cache slide is
	// reported as-is, never rejected.
	want := imageList{headers: []uint64{0x1000, 0x2000}, sharedCacheSlide: 0}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(imageList{})); diff != "" {
		t.Fatalf("enumerateImages mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerateImagesUnmappedRecordFails(t *testing.T) {
	f := memtest.New()
	// No WriteAllImages* call: the fake's DyldInfo succeeds but points
	// nowhere mapped, so reading the all-images record fails.
	if _, err := enumerateImages(f); err == nil {
		t.Fatal("expected error when the all-images record is unmapped")
	}
}
