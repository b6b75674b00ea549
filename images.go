package remotesym

import (
	"fmt"

	"github.com/appsworld/remotesym/types"
)

// imageList is a snapshot of every image loaded in a target process,
// taken once at the start of a lookup. Entry 0 is always the main
// executable; the OS guarantees this ordering.
type imageList struct {
	headers          []uint64
	sharedCacheSlide uint64
}

// enumerateImages implements component D: given a process handle, read
// dyld's all-images record and its image array, and produce an ordered
// list of remote header addresses plus the shared-cache slide.
func enumerateImages(p Process) (imageList, error) {
	info, err := p.DyldInfo()
	if err != nil {
		return imageList{}, fmt.Errorf("remotesym: dyld info: %w", err)
	}

	if info.AllImageInfoFormat == types.Bits64 {
		return enumerateImages64(p, info)
	}
	return enumerateImages32(p, info)
}

func enumerateImages64(p Process, info types.TaskDyldInfo) (imageList, error) {
	var infos types.AllImageInfos64
	if err := readStruct(p, info.AllImageInfoAddr, &infos); err != nil {
		return imageList{}, err
	}

	entries := make([]types.ImageInfo64, infos.InfoArrayCount)
	if err := readArray(p, infos.InfoArray, entries); err != nil {
		return imageList{}, err
	}

	headers := make([]uint64, len(entries))
	for i, e := range entries {
		headers[i] = e.ImageLoadAddress
	}
	return imageList{headers: headers, sharedCacheSlide: infos.SharedCacheSlide}, nil
}

// enumerateImages32 mirrors enumerateImages64 for 32-bit targets. The
// reference implementation this package is modeled on asserts that the
// caller's shared-cache-slide output pointer is non-null here but not in
// the 64-bit path; that asymmetry isn't a real contract difference, so
// this package unifies on the more defensible 64-bit behavior and simply
// always reports whatever slide the target's record carries, zero
// included.
func enumerateImages32(p Process, info types.TaskDyldInfo) (imageList, error) {
	var infos types.AllImageInfos32
	if err := readStruct(p, info.AllImageInfoAddr, &infos); err != nil {
		return imageList{}, err
	}

	entries := make([]types.ImageInfo32, infos.InfoArrayCount)
	if err := readArray(p, uint64(infos.InfoArray), entries); err != nil {
		return imageList{}, err
	}

	headers := make([]uint64, len(entries))
	for i, e := range entries {
		headers[i] = uint64(e.ImageLoadAddress)
	}
	return imageList{headers: headers, sharedCacheSlide: uint64(infos.SharedCacheSlide)}, nil
}
