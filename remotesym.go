// Package remotesym resolves a symbol name to its runtime virtual address
// inside another running process, without help from that process's own
// dynamic linker and without mapping any of its images locally. Every
// answer is built from a linear sequence of remote-memory reads performed
// through a caller-supplied Process.
package remotesym

import "log"

// mainImageRebaseThreshold is the boundary the reference implementation
// historically used to guess a main image's word width from the
// magnitude of its resolved static address — a known sharp edge, since a
// 64-bit static address below 4GiB would be misclassified. This package
// doesn't need that guess: scanImage already knows an image's real word
// width from its header magic, so Lookup uses that directly. The same
// value is the 64-bit default static base, and Lookup subtracts it when
// rebasing a 64-bit main image.
const mainImageRebaseThreshold = 0x100000000

// Lookup resolves symbolName to its absolute runtime virtual address
// inside the process reachable through p. ok is false when the symbol
// isn't defined in any image that could be scanned, or when the image
// list itself could not be read; an image whose scan fails is logged and
// skipped, and the walk goes on with the next one. The cases are
// intentionally indistinguishable from the caller's side — diagnostics go
// to the log package, not to the return value, so pipelines of
// speculative lookups never have to branch on error kinds.
//
// symbolName may be given with or without its leading underscore; both
// forms resolve to the same address.
func Lookup(p Process, symbolName string) (addr uint64, ok bool) {
	if symbolName == "" {
		panic("remotesym: symbolName must not be empty")
	}

	images, err := enumerateImages(p)
	if err != nil {
		log.Printf("remotesym: lookup %q: %v", symbolName, err)
		return 0, false
	}

	matched := -1
	var result scanResult
	for i, header := range images.headers {
		res, found, err := scanImage(p, header, symbolName)
		if err != nil {
			log.Printf("remotesym: scanning image %#x: %v", header, err)
			continue
		}
		if found {
			matched = i
			result = res
			break
		}
	}
	if matched == -1 {
		return 0, false
	}

	address := result.value
	if matched == 0 {
		// Main-image ASLR rebase: the nlist value is a static, link-time
		// address; subtract the architecture's default static base to
		// get the symbol's offset within the image, then add image 0's
		// actual (slid) load address. Mutually exclusive with the
		// shared-cache slide below — the main image being itself drawn
		// from the shared cache isn't a case any known target exercises,
		// and sliding both would double-count.
		base := uint64(0x1000)
		if result.is64 {
			base = mainImageRebaseThreshold
		}
		address = address - base + images.headers[0]
	} else if result.fromSharedCache {
		address += images.sharedCacheSlide
	}
	return address, true
}

// LookupOrZero is Lookup collapsed to the single-uint64 ABI contract this
// package's reference implementation originally exposed: 0 means "not
// found or error". Use it only at a boundary that can't carry a second
// return value, such as a cgo export; everywhere else, prefer Lookup.
func LookupOrZero(p Process, symbolName string) uint64 {
	addr, ok := Lookup(p, symbolName)
	if !ok {
		return 0
	}
	return addr
}
