package remotesym

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/appsworld/remotesym/types"
)

// scanResult is what a successful scan of one image hands back to the
// orchestrator: the symbol's in-file virtual address, whether the image
// came from the dyld shared cache, and the image's own word width (needed
// only to rebase the main image correctly — see Lookup).
type scanResult struct {
	value           uint64
	fromSharedCache bool
	is64            bool
}

// abi captures the handful of Mach-O structure shapes that differ between
// 32- and 64-bit images so that scanImage itself is written once. This is
// the Go-idiomatic answer to "factor the 32/64 duplication through a
// generic": a fixed set of two behaviorally distinct strategies is what an
// interface is for, not a type parameter.
type abi interface {
	headerSize() int
	segmentCmd() types.LoadCmd
	nlistSize() int
	is64() bool
	defaultBase() uint64

	readSegment(p Process, addr uint64) (vmAddr, fileOff uint64, name string, err error)
	readSymtab(p Process, addr uint64) (symOff, strOff, nSyms uint64, err error)
	readNlist(p Process, addr uint64) (strx uint32, value uint64, err error)
	// addresses composes the per-image file slide and the two additional
	// biases (stroff/symoff) into absolute, in-memory string and symbol
	// table base addresses, reproducing this word-width's own integer
	// wraparound behavior exactly (see scanImage).
	addresses(header, symOff, strOff, textVMAddr, linkeditVMAddr, linkeditFileOff uint64) (symbolsBase, stringsBase uint64)
}

type abi32 struct{}
type abi64 struct{}

func (abi32) headerSize() int           { return types.HeaderSize32 }
func (abi32) segmentCmd() types.LoadCmd { return types.LC_SEGMENT }
func (abi32) nlistSize() int            { return binary.Size(types.Nlist32{}) }
func (abi32) is64() bool                { return false }
func (abi32) defaultBase() uint64       { return 0x1000 }

func (abi64) headerSize() int           { return types.HeaderSize64 }
func (abi64) segmentCmd() types.LoadCmd { return types.LC_SEGMENT_64 }
func (abi64) nlistSize() int            { return binary.Size(types.Nlist64{}) }
func (abi64) is64() bool                { return true }
func (abi64) defaultBase() uint64       { return 0x100000000 }

func (abi32) readSegment(p Process, addr uint64) (uint64, uint64, string, error) {
	var seg types.Segment32
	if err := readStruct(p, addr, &seg); err != nil {
		return 0, 0, "", err
	}
	return uint64(seg.VMAddr), uint64(seg.FileOff), trimCString(seg.Name[:]), nil
}

func (abi64) readSegment(p Process, addr uint64) (uint64, uint64, string, error) {
	var seg types.Segment64
	if err := readStruct(p, addr, &seg); err != nil {
		return 0, 0, "", err
	}
	return seg.VMAddr, seg.FileOff, trimCString(seg.Name[:]), nil
}

func (abi32) readSymtab(p Process, addr uint64) (uint64, uint64, uint64, error) {
	var s types.SymtabCmd
	if err := readStruct(p, addr, &s); err != nil {
		return 0, 0, 0, err
	}
	return uint64(s.SymOff), uint64(s.StrOff), uint64(s.NSyms), nil
}

func (abi64) readSymtab(p Process, addr uint64) (uint64, uint64, uint64, error) {
	var s types.SymtabCmd
	if err := readStruct(p, addr, &s); err != nil {
		return 0, 0, 0, err
	}
	return uint64(s.SymOff), uint64(s.StrOff), uint64(s.NSyms), nil
}

func (abi32) readNlist(p Process, addr uint64) (uint32, uint64, error) {
	var n types.Nlist32
	if err := readStruct(p, addr, &n); err != nil {
		return 0, 0, err
	}
	return n.StrX, uint64(n.Value), nil
}

func (abi64) readNlist(p Process, addr uint64) (uint32, uint64, error) {
	var n types.Nlist64
	if err := readStruct(p, addr, &n); err != nil {
		return 0, 0, err
	}
	return n.StrX, n.Value, nil
}

// addresses for abi32 reproduces the source's 32-bit arithmetic exactly,
// including wraparound at 2^32 — doing the same sums in uint64 would give
// a different (and wrong) answer whenever the result falls outside the
// 32-bit range, for instance when a conceptually negative file slide
// outweighs header plus offset.
func (abi32) addresses(header, symOff, strOff, textVMAddr, linkeditVMAddr, linkeditFileOff uint64) (uint64, uint64) {
	fileSlide := uint32(linkeditVMAddr) - uint32(textVMAddr) - uint32(linkeditFileOff)
	symbolsBase := uint32(header) + uint32(symOff) + fileSlide
	stringsBase := uint32(header) + uint32(strOff) + fileSlide
	return uint64(symbolsBase), uint64(stringsBase)
}

func (abi64) addresses(header, symOff, strOff, textVMAddr, linkeditVMAddr, linkeditFileOff uint64) (uint64, uint64) {
	fileSlide := linkeditVMAddr - textVMAddr - linkeditFileOff
	return header + symOff + fileSlide, header + strOff + fileSlide
}

// scanImage implements component E: parse one remote image's load-command
// stream without mapping it, locate its symbol table, and search for
// name. found is false (with a nil error) for any image this package can
// recognize but that simply doesn't define the symbol, or that has to be
// skipped as structurally unusable; err is returned for remote-read
// failures and for a zero-size load command, and aborts only this image,
// not the whole lookup.
func scanImage(p Process, header uint64, name string) (result scanResult, found bool, err error) {
	var hdr types.FileHeader
	if err := readStruct(p, header, &hdr); err != nil {
		return scanResult{}, false, fmt.Errorf("remotesym: header at %#x: %w", header, err)
	}

	var a abi
	switch hdr.Magic {
	case types.Magic32:
		a = abi32{}
	case types.Magic64:
		a = abi64{}
	default:
		log.Printf("remotesym: image at %#x has unsupported magic %s, skipping", header, hdr.Magic)
		return scanResult{}, false, nil
	}
	fromSharedCache := hdr.Flags.FromSharedCache()

	var symtabAddr, textAddr, linkeditAddr uint64
	cmdAddr := header + uint64(a.headerSize())
	for i := uint32(0); i < hdr.NCommands; i++ {
		var cmd types.LoadCmdHeader
		if err := readStruct(p, cmdAddr, &cmd); err != nil {
			return scanResult{}, false, fmt.Errorf("remotesym: load command %d at %#x: %w", i, cmdAddr, err)
		}
		switch cmd.Cmd {
		case types.LC_SYMTAB:
			symtabAddr = cmdAddr
		case a.segmentCmd():
			_, _, segName, err := a.readSegment(p, cmdAddr)
			if err != nil {
				return scanResult{}, false, err
			}
			switch segName {
			case types.SegNameText:
				textAddr = cmdAddr
			case types.SegNameLinkedit:
				linkeditAddr = cmdAddr
			}
		}
		if cmd.CmdSize == 0 {
			return scanResult{}, false, fmt.Errorf("remotesym: zero-size load command %d at %#x", i, cmdAddr)
		}
		cmdAddr += uint64(cmd.CmdSize)
	}

	if symtabAddr == 0 || textAddr == 0 || linkeditAddr == 0 {
		log.Printf("remotesym: image at %#x is missing __TEXT, __LINKEDIT or LC_SYMTAB, skipping", header)
		return scanResult{fromSharedCache: fromSharedCache, is64: a.is64()}, false, nil
	}

	symOff, strOff, nSyms, err := a.readSymtab(p, symtabAddr)
	if err != nil {
		return scanResult{}, false, err
	}
	textVMAddr, _, _, err := a.readSegment(p, textAddr)
	if err != nil {
		return scanResult{}, false, err
	}
	linkeditVMAddr, linkeditFileOff, _, err := a.readSegment(p, linkeditAddr)
	if err != nil {
		return scanResult{}, false, err
	}

	symbolsBase, stringsBase := a.addresses(header, symOff, strOff, textVMAddr, linkeditVMAddr, linkeditFileOff)
	nlistSize := uint64(a.nlistSize())

	for i := uint64(0); i < nSyms; i++ {
		strx, value, err := a.readNlist(p, symbolsBase+i*nlistSize)
		if err != nil {
			return scanResult{}, false, err
		}
		// A zero value marks an undefined/external symbol; it is never a
		// match regardless of name.
		if value == 0 {
			continue
		}
		symName, err := readCString(p, stringsBase+uint64(strx))
		if err != nil {
			// An unreadable name doesn't invalidate the rest of the
			// table; skip this entry and keep scanning.
			continue
		}
		if matchesSymbolName(name, symName) {
			return scanResult{value: value, fromSharedCache: fromSharedCache, is64: a.is64()}, true, nil
		}
	}
	return scanResult{fromSharedCache: fromSharedCache, is64: a.is64()}, false, nil
}

// matchesSymbolName accepts either the exact stored name or the stored
// name with its single leading underscore stripped — the Mach-O C symbol
// mangling convention callers otherwise have to know about themselves.
func matchesSymbolName(requested, stored string) bool {
	if requested == stored {
		return true
	}
	return len(stored) > 0 && stored[0] == '_' && stored[1:] == requested
}
