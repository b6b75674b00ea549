// Package memtest provides an in-process fake of remotesym.Process,
// backed by a sparse byte-addressed map instead of a real task port. It
// exists so the portable parts of the Mach-O walk — the scanner, the
// enumerator, the orchestrator's bias arithmetic — can be exercised with
// hand-built fixture bytes, without needing a real darwin process to
// read from.
package memtest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/appsworld/remotesym/types"
)

// Fake is a sparse, byte-addressed fake address space.
type Fake struct {
	mem  map[uint64]byte
	dyld types.TaskDyldInfo
}

// New returns an empty fake address space with no dyld info configured.
func New() *Fake {
	return &Fake{mem: make(map[uint64]byte)}
}

// ReadMemory implements remotesym.Process. Only the starting address must
// be mapped; bytes past the end of whatever was actually written read
// back as zero, the same way a real bounded string/struct read runs past
// the end of live data into the rest of its containing page.
func (f *Fake) ReadMemory(addr uint64, length int) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if _, ok := f.mem[addr]; !ok {
		return nil, fmt.Errorf("memtest: read at unmapped address %#x", addr)
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = f.mem[addr+uint64(i)]
	}
	return out, nil
}

// DyldInfo implements remotesym.Process.
func (f *Fake) DyldInfo() (types.TaskDyldInfo, error) {
	return f.dyld, nil
}

// SetDyldInfo configures the descriptor DyldInfo returns.
func (f *Fake) SetDyldInfo(info types.TaskDyldInfo) {
	f.dyld = info
}

// Write copies b into the fake address space starting at addr.
func (f *Fake) Write(addr uint64, b []byte) {
	for i, c := range b {
		f.mem[addr+uint64(i)] = c
	}
}

// WriteStruct binary-encodes v (little-endian, matching the platform this
// package targets) and writes it at addr.
func (f *Fake) WriteStruct(addr uint64, v any) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		panic(fmt.Sprintf("memtest: encode %T: %v", v, err))
	}
	f.Write(addr, buf.Bytes())
}

// WriteAllImages64 places a dyld_all_image_infos record (64-bit layout)
// and its image array at addr, and points f's DyldInfo at it.
func (f *Fake) WriteAllImages64(addr uint64, headers []uint64, sharedCacheSlide uint64) {
	arrayAddr := addr + 4096
	infos := types.AllImageInfos64{
		Version:          1,
		InfoArrayCount:   uint32(len(headers)),
		InfoArray:        arrayAddr,
		SharedCacheSlide: sharedCacheSlide,
	}
	f.WriteStruct(addr, infos)
	for i, h := range headers {
		f.WriteStruct(arrayAddr+uint64(i)*24, types.ImageInfo64{ImageLoadAddress: h})
	}
	f.SetDyldInfo(types.TaskDyldInfo{
		AllImageInfoAddr:   addr,
		AllImageInfoSize:   uint64(binary.Size(infos)),
		AllImageInfoFormat: types.Bits64,
	})
}

// WriteAllImages32 is the 32-bit counterpart of WriteAllImages64.
func (f *Fake) WriteAllImages32(addr uint64, headers []uint32, sharedCacheSlide uint32) {
	arrayAddr := addr + 4096
	infos := types.AllImageInfos32{
		Version:          1,
		InfoArrayCount:   uint32(len(headers)),
		InfoArray:        uint32(arrayAddr),
		SharedCacheSlide: sharedCacheSlide,
	}
	f.WriteStruct(addr, infos)
	for i, h := range headers {
		f.WriteStruct(arrayAddr+uint64(i)*12, types.ImageInfo32{ImageLoadAddress: h})
	}
	f.SetDyldInfo(types.TaskDyldInfo{
		AllImageInfoAddr:   addr,
		AllImageInfoSize:   uint64(binary.Size(infos)),
		AllImageInfoFormat: types.Bits32,
	})
}

// Symbol is one entry to place in a fabricated image's classic symbol
// table. A zero Value marks an undefined/external symbol, matching the
// real ABI's skip-zero rule.
type Symbol struct {
	Name  string
	Value uint64
}

// ImageSpec describes a minimal, complete Mach-O image to fabricate:
// exactly __TEXT, __LINKEDIT and LC_SYMTAB, which is all the scanner ever
// looks at.
type ImageSpec struct {
	HeaderAddr      uint64
	Is64            bool
	FromSharedCache bool
	// FileSlide is the per-image file-to-memory slide the scanner should
	// recompute: linkedit.vmaddr - text.vmaddr - linkedit.fileoff.
	// TextVMAddr and LinkeditFileOff are fixed arbitrary values; this
	// package back-computes LinkeditVMAddr so the requested slide holds
	// exactly, including word-width wraparound for 32-bit images.
	FileSlide uint64
	Symbols   []Symbol
	// IncludeForeignSegment, when true, adds one extra LC_SEGMENT(_64)
	// command for a segment named neither __TEXT nor __LINKEDIT, to
	// exercise the scanner's "ignore unrelated segments" path.
	IncludeForeignSegment bool
}

const (
	textVMAddrFixture      = 0x4000
	linkeditFileOffFixture = 0x9000
)

// BuildImage fabricates spec into f's address space. It returns nothing;
// the symbol and string tables land at fixed offsets (0x100000 and
// 0x200000 past spec.HeaderAddr, plus the file slide), so callers placing
// several images must leave room for them.
func (f *Fake) BuildImage(spec ImageSpec) {
	if spec.Is64 {
		f.buildImage64(spec)
	} else {
		f.buildImage32(spec)
	}
}

func (f *Fake) buildImage64(spec ImageSpec) {
	const headerSize = types.HeaderSize64
	cmdAddr := spec.HeaderAddr + headerSize
	var ncmds uint32

	if spec.IncludeForeignSegment {
		foreign := types.Segment64{
			LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SEGMENT_64, CmdSize: uint32(binary.Size(types.Segment64{}))},
		}
		copy(foreign.Name[:], "__DATA")
		f.WriteStruct(cmdAddr, foreign)
		cmdAddr += uint64(foreign.CmdSize)
		ncmds++
	}

	textAddr := cmdAddr
	text := types.Segment64{
		LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SEGMENT_64, CmdSize: uint32(binary.Size(types.Segment64{}))},
		VMAddr:        textVMAddrFixture,
	}
	copy(text.Name[:], types.SegNameText)
	f.WriteStruct(textAddr, text)
	cmdAddr += uint64(text.CmdSize)
	ncmds++

	linkeditAddr := cmdAddr
	linkeditVMAddr := textVMAddrFixture + linkeditFileOffFixture + spec.FileSlide
	linkedit := types.Segment64{
		LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SEGMENT_64, CmdSize: uint32(binary.Size(types.Segment64{}))},
		VMAddr:        linkeditVMAddr,
		FileOff:       linkeditFileOffFixture,
	}
	copy(linkedit.Name[:], types.SegNameLinkedit)
	f.WriteStruct(linkeditAddr, linkedit)
	cmdAddr += uint64(linkedit.CmdSize)
	ncmds++

	symtabAddr := cmdAddr
	const symOff, strOff = 0x100000, 0x200000
	symtab := types.SymtabCmd{
		LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SYMTAB, CmdSize: uint32(binary.Size(types.SymtabCmd{}))},
		SymOff:        symOff,
		NSyms:         uint32(len(spec.Symbols)),
		StrOff:        strOff,
	}
	f.WriteStruct(symtabAddr, symtab)
	ncmds++

	fileSlide := linkeditVMAddr - textVMAddrFixture - linkeditFileOffFixture
	symbolsBase := spec.HeaderAddr + symOff + fileSlide
	stringsBase := spec.HeaderAddr + strOff + fileSlide
	f.writeSymtab64(symbolsBase, stringsBase, spec.Symbols)

	var flags types.HeaderFlag
	if spec.FromSharedCache {
		flags = types.DylibInCache
	}
	f.WriteStruct(spec.HeaderAddr, types.FileHeader{
		Magic:     types.Magic64,
		NCommands: ncmds,
		Flags:     flags,
	})
}

func (f *Fake) buildImage32(spec ImageSpec) {
	const headerSize = types.HeaderSize32
	cmdAddr := spec.HeaderAddr + headerSize
	var ncmds uint32

	if spec.IncludeForeignSegment {
		foreign := types.Segment32{
			LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SEGMENT, CmdSize: uint32(binary.Size(types.Segment32{}))},
		}
		copy(foreign.Name[:], "__DATA")
		f.WriteStruct(cmdAddr, foreign)
		cmdAddr += uint64(foreign.CmdSize)
		ncmds++
	}

	textAddr := cmdAddr
	text := types.Segment32{
		LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SEGMENT, CmdSize: uint32(binary.Size(types.Segment32{}))},
		VMAddr:        textVMAddrFixture,
	}
	copy(text.Name[:], types.SegNameText)
	f.WriteStruct(textAddr, text)
	cmdAddr += uint64(text.CmdSize)
	ncmds++

	linkeditAddr := cmdAddr
	linkeditVMAddr := uint32(textVMAddrFixture) + uint32(linkeditFileOffFixture) + uint32(spec.FileSlide)
	linkedit := types.Segment32{
		LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SEGMENT, CmdSize: uint32(binary.Size(types.Segment32{}))},
		VMAddr:        linkeditVMAddr,
		FileOff:       linkeditFileOffFixture,
	}
	copy(linkedit.Name[:], types.SegNameLinkedit)
	f.WriteStruct(linkeditAddr, linkedit)
	cmdAddr += uint64(linkedit.CmdSize)
	ncmds++

	symtabAddr := cmdAddr
	const symOff, strOff = 0x100000, 0x200000
	symtab := types.SymtabCmd{
		LoadCmdHeader: types.LoadCmdHeader{Cmd: types.LC_SYMTAB, CmdSize: uint32(binary.Size(types.SymtabCmd{}))},
		SymOff:        symOff,
		NSyms:         uint32(len(spec.Symbols)),
		StrOff:        strOff,
	}
	f.WriteStruct(symtabAddr, symtab)
	ncmds++

	fileSlide := linkeditVMAddr - uint32(textVMAddrFixture) - uint32(linkeditFileOffFixture)
	symbolsBase := uint64(uint32(spec.HeaderAddr) + symOff + fileSlide)
	stringsBase := uint64(uint32(spec.HeaderAddr) + strOff + fileSlide)
	f.writeSymtab32(symbolsBase, stringsBase, spec.Symbols)

	var flags types.HeaderFlag
	if spec.FromSharedCache {
		flags = types.DylibInCache
	}
	f.WriteStruct(spec.HeaderAddr, types.FileHeader{
		Magic:     types.Magic32,
		NCommands: ncmds,
		Flags:     flags,
	})
}

func (f *Fake) writeSymtab64(symbolsBase, stringsBase uint64, syms []Symbol) {
	strOff := uint32(1) // leave strtab[0] == 0, matching the real convention
	for i, s := range syms {
		f.WriteStruct(symbolsBase+uint64(i)*16, types.Nlist64{StrX: strOff, Value: s.Value})
		f.Write(stringsBase+uint64(strOff), append([]byte(s.Name), 0))
		strOff += uint32(len(s.Name)) + 1
	}
}

func (f *Fake) writeSymtab32(symbolsBase, stringsBase uint64, syms []Symbol) {
	strOff := uint32(1)
	for i, s := range syms {
		f.WriteStruct(symbolsBase+uint64(i)*12, types.Nlist32{StrX: strOff, Value: uint32(s.Value)})
		f.Write(stringsBase+uint64(strOff), append([]byte(s.Name), 0))
		strOff += uint32(len(s.Name)) + 1
	}
}
