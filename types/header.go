// Package types holds the Mach-O and dyld on-disk/in-memory structures this
// module needs, laid out byte-for-byte to match the platform ABI. Only the
// subset a remote symbol walk actually touches is modeled; this is not a
// general-purpose Mach-O parser.
package types

import "fmt"

// Magic discriminates the word width of a Mach-O header.
type Magic uint32

const (
	Magic32 Magic = 0xfeedface
	Magic64 Magic = 0xfeedfacf
)

func (m Magic) String() string {
	switch m {
	case Magic32:
		return "32-bit MachO"
	case Magic64:
		return "64-bit MachO"
	default:
		return fmt.Sprintf("unknown magic %#x", uint32(m))
	}
}

// FileHeader is the fixed-size, word-width-independent prefix of a Mach-O
// header: magic, cpu type/subtype, file type, command counts and flags.
// The 64-bit header appends one reserved word after this prefix; nothing
// in this package needs its value, so it isn't modeled here. Callers must
// still skip past it — HeaderSize64 accounts for it when locating the
// first load command.
type FileHeader struct {
	Magic        Magic
	CPU          uint32
	SubCPU       uint32
	Type         uint32
	NCommands    uint32
	SizeCommands uint32
	Flags        HeaderFlag
}

// HeaderSize32 and HeaderSize64 are the byte offsets from a remote image's
// header address to its first load command.
const (
	HeaderSize32 = 7 * 4
	HeaderSize64 = 8 * 4
)

// HeaderFlag is the mach_header flags bitfield. Only the bits this package
// cares about (or that are cheap and useful to report) are named.
type HeaderFlag uint32

const (
	NoUndefs         HeaderFlag = 0x1
	DyldLink         HeaderFlag = 0x4
	TwoLevel         HeaderFlag = 0x80
	WeakDefines      HeaderFlag = 0x8000
	PIE              HeaderFlag = 0x200000
	AppExtensionSafe HeaderFlag = 0x2000000
	// DylibInCache marks an image mapped in from the dyld shared cache.
	// This is the bit the scanner reports back as "from shared cache".
	DylibInCache HeaderFlag = 0x80000000
)

// FromSharedCache reports whether the image was loaded from the dyld
// shared cache.
func (f HeaderFlag) FromSharedCache() bool { return f&DylibInCache != 0 }

var headerFlagNames = []struct {
	bit  HeaderFlag
	name string
}{
	{NoUndefs, "NoUndefs"},
	{DyldLink, "DyldLink"},
	{TwoLevel, "TwoLevel"},
	{WeakDefines, "WeakDefines"},
	{PIE, "PIE"},
	{AppExtensionSafe, "AppExtensionSafe"},
	{DylibInCache, "DylibInCache"},
}

func (f HeaderFlag) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	for _, fl := range headerFlagNames {
		if f&fl.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += fl.name
	}
	if s == "" {
		return fmt.Sprintf("%#x", uint32(f))
	}
	return s
}
