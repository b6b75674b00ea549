package types

import "fmt"

// LoadCmd identifies a Mach-O load command.
type LoadCmd uint32

const (
	LC_SEGMENT    LoadCmd = 0x1
	LC_SYMTAB     LoadCmd = 0x2
	LC_SEGMENT_64 LoadCmd = 0x19
)

func (c LoadCmd) String() string {
	switch c {
	case LC_SEGMENT:
		return "LC_SEGMENT"
	case LC_SYMTAB:
		return "LC_SYMTAB"
	case LC_SEGMENT_64:
		return "LC_SEGMENT_64"
	default:
		return fmt.Sprintf("LC_%#x", uint32(c))
	}
}

// LoadCmdHeader is the two-field prefix common to every load command: its
// tag and its total size in bytes, the latter used to step to the next
// command without knowing the specific shape of this one.
type LoadCmdHeader struct {
	Cmd     LoadCmd
	CmdSize uint32
}

// Conventional segment names carried in a fixed 16-byte NUL-padded field.
const (
	SegNameText     = "__TEXT"
	SegNameLinkedit = "__LINKEDIT"
)

// Segment32 is a 32-bit LC_SEGMENT command.
type Segment32 struct {
	LoadCmdHeader
	Name     [16]byte
	VMAddr   uint32
	VMSize   uint32
	FileOff  uint32
	FileSize uint32
	MaxProt  uint32
	InitProt uint32
	NSects   uint32
	Flags    uint32
}

// Segment64 is a 64-bit LC_SEGMENT_64 command.
type Segment64 struct {
	LoadCmdHeader
	Name     [16]byte
	VMAddr   uint64
	VMSize   uint64
	FileOff  uint64
	FileSize uint64
	MaxProt  uint32
	InitProt uint32
	NSects   uint32
	Flags    uint32
}

// SymtabCmd is the LC_SYMTAB command. Its layout, unlike segment commands,
// is identical for both word widths: it only ever carries file offsets and
// counts, never a pointer-sized field.
type SymtabCmd struct {
	LoadCmdHeader
	SymOff  uint32
	NSyms   uint32
	StrOff  uint32
	StrSize uint32
}
