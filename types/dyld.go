package types

// ImageInfoFormat discriminates the word width of a target's
// dyld_all_image_infos record. A process-information query reports which
// one applies; nothing about the querying process's own bitness can be
// assumed to carry over to the target.
type ImageInfoFormat int

const (
	Bits32 ImageInfoFormat = iota
	Bits64
)

// TaskDyldInfo is the descriptor a process-information query hands back:
// where the target's dyld_all_image_infos record lives, how big it is, and
// which word-width layout applies. This is the component-C contract —
// acquiring it is the host's job (task_info(TASK_DYLD_INFO) on Darwin).
type TaskDyldInfo struct {
	AllImageInfoAddr   uint64
	AllImageInfoSize   uint64
	AllImageInfoFormat ImageInfoFormat
}

// AllImageInfos64 is the leading, 8-byte-aligned prefix of
// dyld_all_image_infos as laid out for a 64-bit target. Only the fields a
// symbol walk needs are modeled; the padding fields exist purely to keep
// every later offset correct under natural C struct alignment.
type AllImageInfos64 struct {
	Version                         uint32
	InfoArrayCount                  uint32
	InfoArray                       uint64
	Notification                    uint64
	ProcessDetachedFromSharedRegion uint8
	LibSystemInitialized            uint8
	Pad                             [6]byte
	DyldImageLoadAddress            uint64
	JitInfo                         uint64
	DyldVersion                     uint64
	ErrorMessage                    uint64
	TerminationFlags                uint64
	CoreSymbolicationShmPage        uint64
	SystemOrderFlag                 uint64
	UUIDArrayCount                  uint64
	UUIDArray                       uint64
	DyldAllImageInfosAddress        uint64
	InitialImageCount               uint64
	ErrorKind                       uint64
	ErrorClientOfDylibPath          uint64
	ErrorTargetDylibPath            uint64
	ErrorSymbol                     uint64
	SharedCacheSlide                uint64
}

// ImageInfo64 is one dyld_image_info entry for a 64-bit target.
type ImageInfo64 struct {
	ImageLoadAddress uint64
	ImageFilePath    uint64
	ImageFileModDate uint64
}

// AllImageInfos32 is the 32-bit-target counterpart of AllImageInfos64,
// with every pointer-sized field narrowed to 4 bytes and padding adjusted
// to match 4-byte natural alignment instead of 8.
type AllImageInfos32 struct {
	Version                         uint32
	InfoArrayCount                  uint32
	InfoArray                       uint32
	Notification                    uint32
	ProcessDetachedFromSharedRegion uint8
	LibSystemInitialized            uint8
	Pad                             [2]byte
	DyldImageLoadAddress            uint32
	JitInfo                         uint32
	DyldVersion                     uint32
	ErrorMessage                    uint32
	TerminationFlags                uint32
	CoreSymbolicationShmPage        uint32
	SystemOrderFlag                 uint32
	UUIDArrayCount                  uint32
	UUIDArray                       uint32
	DyldAllImageInfosAddress        uint32
	InitialImageCount               uint32
	ErrorKind                       uint32
	ErrorClientOfDylibPath          uint32
	ErrorTargetDylibPath            uint32
	ErrorSymbol                     uint32
	SharedCacheSlide                uint32
}

// ImageInfo32 is one dyld_image_info entry for a 32-bit target.
type ImageInfo32 struct {
	ImageLoadAddress uint32
	ImageFilePath    uint32
	ImageFileModDate uint32
}
