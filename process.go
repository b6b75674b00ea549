package remotesym

import "github.com/appsworld/remotesym/types"

// Process is the host environment's read-only capability over a target
// process: a handle plus the two queries this package needs to make
// against it. Acquiring one — privilege escalation, task-port lookup, PID
// resolution — is entirely the caller's concern; remotesym never does
// anything but read through it.
//
// Implementations must be safe for the access pattern a single Lookup
// call uses (a linear sequence of reads); they need not be safe for
// concurrent use unless the caller intends to call Lookup concurrently
// with the same Process value.
type Process interface {
	// ReadMemory copies length bytes from addr in the target's address
	// space. A short read — fewer than length bytes available — must be
	// reported as an error, never returned as a shorter-than-requested
	// slice.
	ReadMemory(addr uint64, length int) ([]byte, error)

	// DyldInfo returns the address, size and word-width of the target's
	// dyld_all_image_infos record. This is the "image registry locator"
	// query (component C): a direct call into an OS-provided
	// process-information facility, whose exact shape is platform
	// specific but whose contract is always "where is the target's
	// dynamic-linker bookkeeping".
	DyldInfo() (types.TaskDyldInfo, error)
}
