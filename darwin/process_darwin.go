//go:build darwin

// Package darwin implements remotesym.Process against a live macOS
// process, binding task_for_pid, task_info and mach_vm_read_overwrite
// straight out of libsystem_kernel.dylib through purego — no cgo.
package darwin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"

	"github.com/appsworld/remotesym/types"
)

type (
	machPort   = uint32
	kernReturn = int32
	natural    = uint32
	vmAddress  = uint64
	vmSize     = uint64
)

const (
	taskDyldInfoFlavor natural    = 17 // TASK_DYLD_INFO, xnu/osfmk/mach/task_info.h
	taskDyldInfoCount  natural    = 5  // sizeof(task_dyld_info_data_t) / sizeof(natural_t)
	krSuccess          kernReturn = 0
)

var (
	machTaskSelf        func() machPort
	taskForPid          func(machPort, int32, *machPort) kernReturn
	taskInfoFn          func(machPort, natural, []byte, *natural) kernReturn
	machVmReadOverwrite func(machPort, vmAddress, vmSize, vmAddress, *vmSize) kernReturn
	machPortDeallocate  func(machPort, machPort) kernReturn
)

func init() {
	lib, err := purego.Dlopen("/usr/lib/system/libsystem_kernel.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return
	}
	purego.RegisterLibFunc(&machTaskSelf, lib, "mach_task_self")
	purego.RegisterLibFunc(&taskForPid, lib, "task_for_pid")
	purego.RegisterLibFunc(&taskInfoFn, lib, "task_info")
	purego.RegisterLibFunc(&machVmReadOverwrite, lib, "mach_vm_read_overwrite")
	purego.RegisterLibFunc(&machPortDeallocate, lib, "mach_port_deallocate")
}

// Process implements remotesym.Process against a live process reached
// through its Mach task port. Acquiring a task port for any pid other
// than the caller's own requires root or a signed, entitled caller; that
// privilege requirement belongs to whoever calls Open, not to this type.
type Process struct {
	task machPort
}

// Open acquires a task port for pid.
func Open(pid int) (*Process, error) {
	if taskForPid == nil {
		return nil, fmt.Errorf("darwin: libsystem_kernel.dylib unavailable")
	}
	var task machPort
	if kr := taskForPid(machTaskSelf(), int32(pid), &task); kr != krSuccess {
		return nil, fmt.Errorf("darwin: task_for_pid(%d): kern_return %d", pid, kr)
	}
	return &Process{task: task}, nil
}

// Self opens the calling process's own task, which never needs
// task_for_pid privilege.
func Self() (*Process, error) {
	return Open(unix.Getpid())
}

// Close releases the underlying task port.
func (p *Process) Close() error {
	if machPortDeallocate == nil {
		return nil
	}
	if kr := machPortDeallocate(machTaskSelf(), p.task); kr != krSuccess {
		return fmt.Errorf("darwin: mach_port_deallocate: kern_return %d", kr)
	}
	return nil
}

// ReadMemory implements remotesym.Process.
func (p *Process) ReadMemory(addr uint64, length int) ([]byte, error) {
	if machVmReadOverwrite == nil {
		return nil, fmt.Errorf("darwin: mach_vm_read_overwrite unavailable")
	}
	if length == 0 {
		return nil, nil
	}
	out := make([]byte, length)
	var outSize vmSize
	kr := machVmReadOverwrite(p.task, addr, vmSize(length), vmAddress(uintptr(unsafe.Pointer(&out[0]))), &outSize)
	if kr != krSuccess {
		return nil, fmt.Errorf("darwin: mach_vm_read_overwrite at %#x len %d: kern_return %d", addr, length, kr)
	}
	if outSize != vmSize(length) {
		return nil, fmt.Errorf("darwin: short read at %#x: got %d of %d bytes", addr, outSize, length)
	}
	return out, nil
}

// DyldInfo implements remotesym.Process via task_info(TASK_DYLD_INFO).
func (p *Process) DyldInfo() (types.TaskDyldInfo, error) {
	if taskInfoFn == nil {
		return types.TaskDyldInfo{}, fmt.Errorf("darwin: task_info unavailable")
	}
	buf := make([]byte, taskDyldInfoCount*4)
	count := taskDyldInfoCount
	if kr := taskInfoFn(p.task, taskDyldInfoFlavor, buf, &count); kr != krSuccess {
		return types.TaskDyldInfo{}, fmt.Errorf("darwin: task_info(TASK_DYLD_INFO): kern_return %d", kr)
	}

	var raw struct {
		AllImageInfoAddr   uint64
		AllImageInfoSize   uint64
		AllImageInfoFormat int32
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &raw); err != nil {
		return types.TaskDyldInfo{}, fmt.Errorf("darwin: decode task_dyld_info_data_t: %w", err)
	}

	format := types.Bits32
	if raw.AllImageInfoFormat == 1 {
		format = types.Bits64
	}
	return types.TaskDyldInfo{
		AllImageInfoAddr:   raw.AllImageInfoAddr,
		AllImageInfoSize:   raw.AllImageInfoSize,
		AllImageInfoFormat: format,
	}, nil
}
