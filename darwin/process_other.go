//go:build !darwin

package darwin

import (
	"fmt"
	"runtime"

	"github.com/appsworld/remotesym/types"
)

// Process is an unsupported-platform stand-in so callers can reference
// darwin.Process in platform-agnostic code; every method fails.
type Process struct{}

// Open always fails outside darwin.
func Open(pid int) (*Process, error) {
	return nil, fmt.Errorf("darwin: unsupported on %s", runtime.GOOS)
}

// Self always fails outside darwin.
func Self() (*Process, error) {
	return nil, fmt.Errorf("darwin: unsupported on %s", runtime.GOOS)
}

func (p *Process) Close() error { return nil }

func (p *Process) ReadMemory(addr uint64, length int) ([]byte, error) {
	return nil, fmt.Errorf("darwin: unsupported on %s", runtime.GOOS)
}

func (p *Process) DyldInfo() (types.TaskDyldInfo, error) {
	return types.TaskDyldInfo{}, fmt.Errorf("darwin: unsupported on %s", runtime.GOOS)
}
