package remotesym

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// readStruct performs a typed read of a fixed-size structure at a remote
// address: the component-A convenience on top of the raw ReadMemory
// primitive that every other component in this package funnels through.
func readStruct[T any](p Process, addr uint64, out *T) error {
	size := binary.Size(*out)
	if size <= 0 {
		return fmt.Errorf("remotesym: %T has no fixed wire size", *out)
	}
	buf, err := p.ReadMemory(addr, size)
	if err != nil {
		return fmt.Errorf("remotesym: read %d bytes at %#x: %w", size, addr, err)
	}
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, out)
}

// readArray reads len(out) contiguous, fixed-size elements starting at
// addr directly into out.
func readArray[T any](p Process, addr uint64, out []T) error {
	if len(out) == 0 {
		return nil
	}
	elemSize := binary.Size(out[0])
	if elemSize <= 0 {
		return fmt.Errorf("remotesym: %T has no fixed wire size", out[0])
	}
	buf, err := p.ReadMemory(addr, elemSize*len(out))
	if err != nil {
		return fmt.Errorf("remotesym: read %d-element array at %#x: %w", len(out), addr, err)
	}
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, out)
}
