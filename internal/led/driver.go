package led

// Driver abstracts an LED output sink.
type Driver interface {
	// Begin runs once before the first Write (handshake, strip reset).
	Begin() error
	// Write pushes one packed frame. len(frame) is the packer's capacity.
	Write(frame []byte) error
	// Close releases resources.
	Close() error
}

// Compact copies the first 3 bytes of each stride-sized slot of frame into
// dst, returning the packed RGB bytes for count LEDs.
func Compact(dst, frame []byte, count, stride int) []byte {
	dst = dst[:0]
	for i := 0; i < count; i++ {
		off := i * stride
		if off+3 > len(frame) {
			break
		}
		dst = append(dst, frame[off], frame[off+1], frame[off+2])
	}
	return dst
}
