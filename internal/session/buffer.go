package session

import "sync"

// defaultBufferSize is the default maximum rolling output buffer size (1 MB).
const defaultBufferSize = 1024 * 1024

// OutputBuffer is a thread-safe rolling byte buffer holding recent terminal
// output for replay to late-joining clients. When the buffer exceeds maxLen,
// older data is trimmed from the front (newest wins).
type OutputBuffer struct {
	mu     sync.Mutex
	data   []byte
	maxLen int
}

// NewOutputBuffer creates a rolling buffer with the given maximum size.
// If maxLen <= 0, defaultBufferSize is used.
func NewOutputBuffer(maxLen int) *OutputBuffer {
	if maxLen <= 0 {
		maxLen = defaultBufferSize
	}
	return &OutputBuffer{maxLen: maxLen}
}

// Write appends data, trimming from the front if the total exceeds maxLen.
func (b *OutputBuffer) Write(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	if len(b.data) > b.maxLen {
		b.data = b.data[len(b.data)-b.maxLen:]
	}
}

// Snapshot returns a copy of the current buffer contents.
func (b *OutputBuffer) Snapshot() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]byte, len(b.data))
	copy(result, b.data)
	return result
}

// Len returns the current buffer length.
func (b *OutputBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
