package pipeline

import (
	"crypto/rand"
	"sync"
	"time"
)

// Job IDs are ULIDs: a 48-bit millisecond timestamp followed by 80 random
// bits, Crockford base32 encoded into 26 characters. IDs minted within the
// same millisecond increment the random part so they stay sortable.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu   sync.Mutex
	lastMS   uint64
	lastRand [10]byte
)

func generateULID() string {
	return ulidAt(time.Now())
}

func ulidAt(t time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ms := uint64(t.UnixMilli())
	if ms <= lastMS {
		ms = lastMS
		incrementBytes(lastRand[:])
	} else {
		lastMS = ms
		rand.Read(lastRand[:])
	}

	var b [16]byte
	for i := 0; i < 6; i++ {
		b[i] = byte(ms >> (40 - 8*i))
	}
	copy(b[6:], lastRand[:])
	return encodeBase32(b)
}

// incrementBytes adds one to a big-endian integer, wrapping on overflow.
func incrementBytes(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return
		}
	}
}

// encodeBase32 writes 128 bits as 26 characters, most significant first. The
// leading character carries only the top 3 bits.
func encodeBase32(b [16]byte) string {
	var out [26]byte
	pos := 0

	// Two leading pad bits make 130, so every character holds a full group.
	acc, bits := uint32(0), uint(2)
	for _, v := range b {
		acc = acc<<8 | uint32(v)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = crockford[(acc>>bits)&31]
			pos++
		}
	}
	return string(out[:])
}
