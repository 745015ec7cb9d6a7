package session

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// IDs are ULIDs: 48-bit millisecond timestamp followed by 80 random bits,
// Crockford base32 encoded to 26 characters. IDs generated within the same
// millisecond embed an increasing sequence so they stay unique and sortable.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	idMu    sync.Mutex
	lastMS  uint64
	lastSeq uint16
)

// NewID returns a new ULID string.
func NewID() string {
	return newIDAt(time.Now())
}

func newIDAt(now time.Time) string {
	idMu.Lock()
	ms := uint64(now.UnixMilli())
	if ms == lastMS {
		lastSeq++
	} else {
		lastMS, lastSeq = ms, 0
	}
	seq := lastSeq
	idMu.Unlock()

	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], ms<<16)
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], seq)
	return encodeBase32(b)
}

// encodeBase32 writes the 128-bit value five bits at a time, most
// significant first; the leading character carries the top 3 bits.
func encodeBase32(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[0:8])
	lo := binary.BigEndian.Uint64(b[8:16])
	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
