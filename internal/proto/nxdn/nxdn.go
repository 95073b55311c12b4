// Package nxdn implements the NXDN dispatcher entry: sync detection
// and the LICH (Link Information CHannel) header. The NXDN
// Viterbi/convolutional core is out of scope per spec.md §1.
package nxdn

import (
	"fmt"
	"sync"

	"github.com/arancormonk/dsd-neo-go/internal/trunk"
)

const FrameLength = 20 // bytes, voice/data frame

var (
	syncFSW48 = []byte{0xCD, 0xF5, 0x9C, 0x0C} // 4-byte FDMA sync prefix, RF voice
	syncFSW96 = []byte{0x37, 0x5C, 0x65, 0x37, 0x5C, 0x65} // 6-byte TDMA sync prefix
)

// DetectSync reports whether the leading bytes match an NXDN FDMA or
// TDMA sync pattern.
func DetectSync(data []byte) bool {
	return hasPrefix(data, syncFSW48) || hasPrefix(data, syncFSW96)
}

func hasPrefix(data, pattern []byte) bool {
	if len(data) < len(pattern) {
		return false
	}
	for i := range pattern {
		if data[i] != pattern[i] {
			return false
		}
	}
	return true
}

// LICH is the decoded Link Information CHannel header.
type LICH struct {
	RFCT byte // RF Channel Type
	FCT  byte // Function Channel Type
	Opt  byte // Option bits
	Dir  byte // Direction (0 = inbound, 1 = outbound)
}

// ParseLICH decodes a single already-FEC-corrected LICH octet.
func ParseLICH(b byte) LICH {
	return LICH{
		RFCT: (b >> 6) & 0x03,
		FCT:  (b >> 4) & 0x03,
		Opt:  (b >> 2) & 0x03,
		Dir:  (b >> 1) & 0x01,
	}
}

// String renders the LICH for diagnostics.
func (l LICH) String() string {
	return fmt.Sprintf("LICH{RFCT=%d FCT=%d Opt=%d Dir=%d}", l.RFCT, l.FCT, l.Opt, l.Dir)
}

// VertexKeyCache holds decrypted-key lookups by vertex ID, the
// per-protocol scratch state NXDN's trunking decode path attaches to a
// trunk.State extension slot rather than re-deriving on every frame.
type VertexKeyCache struct {
	mu   sync.RWMutex
	keys map[uint16]uint64
}

// NewVertexKeyCache creates an empty cache.
func NewVertexKeyCache() *VertexKeyCache {
	return &VertexKeyCache{keys: make(map[uint16]uint64)}
}

// Put installs the key for the given vertex ID.
func (c *VertexKeyCache) Put(vertexID uint16, key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[vertexID] = key
}

// Get returns the key for the given vertex ID, if cached.
func (c *VertexKeyCache) Get(vertexID uint16) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[vertexID]
	return key, ok
}

// Len reports how many vertex IDs are currently cached.
func (c *VertexKeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// vertexCacheFor returns the VertexKeyCache attached to st's
// ExtSlotNXDNVertexKeys slot, installing one on first use.
func vertexCacheFor(st *trunk.State) *VertexKeyCache {
	if v, ok := st.Ext(trunk.ExtSlotNXDNVertexKeys); ok {
		return v.(*VertexKeyCache)
	}
	c := NewVertexKeyCache()
	st.SetExt(trunk.ExtSlotNXDNVertexKeys, c, nil)
	return c
}

// CacheVertexKey installs a decrypted key for vertexID in st's NXDN
// vertex-key cache, creating the cache on first use.
func CacheVertexKey(st *trunk.State, vertexID uint16, key uint64) {
	vertexCacheFor(st).Put(vertexID, key)
}

// LookupVertexKey returns the cached key for vertexID, if any.
func LookupVertexKey(st *trunk.State, vertexID uint16) (uint64, bool) {
	return vertexCacheFor(st).Get(vertexID)
}
