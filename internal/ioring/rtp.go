package ioring

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/rtp"

	"github.com/arancormonk/dsd-neo-go/internal/ring"
)

// Stream tracks one RTP SSRC's worth of inbound IQ samples. Each
// SSRC first seen on the socket is assigned a stream ID, the way the
// teacher hands every session a uuid.New().String() identity.
type Stream struct {
	ID      string
	SSRC    uint32
	Packets uint64
}

// Receiver demultiplexes RTP packets arriving on a multicast socket by
// SSRC and feeds their payload, interpreted as little-endian
// interleaved int16 IQ samples, into an IqRing.
type Receiver struct {
	conn *net.UDPConn
	iq   *ring.IqRing

	mu      sync.Mutex
	streams map[uint32]*Stream
}

// NewReceiver wraps a socket obtained from JoinMulticast.
func NewReceiver(conn *net.UDPConn, iq *ring.IqRing) *Receiver {
	return &Receiver{
		conn:    conn,
		iq:      iq,
		streams: make(map[uint32]*Stream),
	}
}

// Streams returns a snapshot of every SSRC seen so far.
func (r *Receiver) Streams() []Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stream, 0, len(r.streams))
	for _, s := range r.streams {
		out = append(out, *s)
	}
	return out
}

func (r *Receiver) streamFor(ssrc uint32) *Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[ssrc]
	if !ok {
		s = &Stream{ID: uuid.New().String(), SSRC: ssrc}
		r.streams[ssrc] = s
	}
	return s
}

// Run reads RTP packets until the socket is closed, converting each
// packet's payload into IQ samples and writing them into the ring.
// It returns nil when the socket closes cleanly (the expected shutdown
// path: closing conn from another goroutine unblocks ReadFromUDP).
func (r *Receiver) Run() error {
	buf := make([]byte, 65536)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if isClosedConnError(err) {
				return nil
			}
			return fmt.Errorf("ioring: read udp: %w", err)
		}
		if n < 12 {
			continue
		}

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			log.Printf("ioring: discarding malformed rtp packet: %v", err)
			continue
		}

		stream := r.streamFor(pkt.SSRC)
		samples := payloadToIQ(pkt.Payload)
		if len(samples) == 0 {
			continue
		}
		if _, ok := r.iq.Write(samples, ring.SignalOnEmptyTransition); !ok {
			return nil
		}
		r.mu.Lock()
		stream.Packets++
		r.mu.Unlock()
	}
}

func payloadToIQ(payload []byte) []int16 {
	n := len(payload) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	return out
}

func isClosedConnError(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
