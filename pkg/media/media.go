// Package media provides media writer and filters
package media

import (
	"time"

	"github.com/pion/rtp"
)

// Sample contains encoded media and the information required to packetize it
type Sample struct {
	Data               []byte
	Duration           time.Duration
	PacketTimestamp    uint32
	PrevDroppedPackets uint16

	// IsIFrame marks Data as a key frame. Nothing in this module reads it;
	// no RTP header extension is set from it.
	IsIFrame bool
}

// Writer defines an interface to handle the creation of media files
type Writer interface {
	// WriteRTP adds the content of an RTP packet to the media
	WriteRTP(packet *rtp.Packet) error
	// Close the media
	// Note: Close implementation must be idempotent
	Close() error
}
