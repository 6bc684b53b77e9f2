// +build !js

package webrtc

import (
	"errors"
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
)

// errRTPTooShort is returned when an incoming buffer is shorter than 2 bytes,
// too small to carry the payload type.
var errRTPTooShort = errors.New("packet is too short to contain a RTP header")

// TrackRemote represents a single inbound source of media
type TrackRemote struct {
	mu sync.RWMutex

	id       string
	streamID string

	payloadType PayloadType
	kind        RTPCodecType
	ssrc        SSRC
	ssrcRTX     SSRC
	rid         string
	codec       RTPCodecParameters
	params      RTPParameters

	receiver *RTPReceiver

	peeked           []byte
	peekedAttributes interceptor.Attributes

	interceptorRTPReader interceptor.RTPReader
}

func newTrackRemote(kind RTPCodecType, ssrc, ssrcRTX SSRC, rid string, receiver *RTPReceiver) *TrackRemote {
	t := &TrackRemote{
		kind:     kind,
		ssrc:     ssrc,
		ssrcRTX:  ssrcRTX,
		rid:      rid,
		receiver: receiver,
	}
	t.interceptorRTPReader = interceptor.RTPReaderFunc(t.readRTP)

	return t
}

func (t *TrackRemote) bindInterceptor() {
	headerExtensions := make([]interceptor.RTPHeaderExtension, 0, len(t.params.HeaderExtensions))
	for _, h := range t.params.HeaderExtensions {
		headerExtensions = append(headerExtensions, interceptor.RTPHeaderExtension{ID: h.ID, URI: h.URI})
	}
	feedbacks := make([]interceptor.RTCPFeedback, 0, len(t.codec.RTCPFeedback))
	for _, f := range t.codec.RTCPFeedback {
		feedbacks = append(feedbacks, interceptor.RTCPFeedback{Type: f.Type, Parameter: f.Parameter})
	}
	info := &interceptor.StreamInfo{
		ID:                  t.id,
		Attributes:          interceptor.Attributes{},
		SSRC:                uint32(t.ssrc),
		SSRCRetransmission:  uint32(t.ssrcRTX),
		PayloadType:         uint8(t.payloadType),
		RTPHeaderExtensions: headerExtensions,
		MimeType:            t.codec.MimeType,
		ClockRate:           t.codec.ClockRate,
		Channels:            t.codec.Channels,
		SDPFmtpLine:         t.codec.SDPFmtpLine,
		RTCPFeedback:        feedbacks,
	}
	t.interceptorRTPReader = t.receiver.api.interceptor.BindRemoteStream(info, interceptor.RTPReaderFunc(t.readRTP))
}

// ID is the unique identifier for this Track. This should be unique for the
// stream, but doesn't have to globally unique. A common example would be 'audio' or 'video'
// and StreamID would be 'desktop' or 'webcam'
func (t *TrackRemote) ID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

// RID gets the RTP Stream ID of this Track
// With Simulcast you will have multiple tracks with the same ID, but different RID values.
// In many cases a TrackRemote will not have an RID, so it is important to assert it is non-zero
func (t *TrackRemote) RID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.rid
}

// PayloadType gets the PayloadType of the track
func (t *TrackRemote) PayloadType() PayloadType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.payloadType
}

// Kind gets the Kind of the track
func (t *TrackRemote) Kind() RTPCodecType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.kind
}

// StreamID is the group this track belongs too. This must be unique
func (t *TrackRemote) StreamID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.streamID
}

// SSRC gets the SSRC of the track
func (t *TrackRemote) SSRC() SSRC {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ssrc
}

// SSRCRetransmission gets the SSRC of the associated RTX repair stream, or 0
// if none was negotiated
func (t *TrackRemote) SSRCRetransmission() SSRC {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ssrcRTX
}

// Msid gets the Msid of the track
func (t *TrackRemote) Msid() string {
	return t.StreamID() + " " + t.ID()
}

// Codec gets the Codec of the track
func (t *TrackRemote) Codec() RTPCodecParameters {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.codec
}

// checkAndUpdateTrack takes a RTP packet and if it doesn't match the
// PayloadType it already knows about, a lookup is performed. A buffer
// shorter than 2 bytes (too short to hold the payload type) returns
// errRTPTooShort; the rest of the header is not checked here. A
// PayloadType that can't be matched to a codec returns ErrCodecNotFound.
func (t *TrackRemote) checkAndUpdateTrack(b []byte) error {
	if len(b) < 2 {
		return errRTPTooShort
	}

	payloadType := PayloadType(b[1] & 0x7F)

	t.mu.RLock()
	same := payloadType == t.payloadType
	t.mu.RUnlock()
	if same {
		return nil
	}

	codec, _, err := t.receiver.api.mediaEngine.getCodecByPayload(payloadType)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.payloadType = payloadType
	t.codec = codec
	t.mu.Unlock()

	return nil
}

// Read reads data from the track.
func (t *TrackRemote) Read(b []byte) (n int, attributes interceptor.Attributes, err error) {
	t.mu.RLock()
	r := t.receiver
	peeked := t.peeked != nil
	t.mu.RUnlock()

	if peeked {
		t.mu.Lock()
		data := t.peeked
		attributes = t.peekedAttributes
		t.peeked = nil
		t.peekedAttributes = nil
		t.mu.Unlock()
		// someone else may have stolen our packet when we
		// released the lock.  Deal with it.
		if data != nil {
			n = copy(b, data)
			return
		}
	}

	n, attributes, err = r.readRTP(b, t)
	if err != nil {
		return
	}

	if err = t.checkAndUpdateTrack(b[:n]); err != nil {
		return
	}

	return
}

// peek is like Read, but it doesn't discard the packet read
func (t *TrackRemote) peek(b []byte) (n int, a interceptor.Attributes, err error) {
	n, a, err = t.Read(b)
	if err != nil {
		return
	}

	t.mu.Lock()
	// this might overwrite data if somebody peeked between the Read
	// and us getting the lock.  Oh well, we'll just drop a packet in
	// that case.
	data := make([]byte, n)
	n = copy(data, b[:n])
	t.peeked = data
	t.peekedAttributes = a
	t.mu.Unlock()
	return
}

// ReadRTP is a convenience method that wraps Read and unmarshals for you.
// It also runs any configured interceptors.
func (t *TrackRemote) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	b := make([]byte, receiveMTU)
	n, attrs, err := t.peek(b)
	if err != nil {
		return nil, nil, err
	}

	p := &rtp.Packet{}
	if err := p.Unmarshal(b[:n]); err != nil {
		return nil, nil, err
	}
	return p, attrs, nil
}

func (t *TrackRemote) readRTP() (*rtp.Packet, interceptor.Attributes, error) {
	b := make([]byte, receiveMTU)
	n, attrs, err := t.Read(b)
	if err != nil {
		return nil, nil, err
	}

	r := &rtp.Packet{}
	if err := r.Unmarshal(b[:n]); err != nil {
		return nil, nil, err
	}
	return r, attrs, nil
}

// determinePayloadType blocks and reads a single packet to determine the PayloadType for this Track
// this is useful because we can't announce it to the user until we know the payloadType
func (t *TrackRemote) determinePayloadType() error {
	b := make([]byte, receiveMTU)
	n, _, err := t.peek(b)
	if err != nil {
		return err
	}

	return t.checkAndUpdateTrack(b[:n])
}

// SetReadDeadline sets the deadline for the underlying RTP stream
func (t *TrackRemote) SetReadDeadline(dl time.Time) error {
	t.mu.RLock()
	r := t.receiver
	t.mu.RUnlock()

	return r.setReadDeadline(dl, t)
}
