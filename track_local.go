package webrtc

import (
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
)

// TrackLocal is an interface that is implemented by TrackLocalStaticRTP and TrackLocalStaticSample.
// A track that can be added to a PeerConnection and have its RTP packets
// written directly by the application.
type TrackLocal interface {
	// Bind should implement the way how the media data flows from the Track
	// to the PeerConnection. This will be called internally after a successful
	// negotiation and returns the codec that was used by the sender.
	Bind(TrackLocalContext) (RTPCodecParameters, error)

	// Unbind should implement the teardown logic when the track is no longer
	// needed. This happens because a track has been stopped.
	Unbind(TrackLocalContext) error

	// ID is the unique identifier for this Track. This should be unique for
	// the stream, but doesn't have to be globally unique.
	ID() string

	// StreamID is the group this track belongs to.
	StreamID() string

	// Kind controls if this TrackLocal is audio or video.
	Kind() RTPCodecType
}

// TrackLocalWriter is the Writer for outbound RTP Packets
type TrackLocalWriter interface {
	// WriteRTP writes a RTP Packet to the TrackLocalWriter
	WriteRTP(header *rtp.Header, payload []byte) (int, error)

	// Write writes a RTP Packet as a buffer to the TrackLocalWriter
	Write(b []byte) (int, error)
}

// TrackLocalContext is the Context passed when a TrackLocal has been Binded/Unbinded from a PeerConnection
type TrackLocalContext interface {
	// ID is a unique identifier that is used for both Bind/Unbind
	ID() string

	// CodecParameters returns the negotiated RTPCodecParameters. These are the
	// codecs supported by both peers, ordered by the remote's preference.
	CodecParameters() []RTPCodecParameters

	// HeaderExtensions returns the negotiated RTPHeaderExtensionParameters.
	HeaderExtensions() []RTPHeaderExtensionParameter

	// SSRC requires the SSRC of the Sender
	SSRC() SSRC

	// SSRCRetransmission requires the SSRC of the RTX stream, used for video NACK
	SSRCRetransmission() SSRC

	// SSRCForwardErrorCorrection requires the SSRC of the Forward Error Correction stream
	SSRCForwardErrorCorrection() SSRC

	// WriteStream returns the WriteStream for this TrackLocal. The implementer
	// writes to this WriteStream to send media.
	WriteStream() TrackLocalWriter

	// RTCPReader returns the RTCP interceptor for this TrackLocal. Used to
	// send PLI/NACK responses directly.
	RTCPReader() interceptor.RTCPReader
}

// baseTrackLocalContext is a skeleton TrackLocalContext used to construct
// trackBindings during Bind without importing RTPSender internals.
type baseTrackLocalContext struct {
	id                     string
	params                 RTPParameters
	ssrc, ssrcRTX, ssrcFEC SSRC
	writeStream            TrackLocalWriter
	rtcpInterceptor        interceptor.RTCPReader
}

func (t *baseTrackLocalContext) CodecParameters() []RTPCodecParameters { return t.params.Codecs }

func (t *baseTrackLocalContext) HeaderExtensions() []RTPHeaderExtensionParameter {
	return t.params.HeaderExtensions
}

func (t *baseTrackLocalContext) SSRC() SSRC                       { return t.ssrc }
func (t *baseTrackLocalContext) SSRCRetransmission() SSRC         { return t.ssrcRTX }
func (t *baseTrackLocalContext) SSRCForwardErrorCorrection() SSRC { return t.ssrcFEC }
func (t *baseTrackLocalContext) WriteStream() TrackLocalWriter    { return t.writeStream }
func (t *baseTrackLocalContext) ID() string                       { return t.id }

func (t *baseTrackLocalContext) RTCPReader() interceptor.RTCPReader { return t.rtcpInterceptor }
