// +build !js

package webrtc

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/logging"
	"github.com/pion/rtcp"
	"github.com/pion/srtp/v3"
)

// trackStreams holds the SRTP/SRTCP plumbing for a single encoding of a
// received track. A simulcast receiver carries one of these per RID.
type trackStreams struct {
	track *TrackRemote

	rtpReadStream  *srtp.ReadStreamSRTP
	rtpInterceptor interceptor.RTPReader

	rtcpReadStream  *srtp.ReadStreamSRTCP
	rtcpInterceptor interceptor.RTCPReader

	repairReadStream  *srtp.ReadStreamSRTP
	repairInterceptor interceptor.RTPReader
}

// RTPReceiver allows an application to inspect the receipt of a Track
type RTPReceiver struct {
	kind      RTPCodecType
	transport *DTLSTransport

	tracks []trackStreams

	closedChan chan any
	received   chan any
	mu         sync.RWMutex

	rtxPool sync.Pool

	log logging.LeveledLogger

	// A reference to the associated api object
	api *API
}

// NewRTPReceiver constructs a new RTPReceiver
func (api *API) NewRTPReceiver(kind RTPCodecType, transport *DTLSTransport) (*RTPReceiver, error) {
	if transport == nil {
		return nil, fmt.Errorf("DTLSTransport must not be nil")
	}

	return &RTPReceiver{
		kind:       kind,
		transport:  transport,
		api:        api,
		closedChan: make(chan any),
		received:   make(chan any),
		rtxPool: sync.Pool{
			New: func() any {
				return make([]byte, receiveMTU)
			},
		},
		log: api.settingEngine.LoggerFactory.NewLogger("rtpreceiver"),
	}, nil
}

// Transport returns the currently-configured *DTLSTransport or nil
// if one has not yet been configured
func (r *RTPReceiver) Transport() *DTLSTransport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transport
}

// Track returns the RTPTransceiver track. With Simulcast this is the first
// encoding, use Tracks to get all of them.
func (r *RTPReceiver) Track() *TrackRemote {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.tracks) == 0 {
		return nil
	}
	return r.tracks[0].track
}

// Tracks returns the RTPTransceiver tracks, one per encoding. With
// Simulcast there will be multiple tracks, one per RID.
func (r *RTPReceiver) Tracks() []*TrackRemote {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tracks := make([]*TrackRemote, 0, len(r.tracks))
	for i := range r.tracks {
		tracks = append(tracks, r.tracks[i].track)
	}
	return tracks
}

// configureReceive sets up a track per encoding described by parameters.
// It does not open any SRTP streams; receiveForRid and receiveForRtx do
// that once the encoding's SSRC/RID has actually been observed.
func (r *RTPReceiver) configureReceive(parameters RTPReceiveParameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(parameters.Encodings) == 0 {
		return fmt.Errorf("no encodings provided")
	}

	select {
	case <-r.received:
		return fmt.Errorf("Receive has already been called")
	default:
	}

	r.tracks = make([]trackStreams, len(parameters.Encodings))
	for i, enc := range parameters.Encodings {
		r.tracks[i] = trackStreams{
			track: newTrackRemote(r.kind, enc.SSRC, enc.RTX.SSRC, enc.RID, r),
		}
	}

	return nil
}

func (r *RTPReceiver) findTrackByRid(rid string) int {
	for i := range r.tracks {
		if r.tracks[i].track.RID() == rid {
			return i
		}
	}
	return -1
}

func (r *RTPReceiver) findTrackBySSRC(ssrc SSRC) int {
	for i := range r.tracks {
		if r.tracks[i].track.SSRC() == ssrc || r.tracks[i].track.SSRCRetransmission() == ssrc {
			return i
		}
	}
	return -1
}

// receiveForRid opens (or, in tests, adopts already-opened) SRTP/RTCP
// streams for the encoding identified by rid. It does not close
// r.received; the caller does that once the receiver is set up. A nil rtpReadStream/rtpInterceptor pair causes a real
// SRTP session to be opened against the receiver's transport; non-nil
// values are used as-is, which lets tests inject fakes without a live
// DTLS/SRTP session.
func (r *RTPReceiver) receiveForRid(
	rid string,
	params RTPParameters,
	streamInfo *interceptor.StreamInfo,
	rtpReadStream *srtp.ReadStreamSRTP,
	rtpInterceptor interceptor.RTPReader,
	rtcpReadStream *srtp.ReadStreamSRTCP,
	rtcpInterceptor interceptor.RTCPReader,
	_ any, // reserved for a future frame-transform hook, unused
) (*TrackRemote, error) {
	select {
	case <-r.closedChan:
		return nil, io.EOF
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.findTrackByRid(rid)
	if idx < 0 && streamInfo != nil {
		idx = r.findTrackBySSRC(SSRC(streamInfo.SSRC))
	}
	if idx < 0 {
		return nil, fmt.Errorf("no encoding registered for rid %q", rid)
	}

	ts := &r.tracks[idx]
	track := ts.track

	if rtpReadStream == nil && rtpInterceptor == nil && r.transport != nil && streamInfo != nil {
		srtpSession, err := r.transport.getSRTPSession()
		if err != nil {
			return nil, err
		}

		rtpReadStream, err = srtpSession.OpenReadStream(streamInfo.SSRC)
		if err != nil {
			return nil, err
		}

		srtcpSession, err := r.transport.getSRTCPSession()
		if err != nil {
			return nil, err
		}

		rtcpReadStream, err = srtcpSession.OpenReadStream(streamInfo.SSRC)
		if err != nil {
			return nil, err
		}
	}

	ts.rtpReadStream = rtpReadStream
	ts.rtcpReadStream = rtcpReadStream
	ts.rtcpInterceptor = rtcpInterceptor

	switch {
	case rtpInterceptor != nil:
		ts.rtpInterceptor = rtpInterceptor
	case r.api != nil:
		track.mu.Lock()
		track.params = params
		if len(params.Codecs) > 0 {
			track.codec = params.Codecs[0]
			track.payloadType = params.Codecs[0].PayloadType
		}
		track.mu.Unlock()
		track.bindInterceptor()
		ts.rtpInterceptor = track.interceptorRTPReader
	case rtpReadStream != nil:
		ts.rtpInterceptor = interceptor.RTPReaderFunc(
			func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
				n, err := rtpReadStream.Read(b)
				return n, a, err
			},
		)
	}

	return track, nil
}

// receiveForRtx binds the RTX/repair stream for an already-configured
// encoding, identified either by its RTX ssrc or, if ssrc is zero, by rid.
func (r *RTPReceiver) receiveForRtx(
	ssrc SSRC,
	rid string,
	streamInfo *interceptor.StreamInfo,
	repairReadStream *srtp.ReadStreamSRTP,
	rtpInterceptor interceptor.RTPReader,
	_, _ any,
) error {
	select {
	case <-r.closedChan:
		return io.EOF
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	if ssrc != 0 {
		idx = r.findTrackBySSRC(ssrc)
	}
	if idx < 0 && rid != "" {
		idx = r.findTrackByRid(rid)
	}
	if idx < 0 {
		return fmt.Errorf("no encoding registered for rtx ssrc %d rid %q", ssrc, rid)
	}

	ts := &r.tracks[idx]
	ts.repairReadStream = repairReadStream
	ts.repairInterceptor = rtpInterceptor

	if repairReadStream == nil && rtpInterceptor == nil && r.transport != nil && streamInfo != nil {
		srtpSession, err := r.transport.getSRTPSession()
		if err != nil {
			return err
		}

		ts.repairReadStream, err = srtpSession.OpenReadStream(streamInfo.SSRCRetransmission)
		if err != nil {
			return err
		}
	}

	return nil
}

// readRTX drains a single packet from track's RTX/repair stream, if one has
// been configured. It is safe to call concurrently with Stop and with other
// readRTX calls.
func (r *RTPReceiver) readRTX(track *TrackRemote) error {
	r.mu.RLock()
	idx := -1
	for i := range r.tracks {
		if r.tracks[i].track == track {
			idx = i
			break
		}
	}
	var repairInterceptor interceptor.RTPReader
	if idx >= 0 {
		repairInterceptor = r.tracks[idx].repairInterceptor
	}
	r.mu.RUnlock()

	if idx < 0 {
		return fmt.Errorf("unknown track")
	}
	if repairInterceptor == nil {
		return nil
	}

	select {
	case <-r.closedChan:
		return io.ErrClosedPipe
	case <-r.received:
	}

	buf, _ := r.rtxPool.Get().([]byte)
	defer r.rtxPool.Put(buf) //nolint:staticcheck

	_, _, err := repairInterceptor.Read(buf, interceptor.Attributes{})
	return err
}

// readRTP is called by a TrackRemote to pull its next RTP packet. It blocks
// until r.received is closed or the receiver is stopped.
func (r *RTPReceiver) readRTP(b []byte, reader *TrackRemote) (n int, a interceptor.Attributes, err error) {
	select {
	case <-r.closedChan:
		return 0, nil, io.ErrClosedPipe
	case <-r.received:
	}

	r.mu.RLock()
	idx := -1
	for i := range r.tracks {
		if r.tracks[i].track == reader {
			idx = i
			break
		}
	}
	var rtpInterceptor interceptor.RTPReader
	if idx >= 0 {
		rtpInterceptor = r.tracks[idx].rtpInterceptor
	}
	r.mu.RUnlock()

	if idx < 0 {
		return 0, nil, fmt.Errorf("unknown track")
	}
	if rtpInterceptor == nil {
		return 0, nil, io.EOF
	}

	return rtpInterceptor.Read(b, interceptor.Attributes{})
}

// Read reads incoming RTCP for this RTPReceiver
func (r *RTPReceiver) Read(b []byte) (n int, err error) {
	select {
	case <-r.closedChan:
		return 0, io.ErrClosedPipe
	case <-r.received:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.tracks) == 0 || r.tracks[0].rtcpReadStream == nil {
		return 0, io.EOF
	}
	return r.tracks[0].rtcpReadStream.Read(b)
}

// ReadRTCP is a convenience method that wraps Read and unmarshals for you
func (r *RTPReceiver) ReadRTCP() ([]rtcp.Packet, error) {
	b := make([]byte, receiveMTU)
	i, err := r.Read(b)
	if err != nil {
		return nil, err
	}

	return rtcp.Unmarshal(b[:i])
}

// SetReadDeadline sets the max amount of time the RTCP stream will block
// before returning. 0 is forever.
func (r *RTPReceiver) SetReadDeadline(t time.Time) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.tracks) == 0 || r.tracks[0].rtcpReadStream == nil {
		return fmt.Errorf("rtcp stream is not open")
	}
	return r.tracks[0].rtcpReadStream.SetReadDeadline(t)
}

// setReadDeadline sets the read deadline on the RTP stream backing track.
func (r *RTPReceiver) setReadDeadline(t time.Time, track *TrackRemote) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.tracks {
		if r.tracks[i].track == track {
			if r.tracks[i].rtpReadStream == nil {
				return fmt.Errorf("rtp stream is not open")
			}
			return r.tracks[i].rtpReadStream.SetReadDeadline(t)
		}
	}
	return fmt.Errorf("unknown track")
}

// Stop irreversibly stops the RTPReceiver
func (r *RTPReceiver) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.closedChan:
		return nil
	default:
	}

	select {
	case <-r.received:
		for i := range r.tracks {
			if r.tracks[i].rtcpReadStream != nil {
				if err := r.tracks[i].rtcpReadStream.Close(); err != nil {
					return err
				}
			}
			if r.tracks[i].rtpReadStream != nil {
				if err := r.tracks[i].rtpReadStream.Close(); err != nil {
					return err
				}
			}
			if r.tracks[i].repairReadStream != nil {
				if err := r.tracks[i].repairReadStream.Close(); err != nil {
					return err
				}
			}
		}
	default:
	}

	close(r.closedChan)
	return nil
}
