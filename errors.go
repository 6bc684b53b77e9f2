package webrtc

import "errors"

// Sentinel errors surfaced synchronously from PeerConnection API calls
// (spec §7). Each is wrapped in one of the rtcerr typed errors at its call
// site so callers can type-switch on the error category.
//
// Per-packet errors (SRTP anti-replay, SRTP auth failure, STUN transaction
// timeout) never reach the caller as a Go error: the transport layer logs
// and drops them, matching spec §7's propagation policy. They are
// observable only through the state-change events on PeerConnection.
var (
	// ErrConnectionClosed is returned for any operation attempted on a
	// PeerConnection after Close has been called.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrCertificateExpired indicates a supplied Certificate's expiration
	// time has already passed.
	ErrCertificateExpired = errors.New("certificate expired")

	// ErrNoTurnCredentials indicates a TURN ICEServer was configured
	// without a username/credential pair.
	ErrNoTurnCredentials = errors.New("turn server credentials required")

	// ErrTurnCredentials indicates a TURN ICEServer's credential value did
	// not match its declared CredentialType.
	ErrTurnCredentials = errors.New("invalid turn server credentials")

	// ErrModifyingPeerIdentity indicates SetConfiguration attempted to
	// change the peerIdentity after it was already set.
	ErrModifyingPeerIdentity = errors.New("peerIdentity cannot be modified")

	// ErrModifyingCertificates indicates SetConfiguration attempted to
	// change the certificate set.
	ErrModifyingCertificates = errors.New("certificates cannot be modified")

	// ErrModifyingBundlePolicy indicates SetConfiguration attempted to
	// change the bundle policy after construction.
	ErrModifyingBundlePolicy = errors.New("bundle policy cannot be modified")

	// ErrModifyingRTCPMuxPolicy indicates SetConfiguration attempted to
	// change the rtcp-mux policy after construction.
	ErrModifyingRTCPMuxPolicy = errors.New("rtcp mux policy cannot be modified")

	// ErrModifyingICECandidatePoolSize indicates SetConfiguration attempted
	// to change the candidate pool size after the first local description
	// was set.
	ErrModifyingICECandidatePoolSize = errors.New("ice candidate pool size cannot be modified after setLocalDescription")

	// ErrNoRemoteDescription indicates AddICECandidate was called before
	// SetRemoteDescription.
	ErrNoRemoteDescription = errors.New("remote description is not set")

	// ErrSDPUnmarshalling indicates SessionDescription.Unmarshal could not
	// parse the carried SDP text.
	ErrSDPUnmarshalling = errors.New("failed to unmarshal SDP")

	// ErrSDPDoesNotMatchOffer indicates SetLocalDescription(offer) was
	// called with an SDP blob that does not match the last CreateOffer
	// output.
	ErrSDPDoesNotMatchOffer = errors.New("sdp does not match the last offer")

	// ErrSDPDoesNotMatchAnswer indicates SetLocalDescription(answer) was
	// called with an SDP blob that does not match the last CreateAnswer
	// output.
	ErrSDPDoesNotMatchAnswer = errors.New("sdp does not match the last answer")

	// ErrMaxDataChannelID indicates CreateDataChannel could not find a free
	// stream-id in the negotiated range.
	ErrMaxDataChannelID = errors.New("no free data channel id")

	// ErrRetransmitsOrPacketLifeTime indicates a DataChannelInit specified
	// both MaxRetransmits and MaxPacketLifeTime, which RFC 8831 forbids.
	ErrRetransmitsOrPacketLifeTime = errors.New("maxPacketLifeTime and maxRetransmits are mutually exclusive")

	// ErrExistingTrack indicates AddTrack was called with a track already
	// attached to a sender on this connection.
	ErrExistingTrack = errors.New("track already exists")

	// ErrSenderNotCreatedByConnection indicates RemoveTrack was called with
	// an RTPSender owned by a different PeerConnection.
	ErrSenderNotCreatedByConnection = errors.New("sender was not created by this connection")

	// ErrNoCodecsRegistered indicates CreateOffer/CreateAnswer could not
	// find any codec registered on the MediaEngine for a transceiver's kind.
	ErrNoCodecsRegistered = errors.New("no codecs registered for this kind")

	// ErrCodecNotFound indicates a payload type carried by an incoming RTP
	// packet has no matching entry in the MediaEngine codec table.
	ErrCodecNotFound = errors.New("codec not found")

	// ErrICETransportNotInNew indicates ICETransport.Start was called on a
	// transport that is not in ICETransportStateNew.
	ErrICETransportNotInNew = errors.New("ice transport can only be started from new state")

	// ErrDTLSTransportNotInNew indicates DTLSTransport.Start was called
	// while the transport was already connected or closed.
	ErrDTLSTransportNotInNew = errors.New("dtls transport can only be started from new state")

	// ErrNoFingerprint indicates a remote description had no DTLS
	// fingerprint attribute on the session or any media section.
	ErrNoFingerprint = errors.New("no dtls fingerprint in remote description")

	// ErrInvalidFingerprint indicates a fingerprint attribute was present
	// but malformed.
	ErrInvalidFingerprint = errors.New("malformed dtls fingerprint")

	// ErrSCTPTransportNotStarted indicates CreateDataChannel attempted to
	// open a channel before the SCTP association exists.
	ErrSCTPTransportNotStarted = errors.New("sctp transport not started")

	// ErrSCTPTransportDTLSNotEstablished indicates SCTPTransport.Start was
	// called before its DTLSTransport finished its handshake.
	ErrSCTPTransportDTLSNotEstablished = errors.New("dtls transport has not been established")

	// ErrClosedDataChannel indicates Send was called on a DataChannel whose
	// state is closing or closed.
	ErrClosedDataChannel = errors.New("data channel closed")

	// ErrICERestartOnAnswer records the invariant that an ICE restart may
	// only be triggered by a remote offer, never a remote answer (spec
	// §4.10).
	ErrICERestartOnAnswer = errors.New("ice restart cannot be triggered by a remote answer")

	// ErrMLineOrderChanged indicates a remote description reordered m-lines
	// relative to the previous negotiation, which violates RFC 3264.
	ErrMLineOrderChanged = errors.New("m-line order changed across renegotiation")

	// ErrUnknownType indicates an enum value's String() was called on an
	// unrecognized constant.
	ErrUnknownType = errors.New("unknown")

	// ErrNoSRTPProtectionProfile indicates the DTLS handshake negotiated
	// an SRTP protection profile this module has no pion/srtp mapping for.
	ErrNoSRTPProtectionProfile = errors.New("no matching srtp protection profile")

	// ErrNoRemoteCertificate indicates the remote peer completed a DTLS
	// handshake without presenting a certificate.
	ErrNoRemoteCertificate = errors.New("peer didn't provide certificate via dtls")

	// ErrNoMatchingFingerprint indicates a remote certificate presented
	// during the DTLS handshake matched none of the fingerprints carried
	// in the remote description.
	ErrNoMatchingFingerprint = errors.New("no matching fingerprint")

	// ErrICEConnectionNotStarted indicates DTLSTransport.Start was called
	// with no ICETransport, or while its ICETransport was still in the new
	// state.
	ErrICEConnectionNotStarted = errors.New("ice connection not started")

	// ErrUnknownICERole indicates ICETransport.Start was called with an
	// ICERole other than Controlling or Controlled.
	ErrUnknownICERole = errors.New("unknown ice role")

	// ErrICEAgentNotExist indicates an ICEGatherer method that requires an
	// active ice.Agent (GetLocalParameters, GetLocalCandidates) was called
	// before Gather.
	ErrICEAgentNotExist = errors.New("ice agent does not exist")

	// ErrPrivateKeyType indicates GenerateCertificate/NewCertificate was
	// given a private key that is neither *ecdsa.PrivateKey nor
	// *rsa.PrivateKey.
	ErrPrivateKeyType = errors.New("unsupported private key type")

	// errICECandidateTypeUnknown indicates ICECandidate.toICE was called on
	// a candidate whose Typ has no equivalent in github.com/pion/ice/v4.
	errICECandidateTypeUnknown = errors.New("unknown ice candidate typ")

	// errICEProtocolUnknown indicates NewICEProtocol was given a string
	// that is neither "udp" nor "tcp".
	errICEProtocolUnknown = errors.New("unknown ice protocol")

	// errInvalidICECredentialTypeString indicates ICECredentialType's
	// UnmarshalJSON received a non-empty string with no matching type.
	errInvalidICECredentialTypeString = errors.New("invalid ice credential type")

	// errRTPSenderTrackNil indicates NewRTPSender was called with a nil
	// TrackLocal.
	errRTPSenderTrackNil = errors.New("track is nil")

	// errRTPSenderDTLSTransportNil indicates NewRTPSender was called with
	// a nil DTLSTransport.
	errRTPSenderDTLSTransportNil = errors.New("dtls transport is nil")

	// errRTPSenderSendAlreadyCalled indicates RTPSender.Send was called
	// more than once on the same sender.
	errRTPSenderSendAlreadyCalled = errors.New("send has already been called")

	// ErrNoPayloaderForCodec indicates the MediaEngine has no registered
	// payloader for an RTPCodecCapability's MimeType.
	ErrNoPayloaderForCodec = errors.New("no payloader registered for codec")

	// ErrUnsupportedCodec indicates a TrackLocalStaticSample's codec
	// capability has no payloader able to packetize its samples.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrUnbindFailed indicates TrackLocalStaticSample.Unbind was called
	// for a binding that was never recorded.
	ErrUnbindFailed = errors.New("unbind failed, track is not bound to this sender")

	// ErrStringSizeLimit indicates a DataChannel was created with a label
	// longer than 65535 bytes.
	ErrStringSizeLimit = errors.New("data channel message size exceeds maximum")

	// ErrDataChannelNotOpen indicates Send/SendText was called on a
	// DataChannel that has not reached DataChannelStateOpen.
	ErrDataChannelNotOpen = errors.New("data channel not open")

	// errSDPZeroTransceivers indicates CreateOffer/CreateAnswer was called
	// on a PeerConnection with no transceivers, senders, or data channels
	// to describe.
	errSDPZeroTransceivers = errors.New("cannot create description with no transceivers")

	// errSDPMediaSectionMediaDataChanInvalid indicates a mediaSection
	// passed to populateSDP mixed a data-channel m-line with RTP codecs.
	errSDPMediaSectionMediaDataChanInvalid = errors.New("media section has both rtp and data codecs")

	// errSDPMediaSectionMultipleTrackInvalid indicates a plan-b mediaSection
	// carried tracks for more than one kind.
	errSDPMediaSectionMultipleTrackInvalid = errors.New("media section has multiple track kinds")

	// errSDPParseExtMap indicates a remote description's extmap attribute
	// could not be parsed by pion/sdp.
	errSDPParseExtMap = errors.New("failed to parse extmap")

	// errSDPRemoteDescriptionChangedExtMap indicates a renegotiation
	// changed the RTP header extension mapping for an existing m-line,
	// which RFC 8285 forbids mid-session.
	errSDPRemoteDescriptionChangedExtMap = errors.New("extmap cannot be changed after negotiation")

	// ErrSessionDescriptionNoFingerprint indicates a remote description had
	// no a=fingerprint at the session or media level.
	ErrSessionDescriptionNoFingerprint = errors.New("session description has no fingerprint")

	// ErrSessionDescriptionInvalidFingerprint indicates an a=fingerprint
	// value did not parse as "algorithm hex-digest".
	ErrSessionDescriptionInvalidFingerprint = errors.New("session description has invalid fingerprint")

	// ErrSessionDescriptionConflictingFingerprints indicates two media
	// sections carried different a=fingerprint values.
	ErrSessionDescriptionConflictingFingerprints = errors.New("session description has conflicting fingerprints")

	// ErrSessionDescriptionMissingIceUfrag indicates a media section had
	// no a=ice-ufrag attribute and none was inherited from the session.
	ErrSessionDescriptionMissingIceUfrag = errors.New("session description is missing ice-ufrag")

	// ErrSessionDescriptionMissingIcePwd indicates a media section had no
	// a=ice-pwd attribute and none was inherited from the session.
	ErrSessionDescriptionMissingIcePwd = errors.New("session description is missing ice-pwd")

	// ErrSessionDescriptionConflictingIceUfrag indicates two media
	// sections carried different a=ice-ufrag values outside a BUNDLE group.
	ErrSessionDescriptionConflictingIceUfrag = errors.New("session description has conflicting ice-ufrag")

	// ErrSessionDescriptionConflictingIcePwd indicates two media sections
	// carried different a=ice-pwd values outside a BUNDLE group.
	ErrSessionDescriptionConflictingIcePwd = errors.New("session description has conflicting ice-pwd")
)
