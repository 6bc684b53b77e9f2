package webrtc

// RTCPMuxPolicy affects what ICE candidates are gathered to support
// non-multiplexed RTCP.
type RTCPMuxPolicy int

const (
	// RTCPMuxPolicyNegotiate gathers ICE candidates for both RTP and RTCP
	// candidates. If the remote endpoint is capable of multiplexing RTCP,
	// RTCP is multiplexed on the RTP candidates; otherwise both candidate
	// sets are used separately.
	RTCPMuxPolicyNegotiate RTCPMuxPolicy = iota + 1

	// RTCPMuxPolicyRequire gathers ICE candidates only for RTP and
	// multiplexes RTCP on the RTP candidates. Negotiation fails if the
	// remote endpoint is not capable of rtcp-mux.
	RTCPMuxPolicyRequire
)

const (
	rtcpMuxPolicyNegotiateStr = "negotiate"
	rtcpMuxPolicyRequireStr   = "require"
)

// newRTCPMuxPolicy converts a wire/config string into an RTCPMuxPolicy.
func newRTCPMuxPolicy(raw string) RTCPMuxPolicy {
	switch raw {
	case rtcpMuxPolicyNegotiateStr:
		return RTCPMuxPolicyNegotiate
	case rtcpMuxPolicyRequireStr:
		return RTCPMuxPolicyRequire
	default:
		return RTCPMuxPolicy(Unknown)
	}
}

func (t RTCPMuxPolicy) String() string {
	switch t {
	case RTCPMuxPolicyNegotiate:
		return rtcpMuxPolicyNegotiateStr
	case RTCPMuxPolicyRequire:
		return rtcpMuxPolicyRequireStr
	default:
		return ErrUnknownType.Error()
	}
}
