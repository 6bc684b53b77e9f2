package webrtc

import "github.com/pion/ice/v4"

// Configuration defines a set of parameters to configure how the
// peer-to-peer communication via PeerConnection is established or
// re-established (spec §9 RtcConfiguration, W3C §4.2.1).
type Configuration struct {
	// ICEServers defines a slice describing servers available to be used by
	// ICE, such as STUN and TURN servers.
	ICEServers []ICEServer

	// ICETransportPolicy indicates which candidates the ICEAgent is allowed
	// to use.
	ICETransportPolicy ICETransportPolicy

	// BundlePolicy indicates which media-bundling policy to use when
	// gathering ICE candidates and negotiating transports (spec §4.10
	// findOrCreateTransport).
	BundlePolicy BundlePolicy

	// RTCPMuxPolicy indicates which rtcp-mux policy to use. This module
	// always requires rtcp-mux (RTCPMuxPolicyRequire); the field is kept
	// for API parity with W3C and to reject configurations that ask for
	// anything else.
	RTCPMuxPolicy RTCPMuxPolicy

	// PeerIdentity sets the target peer identity for the PeerConnection.
	PeerIdentity string

	// Certificates describes a set of certificates the PeerConnection uses
	// to authenticate its DTLS handshake. If empty, a self-signed
	// ECDSA-P256 certificate is generated per spec §6 "Persisted state".
	Certificates []Certificate

	// ICECandidatePoolSize describes the size of the prefetched ICE
	// candidate pool.
	ICECandidatePoolSize uint8

	// SDPSemantics controls whether offers/answers use unified-plan,
	// plan-b, or unified-plan-with-fallback m-line layout.
	SDPSemantics SDPSemantics
}

// getICEServers converts the configured ICEServer values into the URL type
// pion/ice's Agent accepts when building its gather options.
func (c Configuration) getICEServers() ([]*ice.URL, error) {
	var iceServers []*ice.URL
	for _, server := range c.ICEServers {
		for _, rawURL := range server.URLs {
			url, err := ice.ParseURL(rawURL)
			if err != nil {
				return nil, err
			}
			if server.Username != "" {
				url.Username = server.Username
			}
			if cred, ok := server.Credential.(string); ok {
				url.Password = cred
			}
			iceServers = append(iceServers, url)
		}
	}
	return iceServers, nil
}
