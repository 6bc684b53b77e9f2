package webrtc

// ICEParameters includes the ICE username fragment and password and other
// ICE-related parameters, carried on an SDP media section's a=ice-ufrag and
// a=ice-pwd attributes (RFC 8839 §5.4).
type ICEParameters struct {
	UsernameFragment string `json:"usernameFragment"`
	Password         string `json:"password"`
	ICELite          bool   `json:"iceLite"`
}
