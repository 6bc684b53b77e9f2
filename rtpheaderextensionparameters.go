package webrtc

// RTPHeaderExtensionParameter enables an application to determine whether a
// header extension is configured for use within an RTPSender or RTPReceiver,
// carried on an SDP media section's a=extmap attribute (RFC 8285).
type RTPHeaderExtensionParameter struct {
	URI string
	ID  int
}
