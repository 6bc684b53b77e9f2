package webrtc

// Unknown is the zero value every enum type in this package converts to
// when constructed from an unrecognized wire string.
const Unknown = iota

const unknownStr = "unknown"
