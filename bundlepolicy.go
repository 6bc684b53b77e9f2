package webrtc

// BundlePolicy affects which media tracks are negotiated if the remote
// endpoint is not bundle-aware, and what ICE candidates are gathered. If the
// remote endpoint is bundle-aware, all media tracks and data channels are
// bundled onto the same transport (spec §4.10 findOrCreateTransport).
type BundlePolicy int

const (
	// BundlePolicyBalanced gathers ICE candidates for each media type in
	// use (audio, video, and data). If the remote endpoint is not
	// bundle-aware, only one audio and one video track are negotiated on
	// separate transports.
	BundlePolicyBalanced BundlePolicy = iota + 1

	// BundlePolicyMaxCompat gathers ICE candidates for each track. If the
	// remote endpoint is not bundle-aware, all media tracks are negotiated
	// on separate transports.
	BundlePolicyMaxCompat

	// BundlePolicyMaxBundle gathers ICE candidates for only one track. If
	// the remote endpoint is not bundle-aware, only one media track is
	// negotiated.
	BundlePolicyMaxBundle
)

const (
	bundlePolicyBalancedStr  = "balanced"
	bundlePolicyMaxCompatStr = "max-compat"
	bundlePolicyMaxBundleStr = "max-bundle"
)

// newBundlePolicy converts a wire/config string into a BundlePolicy.
func newBundlePolicy(raw string) BundlePolicy {
	switch raw {
	case bundlePolicyBalancedStr:
		return BundlePolicyBalanced
	case bundlePolicyMaxCompatStr:
		return BundlePolicyMaxCompat
	case bundlePolicyMaxBundleStr:
		return BundlePolicyMaxBundle
	default:
		return BundlePolicy(Unknown)
	}
}

func (t BundlePolicy) String() string {
	switch t {
	case BundlePolicyBalanced:
		return bundlePolicyBalancedStr
	case BundlePolicyMaxCompat:
		return bundlePolicyMaxCompatStr
	case BundlePolicyMaxBundle:
		return bundlePolicyMaxBundleStr
	default:
		return unknownStr
	}
}
