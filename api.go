package webrtc

import (
	"github.com/pion/interceptor"
	"github.com/pion/logging"
)

// API bundles the global configuration state for the PeerConnections it
// constructs: the codec table (MediaEngine), the interceptor chain, and the
// low-level networking knobs (SettingEngine). A single API value is safe to
// reuse across many PeerConnections; none of the state it holds is mutated
// after construction.
type API struct {
	settingEngine *SettingEngine
	mediaEngine   *MediaEngine
	interceptor   interceptor.Interceptor
}

// NewAPI creates a new API object for holding semi-global settings shared
// by the PeerConnections it constructs.
func NewAPI(options ...func(*API)) *API {
	a := &API{}

	for _, o := range options {
		o(a)
	}

	if a.settingEngine == nil {
		a.settingEngine = &SettingEngine{}
	}
	if a.settingEngine.LoggerFactory == nil {
		a.settingEngine.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	if a.mediaEngine == nil {
		a.mediaEngine = &MediaEngine{}
	}

	if a.interceptor == nil {
		a.interceptor = &interceptor.NoOp{}
	}

	return a
}

// WithMediaEngine allows providing a MediaEngine to the API. The engine
// should not be mutated after being passed in.
func WithMediaEngine(m *MediaEngine) func(a *API) {
	return func(a *API) {
		a.mediaEngine = m
	}
}

// WithSettingEngine allows providing a SettingEngine to the API. The engine
// should not be mutated after being passed in.
func WithSettingEngine(s SettingEngine) func(a *API) {
	return func(a *API) {
		a.settingEngine = &s
	}
}

// WithInterceptorRegistry allows providing a pre-built interceptor chain
// (NACK, TWCC, receiver reports, ...) as an interceptor.Registry, which is
// built here; RegisterDefaultInterceptors fills a Registry with the NACK
// interceptor. Without this option, or when Build fails, NewAPI uses
// interceptor.NoOp.
func WithInterceptorRegistry(ir *interceptor.Registry) func(a *API) {
	return func(a *API) {
		chain, err := ir.Build("")
		if err != nil {
			chain = &interceptor.NoOp{}
		}
		a.interceptor = chain
	}
}
