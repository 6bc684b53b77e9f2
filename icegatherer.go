// +build !js

package webrtc

import (
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pion/ice/v4"
	"github.com/pion/turn/v4"
)

// ICEGatherer gathers local host, server reflexive and relay candidates, as
// well as enabling the retrieval of local ICE parameters which can be
// exchanged in signaling (spec §4.2).
type ICEGatherer struct {
	lock  sync.RWMutex
	state ICEGathererState

	validatedServers []*ice.URL

	agent *ice.Agent
	api   *API

	onLocalCandidateHdlr atomic.Value // func(*ICECandidate)
	onStateChangeHdlr    atomic.Value // func(ICEGathererState)

	portMin           uint16
	portMax           uint16
	connectionTimeout *time.Duration
	keepaliveInterval *time.Duration
	networkTypes      []NetworkType
}

// NewICEGatherer creates a new ICEGatherer configured from the API's
// SettingEngine. Candidates are not gathered until Gather is called.
func (api *API) NewICEGatherer(opts ICEGatherOptions) (*ICEGatherer, error) {
	var validatedServers []*ice.URL
	for _, server := range opts.ICEServers {
		urls, err := server.urls()
		if err != nil {
			return nil, err
		}
		validatedServers = append(validatedServers, urls...)
	}

	return &ICEGatherer{
		state:             ICEGathererStateNew,
		validatedServers:  validatedServers,
		api:               api,
		portMin:           api.settingEngine.ephemeralUDP.PortMin,
		portMax:           api.settingEngine.ephemeralUDP.PortMax,
		connectionTimeout: api.settingEngine.timeout.ICEConnection,
		keepaliveInterval: api.settingEngine.timeout.ICEKeepalive,
		networkTypes:      api.settingEngine.candidates.ICENetworkTypes,
	}, nil
}

// State indicates the current state of the ICE gatherer.
func (g *ICEGatherer) State() ICEGathererState {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.state
}

func (g *ICEGatherer) setState(s ICEGathererState) {
	g.lock.Lock()
	g.state = s
	g.lock.Unlock()

	if hdlr, ok := g.onStateChangeHdlr.Load().(func(ICEGathererState)); ok && hdlr != nil {
		hdlr(s)
	}
}

// OnLocalCandidate sets a handler invoked once per gathered local
// candidate. The handler fires once more with a nil candidate once
// gathering has finished, mirroring the W3C icegatheringstatechange
// "complete" signal.
func (g *ICEGatherer) OnLocalCandidate(f func(*ICECandidate)) {
	g.onLocalCandidateHdlr.Store(f)
}

// OnStateChange sets a handler invoked whenever the gatherer's state
// transitions.
func (g *ICEGatherer) OnStateChange(f func(ICEGathererState)) {
	g.onStateChangeHdlr.Store(f)
}

func (g *ICEGatherer) createAgent() error {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.agent != nil {
		return nil
	}

	var candidateTypes []ice.CandidateType
	if g.api.settingEngine.candidates.ICELite {
		candidateTypes = append(candidateTypes, ice.CandidateTypeHost)
	}

	mDNSMode := ice.MulticastDNSModeDisabled
	mDNSHostName := g.api.settingEngine.candidates.MulticastDNSHostName
	if g.api.settingEngine.candidates.GenerateMulticastDNSCandidates {
		mDNSMode = ice.MulticastDNSModeQueryAndGather
		if mDNSHostName == "" {
			mDNSHostName = uuid.New().String() + ".local"
		}
	}

	requestedNetworkTypes := g.networkTypes
	if len(requestedNetworkTypes) == 0 {
		requestedNetworkTypes = supportedNetworkTypes
	}

	config := &ice.AgentConfig{
		Lite:                 g.api.settingEngine.candidates.ICELite,
		Urls:                 g.validatedServers,
		PortMin:              g.portMin,
		PortMax:              g.portMax,
		ConnectionTimeout:    g.connectionTimeout,
		KeepaliveInterval:    g.keepaliveInterval,
		LoggerFactory:        g.api.settingEngine.LoggerFactory,
		CandidateTypes:       candidateTypes,
		InterfaceFilter:      g.api.settingEngine.candidates.InterfaceFilter,
		NAT1To1IPs:           g.api.settingEngine.candidates.NAT1To1IPs,
		MulticastDNSMode:     mDNSMode,
		MulticastDNSHostName: mDNSHostName,
		LocalUfrag:           g.api.settingEngine.candidates.UsernameFragment,
		LocalPwd:             g.api.settingEngine.candidates.Password,
		Net:                  g.api.settingEngine.vnet,
	}

	if len(g.api.settingEngine.candidates.NAT1To1IPs) > 0 {
		config.NAT1To1IPCandidateType = ice.CandidateType(g.api.settingEngine.candidates.NAT1To1IPCandidateType)
	}

	for _, typ := range requestedNetworkTypes {
		config.NetworkTypes = append(config.NetworkTypes, ice.NetworkType(typ))
	}

	agent, err := ice.NewAgent(config)
	if err != nil {
		return err
	}

	if err = agent.OnCandidate(func(c ice.Candidate) {
		var candidate *ICECandidate
		if c != nil {
			ac, convErr := newICECandidateFromICE(c, "", 0)
			if convErr != nil {
				return
			}
			candidate = &ac
		} else {
			g.setState(ICEGathererStateComplete)
		}

		if hdlr, ok := g.onLocalCandidateHdlr.Load().(func(*ICECandidate)); ok && hdlr != nil {
			hdlr(candidate)
		}
	}); err != nil {
		return err
	}

	g.agent = agent

	return nil
}

func (g *ICEGatherer) getAgent() *ice.Agent {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.agent
}

// Gather ICE candidates. Completion is signaled through OnLocalCandidate,
// not through this method's return.
func (g *ICEGatherer) Gather() error {
	if err := g.createAgent(); err != nil {
		return err
	}

	g.probeTurnServers()

	g.setState(ICEGathererStateGathering)

	return g.getAgent().GatherCandidates()
}

// probeTurnServers performs a best-effort TURN allocation against every
// configured TURN/TURNS URL, logging unreachable or misconfigured servers
// up front rather than only discovering them mid-call when ICE falls back
// to host/srflx candidates.
func (g *ICEGatherer) probeTurnServers() {
	logger := g.api.settingEngine.LoggerFactory
	if logger == nil {
		return
	}
	log := logger.NewLogger("ice")

	for _, server := range g.validatedServers {
		if server.Scheme != ice.SchemeTypeTURN && server.Scheme != ice.SchemeTypeTURNS {
			continue
		}

		go func(u *ice.URL) {
			if err := probeTurnServer(u); err != nil {
				log.Warnf("turn server %s unreachable: %v", u.Host, err)
			}
		}(server)
	}
}

// probeTurnServer performs a single TURN allocate/deallocate cycle against
// the given server URL to confirm it answers allocation requests.
func probeTurnServer(u *ice.URL) error {
	if u.Username == "" {
		return nil
	}

	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return err
	}
	defer conn.Close() // nolint:errcheck

	addr := net.JoinHostPort(u.Host, strconv.Itoa(int(u.Port)))

	client, err := turn.NewClient(&turn.ClientConfig{
		STUNServerAddr: addr,
		TURNServerAddr: addr,
		Conn:           conn,
		Username:       u.Username,
		Password:       u.Password,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Listen(); err != nil {
		return err
	}

	relayConn, err := client.Allocate()
	if err != nil {
		return err
	}
	return relayConn.Close()
}

// Close prunes all local candidates, and closes the ports.
func (g *ICEGatherer) Close() error {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.agent == nil {
		return nil
	}

	if err := g.agent.Close(); err != nil {
		return err
	}
	g.agent = nil
	g.state = ICEGathererStateClosed

	return nil
}

// GetLocalParameters returns the ICE parameters of the ICEGatherer.
func (g *ICEGatherer) GetLocalParameters() (ICEParameters, error) {
	agent := g.getAgent()
	if agent == nil {
		return ICEParameters{}, ErrICEAgentNotExist
	}

	frag, pwd := agent.GetLocalUserCredentials()

	return ICEParameters{
		UsernameFragment: frag,
		Password:         pwd,
		ICELite:          g.api.settingEngine.candidates.ICELite,
	}, nil
}

// GetLocalCandidates returns the sequence of valid local candidates
// associated with the ICEGatherer.
func (g *ICEGatherer) GetLocalCandidates() ([]ICECandidate, error) {
	agent := g.getAgent()
	if agent == nil {
		return nil, ErrICEAgentNotExist
	}

	iceCandidates, err := agent.GetLocalCandidates()
	if err != nil {
		return nil, err
	}

	return newICECandidatesFromICE(iceCandidates, "", 0)
}
