// Package mux multiplexes packets on a single socket (RFC7983)
package mux

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/packetio"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// The maximum amount of data that can be buffered before returning errors.
const maxBufferSize = 1000 * 1000 // 1MB

// maxPendingPackets bounds how many unmatched packets are held waiting for
// an endpoint to register (DTLS and SRTP endpoints are often created after
// the mux starts reading, see pion/webrtc#2180).
const maxPendingPackets = 23

// Config collects the arguments to mux.Mux construction into
// a single structure
type Config struct {
	Conn          net.Conn
	BufferSize    int
	LoggerFactory logging.LoggerFactory

	// DSCP, when non-zero, is the Differentiated Services Code Point
	// applied to every packet written on Conn. Left at 0, the socket's
	// default ToS/Traffic Class is untouched.
	DSCP int
}

// Mux allows multiplexing
type Mux struct {
	lock           sync.RWMutex
	nextConn       net.Conn
	endpoints      map[*Endpoint]MatchFunc
	bufferSize     int
	closedCh       chan struct{}
	pendingPackets [][]byte

	log logging.LeveledLogger
}

// NewMux creates a new Mux
func NewMux(config Config) *Mux {
	m := &Mux{
		nextConn:   config.Conn,
		endpoints:  make(map[*Endpoint]MatchFunc),
		bufferSize: config.BufferSize,
		closedCh:   make(chan struct{}),
		log:        config.LoggerFactory.NewLogger("mux"),
	}

	if config.DSCP != 0 {
		m.applyDSCP(config.DSCP)
	}

	go m.readLoop()

	return m
}

// applyDSCP marks the underlying socket's outbound packets with the given
// DSCP value. IPv4 sets the ToS byte, IPv6 sets the Traffic Class; whichever
// one doesn't apply to the underlying address family fails silently, which
// is why both are attempted and only a genuine failure is logged.
func (m *Mux) applyDSCP(dscp int) {
	tos := dscp << 2

	v4err := ipv4.NewConn(m.nextConn).SetTOS(tos)
	v6err := ipv6.NewConn(m.nextConn).SetTrafficClass(tos)
	if v4err != nil && v6err != nil {
		m.log.Warnf("Failed to set DSCP %d on mux socket: %v / %v", dscp, v4err, v6err)
	}
}

// NewEndpoint creates a new Endpoint. Any packets already buffered that
// match f are handed to the new endpoint immediately, in case they arrived
// before the endpoint that wanted them was registered.
func (m *Mux) NewEndpoint(f MatchFunc) *Endpoint {
	e := &Endpoint{
		mux:    m,
		buffer: packetio.NewBuffer(),
	}

	// Set a maximum size of the buffer in bytes.
	// NOTE: We actually won't get anywhere close to this limit.
	// SRTP will constantly read from the endpoint and drop packets if it's full.
	e.buffer.SetLimitSize(maxBufferSize)

	m.lock.Lock()
	defer m.lock.Unlock()

	for i := len(m.pendingPackets) - 1; i >= 0; i-- {
		p := m.pendingPackets[i]
		if f(p) {
			if _, err := e.buffer.Write(p); err != nil {
				m.log.Warnf("mux: failed to write pending packet to new endpoint: %s", err)
			}
			m.pendingPackets = append(m.pendingPackets[:i], m.pendingPackets[i+1:]...)
		}
	}

	m.endpoints[e] = f

	return e
}

// RemoveEndpoint removes an endpoint from the Mux
func (m *Mux) RemoveEndpoint(e *Endpoint) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.endpoints, e)
}

// Close closes the Mux and all associated Endpoints.
func (m *Mux) Close() error {
	m.lock.Lock()
	for e := range m.endpoints {
		err := e.close()
		if err != nil {
			return err
		}

		delete(m.endpoints, e)
	}
	m.lock.Unlock()

	err := m.nextConn.Close()
	if err != nil {
		return err
	}

	// Wait for readLoop to end
	<-m.closedCh

	return nil
}

func (m *Mux) readLoop() {
	defer close(m.closedCh)

	buf := make([]byte, m.bufferSize)
	for {
		n, err := m.nextConn.Read(buf)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
			return
		case errors.Is(err, packetio.ErrTimeout), errors.Is(err, io.ErrShortBuffer):
			continue
		case err != nil:
			m.log.Errorf("mux: ending readLoop: %s", err)
			return
		}

		if err = m.dispatch(append([]byte{}, buf[:n]...)); err != nil {
			m.log.Errorf("mux: ending readLoop dispatch error: %s", err)
			return
		}
	}
}

func (m *Mux) dispatch(buf []byte) error {
	var endpoint *Endpoint

	m.lock.Lock()
	for e, f := range m.endpoints {
		if f(buf) {
			endpoint = e
			break
		}
	}

	if endpoint == nil {
		if len(buf) == 0 {
			m.lock.Unlock()
			return nil
		}

		m.log.Warnf("mux: no endpoint for packet starting with %d, queuing", buf[0])
		if len(m.pendingPackets) < maxPendingPackets {
			m.pendingPackets = append(m.pendingPackets, buf)
		} else {
			m.log.Warnf("mux: pending packet queue full, dropping packet")
		}
		m.lock.Unlock()
		return nil
	}
	m.lock.Unlock()

	_, err := endpoint.buffer.Write(buf)
	if errors.Is(err, packetio.ErrFull) {
		m.log.Warnf("mux: endpoint buffer full, dropping packet")
		return nil
	}
	return err
}
