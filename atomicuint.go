package webrtc

import "sync/atomic"

// atomicUint32 is a thin wrapper over atomic.Uint32 used by the MID
// allocator and stream-id counters that need a simple monotonic value
// shared across goroutines.
type atomicUint32 struct {
	v atomic.Uint32
}

// NewAtomicUint32 returns an atomicUint32 starting at zero.
func NewAtomicUint32() *atomicUint32 {
	return &atomicUint32{}
}

func (a *atomicUint32) increment() {
	a.v.Add(1)
}

func (a *atomicUint32) value() uint32 {
	return a.v.Load()
}

func (a *atomicUint32) add(quantity uint32) {
	a.v.Add(quantity)
}
