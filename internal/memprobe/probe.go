// Package memprobe abstracts device memory introspection behind a small
// capability interface. Implementations must never panic and never surface
// errors: on failure they degrade to a conservative fallback.
package memprobe

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// Probe reports memory currently consumed on the device.
type Probe interface {
	CurrentUsage() uint64
}

// Func adapts a plain function to the Probe interface. Useful for the
// tracked-usage fallback and for tests.
type Func func() uint64

func (f Func) CurrentUsage() uint64 { return f() }

// systemProbe reads platform memory counters and falls back to the provided
// function when the read fails.
type systemProbe struct {
	log      zerolog.Logger
	fallback func() uint64
	read     func() (uint64, error)
}

// NewSystem returns a probe backed by OS memory counters. fallback is
// consulted when the platform read fails; it should report the caller's
// tracked usage so admission stays conservative. A nil fallback degrades to
// zero usage.
func NewSystem(log zerolog.Logger, fallback func() uint64) Probe {
	return newSystem(log, fallback, platformUsage)
}

// newSystem is the injectable core of NewSystem.
func newSystem(log zerolog.Logger, fallback func() uint64, read func() (uint64, error)) Probe {
	if fallback == nil {
		fallback = func() uint64 { return 0 }
	}
	return &systemProbe{log: log, fallback: fallback, read: read}
}

func (p *systemProbe) CurrentUsage() uint64 {
	used, err := p.read()
	if err != nil {
		p.log.Debug().Err(err).Msg("memory probe failed, using tracked fallback")
		return p.fallback()
	}
	return used
}

// platformUsage reads total minus available memory via gopsutil. Implausible
// counters are treated as a failed read.
func platformUsage() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	if vm == nil || vm.Total == 0 || vm.Available > vm.Total {
		return 0, errors.New("implausible platform memory counters")
	}
	return vm.Total - vm.Available, nil
}
