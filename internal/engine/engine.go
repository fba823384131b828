// Package engine implements the single-threaded, cooperative routing
// loop: the gateway's only stateful decision maker, directly ported from
// the gateway's own run() loop. Every tick performs, in order, repeater
// ingress, backend ingress, a clock tick, inactivity expiry, and a
// pacing sleep — never blocking on I/O at any step.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dgidgateway/dgidgateway/internal/aprs"
	"github.com/dgidgateway/dgidgateway/internal/backend"
	"github.com/dgidgateway/dgidgateway/internal/callhistory"
	"github.com/dgidgateway/dgidgateway/internal/chron"
	"github.com/dgidgateway/dgidgateway/internal/dgid"
	"github.com/dgidgateway/dgidgateway/internal/fich"
	"github.com/dgidgateway/dgidgateway/internal/logging"
)

// RepeaterLink is the narrow contract the engine needs from the
// repeater-facing socket; *repeater.Link satisfies it. Defined here so
// the routing loop can be exercised against a fake in tests without any
// real UDP I/O.
type RepeaterLink interface {
	Open() bool
	Read() []byte
	Write(buf []byte)
	Clock(ms int)
	Close()
}

const (
	tagOffset         = 0
	tagLength         = 4
	tagValue          = "YSFD"
	srcCallsignOffset = 14
	srcCallsignLength = 10
	eotFlagOffset     = 34
	fichOffset        = 35
	minFrameLength    = fichOffset + fich.Length
	readBufferLength  = 200
	minSleepMS        = 5
)

// Engine binds a repeater link to the DG-ID directory and runs the
// routing loop. aprsWriter and history are optional collaborators; either
// may be nil.
type Engine struct {
	rpt     RepeaterLink
	table   *dgid.Table
	aprs    *aprs.Writer
	history *callhistory.Store
	log     *logging.Logger

	currentDGID  uint8
	inactivity   *chron.Timer
	historyRecID uint
}

// New builds an Engine over an already-constructed repeater link and
// DG-ID directory.
func New(rpt RepeaterLink, table *dgid.Table, aprsWriter *aprs.Writer, history *callhistory.Store, log *logging.Logger) *Engine {
	return &Engine{
		rpt:        rpt,
		table:      table,
		aprs:       aprsWriter,
		history:    history,
		log:        log,
		inactivity: chron.New(),
	}
}

// Start opens the repeater link, opens every distinct backend in the
// directory, triple-links every static binding, and opens the APRS
// uplink if configured. A repeater open failure is fatal; everything
// else degrades by clearing or disabling the affected component.
func (e *Engine) Start() error {
	if !e.rpt.Open() {
		return fmt.Errorf("engine: repeater open failed")
	}
	e.table.Open(e.log)

	for i := 1; i <= 99; i++ {
		b := e.table.Slots[i]
		if b == nil || !b.Static {
			continue
		}
		b.Backend.Link(uint8(i))
		b.Backend.Link(uint8(i))
		b.Backend.Link(uint8(i))
	}

	if e.aprs != nil {
		if !e.aprs.Open() {
			e.log.Warn("engine: aprs open failed, continuing without position reporting")
			e.aprs = nil
		}
	}

	e.log.Info("engine: started")
	return nil
}

// Run executes the cooperative loop until ctx is cancelled, then
// performs an orderly shutdown before returning.
func (e *Engine) Run(ctx context.Context) {
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		default:
		}

		e.stepRepeaterIngress()
		e.stepBackendIngress()

		now := time.Now()
		ms := int(now.Sub(last) / time.Millisecond)
		last = now
		e.stepClock(ms)
		e.stepInactivity(ms)

		if ms < minSleepMS {
			time.Sleep(time.Duration(minSleepMS-ms) * time.Millisecond)
		}
	}
}

// stepRepeaterIngress reads at most one pending frame from the repeater
// and, if it decodes, routes it onto the currently selected DG-ID.
func (e *Engine) stepRepeaterIngress() {
	buf := e.rpt.Read()
	if buf == nil {
		return
	}
	if len(buf) < minFrameLength || string(buf[tagOffset:tagOffset+tagLength]) != tagValue {
		return
	}

	var fichBuf [fich.Length]byte
	copy(fichBuf[:], buf[fichOffset:fichOffset+fich.Length])
	f, ok := fich.Decode(fichBuf)
	if ok {
		e.handleRFFrame(buf, f)
	}

	if buf[eotFlagOffset]&0x01 == 0x01 && e.aprs != nil {
		e.aprs.Reset()
	}
}

func (e *Engine) handleRFFrame(buf []byte, f fich.Fich) {
	if f.DGID != 0 && f.DGID != e.currentDGID {
		e.switchRF(f.DGID)
	}

	if e.aprs != nil {
		e.aprs.Data(string(buf[srcCallsignOffset:srcCallsignOffset+srcCallsignLength]),
			buf[fichOffset:fichOffset+fich.Length], f.FI, f.DT, f.FN, f.FT)
	}

	if e.currentDGID == 0 {
		return
	}
	binding := e.table.Slots[e.currentDGID]
	if binding == nil {
		return
	}

	if binding.AllowedModes.Allows(f.DT) {
		out := make([]byte, len(buf))
		copy(out, buf)

		fich.SetDGID(&f, 0)
		var fb [fich.Length]byte
		fich.Encode(f, &fb)
		copy(out[fichOffset:fichOffset+fich.Length], fb[:])

		binding.Backend.Write(e.currentDGID, out)
	}

	e.inactivity.Start(int(binding.RFHangMS))
}

// switchRF performs an RF-originated DG-ID switch. If the target slot is
// unbound the switch — and its log line — is suppressed entirely; the
// gateway's own equivalent dereferences the target unconditionally here,
// which crashes on an unbound target, so this guard is a deliberate
// deviation.
func (e *Engine) switchRF(dgID uint8) {
	target := e.table.Slots[dgID]
	if target == nil {
		return
	}

	current := e.table.Slots[e.currentDGID]
	if current != nil && !current.Static {
		current.Backend.Unlink(e.currentDGID)
		current.Backend.Unlink(e.currentDGID)
		current.Backend.Unlink(e.currentDGID)
	}
	e.closeHistoryRecord()

	if !target.Static {
		target.Backend.Link(dgID)
		target.Backend.Link(dgID)
		target.Backend.Link(dgID)
	}

	e.log.WithComponent("router").Debug("dg-id set via RF",
		logging.Int("dgid", int(dgID)), logging.String("desc", target.Description))
	e.currentDGID = dgID
	e.openHistoryRecord(dgID, target.Description, callhistory.DirectionRF)
}

// stepBackendIngress drains one pending frame from every bound slot,
// forwarding it to the repeater if the slot matches the currently
// selected DG-ID (or no DG-ID is selected, letting network traffic
// promote a slot to current).
func (e *Engine) stepBackendIngress() {
	buf := make([]byte, readBufferLength)
	for i := 1; i <= 99; i++ {
		binding := e.table.Slots[i]
		if binding == nil {
			continue
		}

		n := binding.Backend.Read(uint8(i), buf)
		if n <= 0 {
			continue
		}
		if uint8(i) != e.currentDGID && e.currentDGID != 0 {
			continue
		}
		if n < minFrameLength || string(buf[tagOffset:tagOffset+tagLength]) != tagValue {
			continue
		}

		var fichBuf [fich.Length]byte
		copy(fichBuf[:], buf[fichOffset:fichOffset+fich.Length])
		f, ok := fich.Decode(fichBuf)
		if !ok {
			continue
		}

		fich.SetDGID(&f, uint8(i))
		var fb [fich.Length]byte
		fich.Encode(f, &fb)
		out := make([]byte, n)
		copy(out, buf[:n])
		copy(out[fichOffset:fichOffset+fich.Length], fb[:])
		e.rpt.Write(out)

		e.inactivity.Start(int(binding.NetHangMS))

		if e.currentDGID == 0 {
			e.log.WithComponent("router").Debug("dg-id set via network",
				logging.Int("dgid", i), logging.String("desc", binding.Description))
			e.currentDGID = uint8(i)
			e.openHistoryRecord(uint8(i), binding.Description, callhistory.DirectionNet)
		}
	}
}

// stepClock advances the repeater link, every distinct backend
// (deduplicating the IMRS alias), and the APRS uplink by ms.
func (e *Engine) stepClock(ms int) {
	e.rpt.Clock(ms)

	seen := make(map[backend.Backend]bool)
	for i := 1; i <= 99; i++ {
		b := e.table.Slots[i]
		if b == nil || seen[b.Backend] {
			continue
		}
		seen[b.Backend] = true
		b.Backend.Clock(ms)
	}

	if e.aprs != nil {
		e.aprs.Clock(ms)
	}
}

// stepInactivity advances the inactivity timer and, on expiry, releases
// the current binding and falls back to DG-ID 0 (none).
func (e *Engine) stepInactivity(ms int) {
	e.inactivity.Clock(ms)
	if !e.inactivity.IsRunning() || !e.inactivity.HasExpired() {
		return
	}

	current := e.table.Slots[e.currentDGID]
	if current != nil && !current.Static {
		current.Backend.Unlink(e.currentDGID)
		current.Backend.Unlink(e.currentDGID)
		current.Backend.Unlink(e.currentDGID)
	}

	e.log.WithComponent("router").Debug("dg-id set to none via timeout")
	e.closeHistoryRecord()
	e.currentDGID = 0
	e.inactivity.Stop()
}

func (e *Engine) openHistoryRecord(dgID uint8, desc string, dir callhistory.Direction) {
	if e.history == nil {
		return
	}
	id, err := e.history.RecordSwitch(dgID, desc, dir, time.Now())
	if err != nil {
		e.log.WithComponent("callhistory").Warn("record switch failed", logging.Err(err))
		return
	}
	e.historyRecID = id
}

func (e *Engine) closeHistoryRecord() {
	if e.history == nil || e.historyRecID == 0 {
		return
	}
	if err := e.history.RecordEnd(e.historyRecID, time.Now()); err != nil {
		e.log.WithComponent("callhistory").Warn("record end failed", logging.Err(err))
	}
	e.historyRecID = 0
}

// shutdown closes the repeater link, the APRS uplink, every distinct
// non-IMRS backend (unlinking it first, unconditionally, matching the
// gateway's own shutdown sequence), the shared IMRS backend once, and
// the call history store.
func (e *Engine) shutdown() {
	e.rpt.Close()
	if e.aprs != nil {
		e.aprs.Close()
	}

	closed := make(map[backend.Backend]bool)
	for i := 1; i <= 99; i++ {
		b := e.table.Slots[i]
		if b == nil || b.Kind == backend.KindIMRS || closed[b.Backend] {
			continue
		}
		closed[b.Backend] = true
		b.Backend.Unlink(uint8(i))
		b.Backend.Unlink(uint8(i))
		b.Backend.Unlink(uint8(i))
		b.Backend.Close()
	}

	if imrsBE := e.table.IMRSBackend(); imrsBE != nil {
		imrsBE.Close()
	}

	if e.history != nil {
		e.history.Close()
	}

	e.log.Info("engine: stopped")
}
