package device

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// defaultTick paces the transmit and receive loops when no tick is
// configured. One token leaves the queue per tick at most, which keeps
// the slow embedded link from being flooded.
const defaultTick = time.Millisecond

// Config holds Server construction settings.
type Config struct {
	// Tick is the pacing interval for the transmit and receive loops.
	// Default: 1ms.
	Tick time.Duration
}

// Server owns the serial transport, the device state and the command
// queue. It runs the paced transmitter, the feedback receiver and the
// console dispatcher, and exposes the state mutators used by local
// console commands, the gateway session and the monitor UI.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
//   - Each mutator validates, enqueues and updates state inside one
//     critical section, so a concurrent reader observes the queue and
//     target speed move together.
type Server struct {
	transport Transport
	tick      time.Duration

	// mu guards the state fields and spans the token enqueue plus the
	// optimistic state update of each mutator.
	mu          sync.Mutex
	isOn        bool
	mode        Mode
	targetSpeed int
	actualSpeed int

	queue tokenQueue

	notifyMu  sync.RWMutex
	notifiers []Notifier

	logger Logger

	running  atomic.Bool
	stop     chan struct{}
	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Server for the given transport. The device starts off,
// at speed zero, in the default mode. Call Start to launch the serial
// loops and StartConsole to accept operator input.
func New(transport Transport, cfg Config) *Server {
	tick := cfg.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	return &Server{
		transport: transport,
		tick:      tick,
		logger:    nopLogger{},
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// SetLogger attaches a logger. Call before Start.
func (s *Server) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// Attach registers a notification sink. Sinks are weak references: the
// Server never manages their lifecycle. Call before Start.
func (s *Server) Attach(n Notifier) {
	s.notifyMu.Lock()
	s.notifiers = append(s.notifiers, n)
	s.notifyMu.Unlock()
}

// Start launches the transmit and receive loops.
func (s *Server) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(2)
	go s.txLoop()
	go s.rxLoop()
}

// IsRunning reports whether the serial loops are active.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Done is closed when the operator requests shutdown via the console.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Close stops the loops and joins them. Tokens still queued are flushed
// to the transport in one final best-effort pass so a trailing power-off
// reaches the device.
func (s *Server) Close() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stop)
	s.wg.Wait()
}

// requestShutdown signals the process owner that the operator asked to
// exit. Safe to call more than once.
func (s *Server) requestShutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}

// SetSpeed requests an absolute target speed. The hardware only knows
// relative steps, so the difference to the current target is enqueued as
// a run of step tokens.
//
// Implicit power transitions:
//   - off and v > 0: a power-on token is enqueued first; the step count
//     stays relative to the pre-call target so the queue carries exactly
//     |v - previous_target| steps after the ON.
//   - on and v == 0: behaves as SetIsOn(false), no step tokens.
//
// v is clamped to the device's speed range.
func (s *Server) SetSpeed(v int) {
	if v < MinSpeed {
		v = MinSpeed
	}
	if v > MaxSpeed {
		v = MaxSpeed
	}

	s.mu.Lock()

	switch {
	case !s.isOn && v > 0:
		s.queue.Push(TokenOn)
		s.isOn = true
	case s.isOn && v == 0:
		s.queue.Push(TokenOff)
		s.isOn = false
		s.targetSpeed = 0
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notifyState(snap)
		return
	case !s.isOn && v == 0:
		s.mu.Unlock()
		return
	}

	switch {
	case v > s.targetSpeed:
		s.queue.PushN(TokenHigher, v-s.targetSpeed)
	case v < s.targetSpeed:
		s.queue.PushN(TokenLower, s.targetSpeed-v)
	}
	s.targetSpeed = v

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notifyState(snap)
}

// SetIsOn requests a power state. A no-op when the device is already in
// that state. Turning on resets the target speed to 1, turning off to 0,
// mirroring what the firmware does on its side of the link.
func (s *Server) SetIsOn(on bool) {
	s.mu.Lock()
	if s.isOn == on {
		s.mu.Unlock()
		return
	}

	if on {
		s.queue.Push(TokenOn)
		s.targetSpeed = 1
	} else {
		s.queue.Push(TokenOff)
		s.targetSpeed = 0
	}
	s.isOn = on

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notifyState(snap)
}

// SetMode requests an operating mode. A no-op while the device is off.
// No serial token exists for mode selection in the current protocol
// revision, so the change is host-side state only.
func (s *Server) SetMode(m Mode) {
	s.mu.Lock()
	if !s.isOn || s.mode == m {
		s.mu.Unlock()
		return
	}
	s.mode = m

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notifyState(snap)
}

// IsOn reports the optimistic power state.
func (s *Server) IsOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOn
}

// TargetSpeed reports the requested speed.
func (s *Server) TargetSpeed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetSpeed
}

// ActualSpeed reports the last speed confirmed by device feedback.
func (s *Server) ActualSpeed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actualSpeed
}

// Mode reports the current operating mode.
func (s *Server) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// AcceptsCommands reports whether the device has caught up with the
// requested speed. While actual and target diverge the device is busy
// stepping and rejects mode changes.
func (s *Server) AcceptsCommands() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actualSpeed == s.targetSpeed
}

// Snapshot copies out the full device state.
func (s *Server) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// PendingTokens reports the queue depth. Used by the monitor UI.
func (s *Server) PendingTokens() int {
	return s.queue.Len()
}

func (s *Server) snapshotLocked() Snapshot {
	return Snapshot{
		IsOn:            s.isOn,
		AcceptsCommands: s.actualSpeed == s.targetSpeed,
		TargetSpeed:     s.targetSpeed,
		ActualSpeed:     s.actualSpeed,
		Mode:            s.mode,
	}
}

// txLoop dequeues at most one token per tick and writes it to the
// transport. A failed write is logged and the token dropped; the queue
// is at-least-attempted, not guaranteed-delivered.
func (s *Server) txLoop() {
	defer s.wg.Done()
	s.logger.Info("transmit loop started", "device", s.transport.Name(), "tick", s.tick)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.flushQueue()
			s.logger.Info("transmit loop stopped")
			return
		case <-ticker.C:
			s.transmitOne()
		}
	}
}

// transmitOne pops and writes a single token. Reports whether a token
// was pending.
func (s *Server) transmitOne() bool {
	tok, ok := s.queue.Pop()
	if !ok {
		return false
	}

	if err := s.transport.WriteByte(byte(tok)); err != nil {
		s.logger.Warn("dropped token while sending", "token", string(rune(tok)), "error", err)
		return true
	}

	line := fmt.Sprintf("[host -> %s] %c", s.transport.Name(), tok)
	s.logger.Debug(line)
	s.notifyDeviceLog(line)
	return true
}

// flushQueue drains whatever is still queued, once. Runs on shutdown so
// the OFF enqueued by the exit command actually leaves the host.
func (s *Server) flushQueue() {
	for s.transmitOne() {
	}
}

// rxLoop drains feedback bytes each tick into a line buffer and decodes
// complete lines. The buffer persists across ticks; a line is only
// decoded once its newline delimiter has arrived.
func (s *Server) rxLoop() {
	defer s.wg.Done()
	s.logger.Info("receive loop started", "device", s.transport.Name())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	var buf []byte
	for {
		select {
		case <-s.stop:
			s.logger.Info("receive loop stopped")
			return
		case <-ticker.C:
			buf = s.receiveTick(buf)
		}
	}
}

// receiveTick reads until the transport runs dry, handing each completed
// line to the feedback decoder. Returns the remaining partial line.
func (s *Server) receiveTick(buf []byte) []byte {
	for {
		b, ok := s.transport.TryReadByte()
		if !ok {
			return buf
		}
		if b != '\n' {
			buf = append(buf, b)
			continue
		}
		line := string(buf)
		buf = buf[:0]
		if line != "" {
			s.handleFeedback(line)
		}
	}
}

// handleFeedback decodes one feedback line and updates the actual speed.
// Unrecognised lines are dropped silently apart from a debug entry.
func (s *Server) handleFeedback(line string) {
	s.mu.Lock()
	next, ok := applyFeedback(line, s.actualSpeed)
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("unrecognised feedback line", "line", line)
		return
	}
	s.actualSpeed = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logLine := fmt.Sprintf("[%s -> host] %s", s.transport.Name(), strings.TrimSuffix(line, "\r"))
	s.logger.Debug(logLine)
	s.notifyDeviceLog(logLine)
	s.notifyState(snap)
}

func (s *Server) notifyState(snap Snapshot) {
	s.notifyMu.RLock()
	defer s.notifyMu.RUnlock()
	for _, n := range s.notifiers {
		n.StateChanged(snap)
	}
}

func (s *Server) notifyDeviceLog(line string) {
	s.notifyMu.RLock()
	defer s.notifyMu.RUnlock()
	for _, n := range s.notifiers {
		n.DeviceLog(line)
	}
}

// nopLogger discards everything; replaced via SetLogger.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
