package device

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeTransport records written tokens and serves scripted feedback bytes.
type fakeTransport struct {
	mu       sync.Mutex
	written  []byte
	feed     []byte
	writeErr error
}

func (f *fakeTransport) WriteByte(b byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, b)
	return nil
}

func (f *fakeTransport) TryReadByte() (byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.feed) == 0 {
		return 0, false
	}
	b := f.feed[0]
	f.feed = f.feed[1:]
	return b, true
}

func (f *fakeTransport) Name() string { return "fake0" }

func (f *fakeTransport) writtenString() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.written)
}

func newTestServer() (*Server, *fakeTransport) {
	tr := &fakeTransport{}
	return New(tr, Config{Tick: 100 * time.Microsecond}), tr
}

// drainQueue pops every pending token.
func drainQueue(s *Server) []Token {
	var out []Token
	for {
		tok, ok := s.queue.Pop()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

func TestNewServer_Defaults(t *testing.T) {
	s, _ := newTestServer()

	if s.IsOn() {
		t.Error("new server reports on, want off")
	}
	if got := s.TargetSpeed(); got != 0 {
		t.Errorf("TargetSpeed() = %d, want 0", got)
	}
	if got := s.ActualSpeed(); got != 0 {
		t.Errorf("ActualSpeed() = %d, want 0", got)
	}
	if got := s.Mode(); got != ModeDefault {
		t.Errorf("Mode() = %v, want ModeDefault", got)
	}
	if !s.AcceptsCommands() {
		t.Error("AcceptsCommands() = false after construction, want true")
	}
}

func TestSetSpeed_FromOffEnqueuesOnPlusSteps(t *testing.T) {
	s, _ := newTestServer()

	s.SetSpeed(3)

	want := []Token{TokenOn, TokenHigher, TokenHigher, TokenHigher}
	got := drainQueue(s)
	if len(got) != len(want) {
		t.Fatalf("queue = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("queue[%d] = %c, want %c", i, got[i], want[i])
		}
	}
	if s.TargetSpeed() != 3 {
		t.Errorf("TargetSpeed() = %d, want 3", s.TargetSpeed())
	}
	if !s.IsOn() {
		t.Error("IsOn() = false after implicit power on, want true")
	}
}

func TestSetSpeed_StepCountMatchesDifference(t *testing.T) {
	tests := []struct {
		name      string
		from, to  int
		wantToken Token
		wantCount int
	}{
		{"up by one", 5, 6, TokenHigher, 1},
		{"up by many", 2, 9, TokenHigher, 7},
		{"down by one", 6, 5, TokenLower, 1},
		{"down by many", 20, 4, TokenLower, 16},
		{"no change", 7, 7, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer()
			s.SetIsOn(true)
			s.SetSpeed(tt.from)
			drainQueue(s)

			s.SetSpeed(tt.to)

			got := drainQueue(s)
			if len(got) != tt.wantCount {
				t.Fatalf("enqueued %d tokens, want %d", len(got), tt.wantCount)
			}
			for i, tok := range got {
				if tok != tt.wantToken {
					t.Errorf("queue[%d] = %c, want %c", i, tok, tt.wantToken)
				}
			}
			if s.TargetSpeed() != tt.to {
				t.Errorf("TargetSpeed() = %d, want %d", s.TargetSpeed(), tt.to)
			}
		})
	}
}

func TestSetSpeed_ZeroWhileOnEnqueuesSingleOff(t *testing.T) {
	s, _ := newTestServer()
	s.SetIsOn(true)
	s.SetSpeed(12)
	drainQueue(s)

	s.SetSpeed(0)

	got := drainQueue(s)
	if len(got) != 1 || got[0] != TokenOff {
		t.Errorf("queue = %v, want exactly [OFF]", got)
	}
	if s.IsOn() {
		t.Error("IsOn() = true after SetSpeed(0), want false")
	}
	if s.TargetSpeed() != 0 {
		t.Errorf("TargetSpeed() = %d, want 0", s.TargetSpeed())
	}
}

func TestSetSpeed_ClampsToRange(t *testing.T) {
	s, _ := newTestServer()
	s.SetIsOn(true)
	drainQueue(s)

	s.SetSpeed(MaxSpeed + 10)

	if s.TargetSpeed() != MaxSpeed {
		t.Errorf("TargetSpeed() = %d, want %d", s.TargetSpeed(), MaxSpeed)
	}
	if got := len(drainQueue(s)); got != MaxSpeed-1 {
		t.Errorf("enqueued %d step tokens, want %d", got, MaxSpeed-1)
	}
}

func TestSetIsOn_NoOpWhenAlreadyInState(t *testing.T) {
	s, _ := newTestServer()
	s.SetIsOn(true)
	drainQueue(s)

	s.SetIsOn(true)

	if got := s.queue.Len(); got != 0 {
		t.Errorf("queue length = %d after redundant SetIsOn, want 0", got)
	}
	if s.TargetSpeed() != 1 {
		t.Errorf("TargetSpeed() = %d, want 1", s.TargetSpeed())
	}
}

func TestSetIsOn_ResetsTargetSpeed(t *testing.T) {
	s, _ := newTestServer()

	s.SetIsOn(true)
	if s.TargetSpeed() != 1 {
		t.Errorf("TargetSpeed() after on = %d, want 1", s.TargetSpeed())
	}

	s.SetIsOn(false)
	if s.TargetSpeed() != 0 {
		t.Errorf("TargetSpeed() after off = %d, want 0", s.TargetSpeed())
	}

	got := drainQueue(s)
	if len(got) != 2 || got[0] != TokenOn || got[1] != TokenOff {
		t.Errorf("queue = %v, want [ON OFF]", got)
	}
}

func TestSetMode_NoOpWhileOff(t *testing.T) {
	s, _ := newTestServer()

	s.SetMode(ModeDefault)

	if got := s.queue.Len(); got != 0 {
		t.Errorf("queue length = %d, want 0", got)
	}
}

func TestAcceptsCommands_ConvergesWithFeedback(t *testing.T) {
	s, _ := newTestServer()

	s.SetSpeed(3)
	if s.AcceptsCommands() {
		t.Error("AcceptsCommands() = true while target ahead of actual, want false")
	}

	// Simulated device feedback: power on then two steps up.
	s.handleFeedback("power_on")
	s.handleFeedback("speed_up")
	s.handleFeedback("speed_up")

	if got := s.ActualSpeed(); got != 3 {
		t.Errorf("ActualSpeed() = %d, want 3", got)
	}
	if !s.AcceptsCommands() {
		t.Error("AcceptsCommands() = false after convergence, want true")
	}
}

func TestHandleFeedback_CarriageReturnEquivalence(t *testing.T) {
	plain, _ := newTestServer()
	plain.handleFeedback("speed_up")

	cr, _ := newTestServer()
	cr.handleFeedback("speed_up\r")

	if plain.ActualSpeed() != cr.ActualSpeed() {
		t.Errorf("ActualSpeed() with and without CR = %d vs %d, want equal",
			plain.ActualSpeed(), cr.ActualSpeed())
	}
}

func TestTransmit_WritesInQueueOrder(t *testing.T) {
	s, tr := newTestServer()
	s.SetSpeed(3)

	for s.transmitOne() {
	}

	if got := tr.writtenString(); got != "ihhh" {
		t.Errorf("written bytes = %q, want %q", got, "ihhh")
	}
}

func TestTransmit_WriteFailureDropsToken(t *testing.T) {
	s, tr := newTestServer()
	tr.writeErr = errors.New("link down")
	s.SetIsOn(true)

	s.transmitOne()

	if got := s.queue.Len(); got != 0 {
		t.Errorf("queue length = %d after failed write, want 0 (token dropped)", got)
	}
	if got := tr.writtenString(); got != "" {
		t.Errorf("written bytes = %q, want none", got)
	}
}

func TestLoops_EndToEnd(t *testing.T) {
	s, tr := newTestServer()
	tr.feed = []byte("power_on\r\nspeed_up\nspeed_up\n")

	s.Start()
	defer s.Close()
	s.SetSpeed(3)

	deadline := time.After(2 * time.Second)
	for s.ActualSpeed() != 3 {
		select {
		case <-deadline:
			t.Fatalf("ActualSpeed() = %d, want 3 before deadline", s.ActualSpeed())
		case <-time.After(time.Millisecond):
		}
	}

	s.Close()
	if got := tr.writtenString(); got != "ihhh" {
		t.Errorf("written bytes = %q, want %q", got, "ihhh")
	}
	if !s.AcceptsCommands() {
		t.Error("AcceptsCommands() = false after convergence, want true")
	}
}

func TestClose_FlushesQueuedTokens(t *testing.T) {
	s, tr := newTestServer()
	s.Start()
	s.SetIsOn(true)
	s.SetIsOn(false)

	s.Close()

	if got := tr.writtenString(); !strings.HasSuffix(got, "o") {
		t.Errorf("written bytes = %q, want trailing OFF token", got)
	}
	if s.queue.Len() != 0 {
		t.Errorf("queue length = %d after Close, want 0", s.queue.Len())
	}
}

func TestConsole_PowerTogglesState(t *testing.T) {
	s, _ := newTestServer()

	s.runConsoleLine("power")
	if !s.IsOn() {
		t.Error("IsOn() = false after power command, want true")
	}

	s.runConsoleLine("power")
	if s.IsOn() {
		t.Error("IsOn() = true after second power command, want false")
	}
}

func TestConsole_LowerGatedAtZero(t *testing.T) {
	s, _ := newTestServer()
	s.SetIsOn(true)
	s.SetSpeed(0)
	drainQueue(s)

	s.runConsoleLine("lower")

	if got := s.queue.Len(); got != 0 {
		t.Errorf("queue length = %d, want 0 (lower gated while off)", got)
	}
}

func TestConsole_HigherGatedAtMax(t *testing.T) {
	s, _ := newTestServer()
	s.SetIsOn(true)
	s.SetSpeed(MaxSpeed)
	drainQueue(s)

	s.runConsoleLine("higher")

	if got := s.queue.Len(); got != 0 {
		t.Errorf("queue length = %d, want 0 (higher gated at max speed)", got)
	}
	if s.TargetSpeed() != MaxSpeed {
		t.Errorf("TargetSpeed() = %d, want %d", s.TargetSpeed(), MaxSpeed)
	}
}

func TestConsole_ExitPowersOffAndSignalsShutdown(t *testing.T) {
	s, _ := newTestServer()
	s.SetIsOn(true)
	drainQueue(s)

	s.runConsoleLine("exit")

	got := drainQueue(s)
	if len(got) != 1 || got[0] != TokenOff {
		t.Errorf("queue = %v, want [OFF]", got)
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done() not closed after exit command")
	}
}

func TestConsole_UnknownCommandIsIgnored(t *testing.T) {
	s, _ := newTestServer()

	s.runConsoleLine("spin")

	if got := s.queue.Len(); got != 0 {
		t.Errorf("queue length = %d after unknown command, want 0", got)
	}
}

func TestConsole_DispatcherReadsInput(t *testing.T) {
	s, _ := newTestServer()
	s.Start()
	s.StartConsole(strings.NewReader("power\n"))
	defer s.Close()

	deadline := time.After(2 * time.Second)
	for !s.IsOn() {
		select {
		case <-deadline:
			t.Fatal("power command from console input was not dispatched")
		case <-time.After(time.Millisecond):
		}
	}
}

// notifierRecorder captures notifications for assertions.
type notifierRecorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	lines     []string
}

func (n *notifierRecorder) StateChanged(s Snapshot) {
	n.mu.Lock()
	n.snapshots = append(n.snapshots, s)
	n.mu.Unlock()
}

func (n *notifierRecorder) DeviceLog(line string) {
	n.mu.Lock()
	n.lines = append(n.lines, line)
	n.mu.Unlock()
}

func (n *notifierRecorder) lastSnapshot() (Snapshot, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.snapshots) == 0 {
		return Snapshot{}, false
	}
	return n.snapshots[len(n.snapshots)-1], true
}

func TestNotifier_ReceivesStateChanges(t *testing.T) {
	s, _ := newTestServer()
	rec := &notifierRecorder{}
	s.Attach(rec)

	s.SetSpeed(2)

	snap, ok := rec.lastSnapshot()
	if !ok {
		t.Fatal("notifier received no snapshots")
	}
	if !snap.IsOn || snap.TargetSpeed != 2 || snap.AcceptsCommands {
		t.Errorf("snapshot = %+v, want on, target 2, busy", snap)
	}
}
