package gateway

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/f0x0/foxcontrol/internal/device"
)

const (
	// requestTimeout bounds every gateway request; the poll loop has no
	// separate per-request timeout of its own.
	requestTimeout = 10 * time.Second

	// maxResponseBody caps how much of a response is read.
	maxResponseBody = 1 << 20 // 1MB

	// authFailureThreshold is the number of consecutive authentication
	// failures on /fetch before the Session resets itself instead of
	// looping forever on a dead credential.
	authFailureThreshold = 3
)

// Controller is the device-server surface a Session drives.
// Implemented by device.Server; faked in tests.
type Controller interface {
	SetIsOn(on bool)
	SetSpeed(v int)
	SetMode(m device.Mode)
	Snapshot() device.Snapshot
}

// Logger is the logging surface the Session needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Notifier is a weak, non-owning sink for gateway activity log lines.
type Notifier interface {
	GatewayLog(line string)
}

// Config holds Session construction settings.
type Config struct {
	Address string
	Port    int

	// UpdateRate is the pause between fetch cycles.
	UpdateRate time.Duration

	// CertificatePath is the X509 certificate trusted for gateway TLS.
	CertificatePath string

	// Password is the long-lived gateway password.
	Password string

	// InsecureSkipVerify disables certificate verification. Development
	// only; when set, CertificatePath is not read.
	InsecureSkipVerify bool
}

// Session owns one gateway connection: the HTTPS client, the poll loop
// and the ephemeral session credential.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
//   - ResetSession may run concurrently with the poll loop; credential
//     readers observe the empty string or the new value, never the old.
type Session struct {
	client  *http.Client
	baseURL string
	ctrl    Controller
	cfg     Config

	sessionMu       sync.RWMutex
	sessionPassword string

	notifyMu  sync.RWMutex
	notifiers []Notifier

	logger Logger

	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Session. The certificate at cfg.CertificatePath becomes
// the root of trust for gateway TLS; failure to load it is a fatal
// startup error.
func New(ctrl Controller, cfg Config) (*Session, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.InsecureSkipVerify {
		tlsCfg.InsecureSkipVerify = true
	} else {
		pem, err := os.ReadFile(cfg.CertificatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCertificate, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %q", ErrCertificate, cfg.CertificatePath)
		}
		tlsCfg.RootCAs = pool
	}

	return &Session{
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		},
		baseURL: fmt.Sprintf("https://%s:%d", cfg.Address, cfg.Port),
		ctrl:    ctrl,
		cfg:     cfg,
		logger:  nopLogger{},
		stop:    make(chan struct{}),
	}, nil
}

// SetLogger attaches a logger. Call before Start.
func (s *Session) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// Attach registers a notification sink. Call before Start.
func (s *Session) Attach(n Notifier) {
	s.notifyMu.Lock()
	s.notifiers = append(s.notifiers, n)
	s.notifyMu.Unlock()
}

// Start launches the poll loop. If session creation fails the loop
// aborts entirely; this Session instance is then dead.
func (s *Session) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go s.pollLoop()
}

// IsRunning reports whether the poll loop is active.
func (s *Session) IsRunning() bool {
	return s.running.Load()
}

// Close stops the poll loop and joins it. The offline announcement is
// sent by the loop on its way out.
func (s *Session) Close() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stop)
	s.wg.Wait()
}

// SessionPassword returns the current session credential; empty means
// no active session.
func (s *Session) SessionPassword() string {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	return s.sessionPassword
}

// ResetSession discards the session credential and negotiates a new one,
// announcing offline and online around the exchange. Used when the
// credential is compromised or expired; safe to call at any time.
func (s *Session) ResetSession() {
	s.sessionMu.Lock()
	s.sessionPassword = ""
	s.sessionMu.Unlock()

	s.broadcastOnline(false)
	s.broadcastOnline(true)
	s.createSession()
}

// fetchResult classifies one fetch cycle.
type fetchResult int

const (
	fetchOK fetchResult = iota
	fetchFailed
	fetchAuthFailed
)

// pollLoop is the Session's single worker. No failure escapes it; every
// cycle either applies tasks or logs why it could not.
func (s *Session) pollLoop() {
	defer s.wg.Done()
	s.logger.Info("starting gateway client", "url", s.baseURL, "update_rate", s.cfg.UpdateRate)

	s.broadcastOnline(true)

	if !s.createSession() {
		s.logger.Error("could not create gateway session, gateway client disabled")
		s.broadcastOnline(false)
		return
	}

	authStreak := 0
	for {
		select {
		case <-s.stop:
			s.broadcastOnline(false)
			s.logger.Info("gateway client stopped")
			return
		default:
		}

		switch s.fetchAndApply() {
		case fetchOK:
			authStreak = 0
			s.broadcastState()
		case fetchAuthFailed:
			authStreak++
			if authStreak >= authFailureThreshold {
				s.logger.Warn("repeated authentication failures, resetting session", "failures", authStreak)
				s.ResetSession()
				authStreak = 0
			}
		case fetchFailed:
			// Transient: skip this cycle, keep the fixed interval.
		}

		select {
		case <-s.stop:
			s.broadcastOnline(false)
			s.logger.Info("gateway client stopped")
			return
		case <-time.After(s.cfg.UpdateRate):
		}
	}
}

// baseRequest stamps the shared request fields.
func (s *Session) baseRequest() baseRequest {
	return baseRequest{
		Password:  s.cfg.Password,
		Timestamp: time.Now().UnixMilli(),
	}
}

// postJSON sends one request and returns status and body. The
// cache-suppressing header keeps CDN layers from replaying task lists.
func (s *Session) postJSON(path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "private,max-age=0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// checkStatus reports whether a response is usable. Anything but 200 is
// a failure; the gateway's error envelope is surfaced in the log when it
// decodes, the raw decode failure otherwise.
func (s *Session) checkStatus(path string, status int, body []byte) bool {
	if status == http.StatusOK {
		return true
	}

	var eres errorResponse
	if err := json.Unmarshal(body, &eres); err == nil && eres.Error != "" {
		s.logger.Error("gateway rejected request", "path", path, "status", status, "error", eres.Error)
	} else {
		s.logger.Error("gateway rejected request, could not decode error", "path", path, "status", status)
	}
	return false
}

// createSession negotiates the ephemeral session credential.
func (s *Session) createSession() bool {
	status, body, err := s.postJSON("/newsession", s.baseRequest())
	if err != nil {
		s.logger.Error("could not create session", "error", err)
		return false
	}
	if !s.checkStatus("/newsession", status, body) {
		return false
	}

	var res sessionResponse
	if err := json.Unmarshal(body, &res); err != nil || res.Password == "" {
		s.logger.Warn("received invalid new session response")
		return false
	}

	s.sessionMu.Lock()
	s.sessionPassword = res.Password
	s.sessionMu.Unlock()

	s.logger.Info("created gateway session")
	s.notifyGatewayLog("session created")
	return true
}

// fetchAndApply runs one fetch cycle: pull the pending tasks and apply
// them to the device controller in order.
func (s *Session) fetchAndApply() fetchResult {
	status, body, err := s.postJSON("/fetch", s.baseRequest())
	if err != nil {
		s.logger.Error("could not fetch tasks", "error", err)
		return fetchFailed
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		s.checkStatus("/fetch", status, body)
		return fetchAuthFailed
	}
	if !s.checkStatus("/fetch", status, body) {
		return fetchFailed
	}

	var res fetchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		s.logger.Warn("malformed response body", "error", err)
		return fetchFailed
	}
	if res.Tasks == nil {
		s.logger.Warn("malformed response body: missing tasks list")
		return fetchFailed
	}

	tasks := *res.Tasks
	s.notifyGatewayLog(fmt.Sprintf("fetched %d tasks from endpoint", len(tasks)))

	for _, task := range tasks {
		s.applyTask(task)
	}
	return fetchOK
}

// applyTask routes one remote task to the matching mutator.
func (s *Session) applyTask(t Task) {
	switch t.Type {
	case TaskPower:
		s.ctrl.SetIsOn(t.IsOn)
	case TaskSpeed:
		s.ctrl.SetSpeed(t.Speed)
	case TaskMode:
		s.ctrl.SetMode(t.Mode)
	default:
		s.logger.Warn("unknown task type", "type", string(t.Type))
	}
}

// broadcastOnline announces bridge presence.
func (s *Session) broadcastOnline(isOnline bool) {
	req := onlineRequest{baseRequest: s.baseRequest(), IsOnline: isOnline}
	status, body, err := s.postJSON("/setonline", req)
	if err != nil {
		s.logger.Error("could not announce presence", "is_online", isOnline, "error", err)
		return
	}
	s.checkStatus("/setonline", status, body)
}

// broadcastState reports the current device snapshot.
func (s *Session) broadcastState() {
	req := stateRequest{baseRequest: s.baseRequest(), State: s.ctrl.Snapshot()}
	status, body, err := s.postJSON("/setstate", req)
	if err != nil {
		s.logger.Error("could not report state", "error", err)
		return
	}
	s.checkStatus("/setstate", status, body)
}

func (s *Session) notifyGatewayLog(line string) {
	s.notifyMu.RLock()
	defer s.notifyMu.RUnlock()
	for _, n := range s.notifiers {
		n.GatewayLog(line)
	}
}

// nopLogger discards everything; replaced via SetLogger.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
