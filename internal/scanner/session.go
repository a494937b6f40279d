package scanner

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/identity"
)

type State int

const (
	Idle State = iota
	RequestingPermission
	Scanning
	StoppedSuccess
	ErrorTerminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RequestingPermission:
		return "requesting_permission"
	case Scanning:
		return "scanning"
	case StoppedSuccess:
		return "stopped_success"
	case ErrorTerminal:
		return "error"
	}
	return "unknown"
}

var (
	ErrAlreadyRunning = errors.New("scan session already running")
	ErrStopped        = errors.New("scan session stopped")
)

const DefaultInterval = 300 * time.Millisecond

// FrameDecoder extracts the text of one QR symbol from a frame.
type FrameDecoder interface {
	Decode(img image.Image) (string, error)
}

// MatchFunc accepts or rejects a decoded customer payload. A rejection keeps
// the session scanning.
type MatchFunc func(ctx context.Context, raw string, p identity.Payload) error

// Config wires a session. Match and OnReject are called one at a time while
// the polling loop waits, and either may call Stop on the session.
type Config struct {
	Device   Device
	Decoder  FrameDecoder
	Match    MatchFunc
	OnReject func(p identity.Payload, err error)
	Interval time.Duration
	Logger   *slog.Logger
}

type Result struct {
	Raw     string
	Payload identity.Payload
}

// Session polls a device until a matching customer code is seen or the
// session is stopped. Every exit path stops all tracks of the opened stream
// before Wait or Stop return.
type Session struct {
	cfg Config

	mu         sync.Mutex
	state      State
	cancel     context.CancelFunc
	done       chan struct{}
	result     Result
	err        error
	rejections int
}

func NewSession(cfg Config) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{cfg: cfg}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Rejections returns how many distinct codes Match refused in the last run.
func (s *Session) Rejections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejections
}

func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == RequestingPermission || s.state == Scanning {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = RequestingPermission
	s.result = Result{}
	s.err = nil
	s.rejections = 0

	go s.run(runCtx, cancel, s.done)
	return nil
}

// Stop cancels a running session and waits until its tracks are released.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the session ends. A stopped session returns ErrStopped.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return Result{}, ErrStopped
	}

	select {
	case <-done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StoppedSuccess:
		return s.result, nil
	case ErrorTerminal:
		return Result{}, s.err
	default:
		return Result{}, ErrStopped
	}
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	stream, err := s.cfg.Device.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.finish(Idle, Result{}, nil)
			return
		}
		s.cfg.Logger.Warn("camera open failed", "error", err)
		s.finish(ErrorTerminal, Result{}, err)
		return
	}

	var release sync.Once
	defer release.Do(func() { StopAll(stream) })

	if ctx.Err() != nil {
		s.finish(Idle, Result{}, nil)
		return
	}
	s.setState(Scanning)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	lastRejected := ""
	for {
		img, err := stream.Frame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.finish(Idle, Result{}, nil)
				return
			}
			s.cfg.Logger.Warn("camera frame read failed", "error", err)
			s.finish(ErrorTerminal, Result{}, err)
			return
		}

		if img != nil {
			if res, ok := s.inspect(ctx, img, &lastRejected); ok {
				s.finish(StoppedSuccess, res, nil)
				return
			}
		}

		select {
		case <-ctx.Done():
			s.finish(Idle, Result{}, nil)
			return
		case <-ticker.C:
		}
	}
}

func (s *Session) inspect(ctx context.Context, img image.Image, lastRejected *string) (Result, bool) {
	raw, err := s.cfg.Decoder.Decode(img)
	if err != nil {
		return Result{}, false
	}
	p, err := identity.Decode(raw)
	if err != nil {
		s.cfg.Logger.Debug("ignoring non-json qr code", "error", err)
		return Result{}, false
	}
	if p.Type != identity.TypeCustomer {
		s.cfg.Logger.Debug("ignoring qr code of unexpected type", "type", p.Type)
		return Result{}, false
	}

	if s.cfg.Match != nil {
		var err error
		if !callback(ctx, func() { err = s.cfg.Match(ctx, raw, p) }) {
			return Result{}, false
		}
		if err != nil {
			// the same code stays in view for many frames; report it once
			if raw != *lastRejected {
				*lastRejected = raw
				s.mu.Lock()
				s.rejections++
				s.mu.Unlock()
				if s.cfg.OnReject != nil {
					callback(ctx, func() { s.cfg.OnReject(p, err) })
				}
			}
			return Result{}, false
		}
	}
	return Result{Raw: raw, Payload: p}, true
}

// callback runs fn off the polling goroutine and waits for it until ctx ends,
// so fn may Stop its own session. It reports whether fn finished.
func callback(ctx context.Context, fn func()) bool {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		fn()
	}()
	select {
	case <-finished:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == RequestingPermission {
		s.state = st
	}
}

func (s *Session) finish(st State, res Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.result = res
	s.err = err
}
