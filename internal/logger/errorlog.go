package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry levels written to the error log file.
const (
	LevelError = "ERROR"
	LevelInfo  = "INFO"
)

// Entry types.
const (
	TypeAPIError = "api_error"
	TypeError    = "error"
	TypeInfo     = "info"
)

const maxStackLines = 5

// ErrClosed is returned by Flush once the log has been closed.
var ErrClosed = errors.New("error log closed")

// ErrorLogConfig configures the file-backed error log.
type ErrorLogConfig struct {
	Dir  string
	File string
	// MaxSize is the size in bytes at or above which the file is rotated.
	MaxSize int64
	// RotationInterval is the minimum time between two size checks.
	RotationInterval time.Duration
	QueueSize        int
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// RequestContext is the HTTP context attached to API error entries.
type RequestContext struct {
	Path       string
	Method     string
	StatusCode int
	RequestID  string
	// Body is the offending request body, if any. It is marshalled as JSON.
	Body any
}

// ErrorLog appends newline-delimited JSON entries to a single file.
//
// Entries are rendered by zerolog on the caller's goroutine and handed to a
// single writer goroutine over a channel; only that goroutine touches the
// file, so lines land in enqueue order and never interleave. Failures are
// reported on the diagnostic logger and never reach the caller.
type ErrorLog struct {
	cfg     ErrorLogConfig
	path    string
	diag    zerolog.Logger
	entries zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan request
	done   chan struct{}

	// owned by the writer goroutine
	lastCheck time.Time

	subMu sync.Mutex
	subs  map[chan []byte]struct{}
}

type request struct {
	line    []byte
	flushed chan struct{}
}

// NewErrorLog creates the log and starts its writer goroutine.
func NewErrorLog(cfg ErrorLogConfig, diag zerolog.Logger) *ErrorLog {
	if cfg.Dir == "" {
		cfg.Dir = "logs"
	}
	if cfg.File == "" {
		cfg.File = "api-errors.log"
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10 * 1024 * 1024
	}
	if cfg.RotationInterval <= 0 {
		cfg.RotationInterval = 5 * time.Minute
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &ErrorLog{
		cfg:   cfg,
		path:  filepath.Join(cfg.Dir, cfg.File),
		diag:  diag.With().Str("component", "error_log").Logger(),
		queue: make(chan request, cfg.QueueSize),
		done:  make(chan struct{}),
		subs:  make(map[chan []byte]struct{}),
	}
	l.entries = zerolog.New(queueWriter{l})

	go l.run()
	return l
}

// Path returns the path of the active log file.
func (l *ErrorLog) Path() string {
	return l.path
}

// LogAPIError records an error raised while serving an HTTP request.
func (l *ErrorLog) LogAPIError(err error, rc RequestContext) {
	req := zerolog.Dict().
		Str("path", rc.Path).
		Str("method", rc.Method).
		Int("statusCode", rc.StatusCode)
	if rc.RequestID != "" {
		req = req.Str("requestId", rc.RequestID)
	}
	if rc.Body != nil {
		req = req.Interface("body", rc.Body)
	}

	l.event(LevelError, TypeAPIError).
		Dict("error", errorDict(err, callerStack(1))).
		Dict("request", req).
		Send()
}

// LogError records an error that is not tied to a request.
func (l *ErrorLog) LogError(err error, fields map[string]any) {
	e := l.event(LevelError, TypeError).
		Dict("error", errorDict(err, callerStack(1)))
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Send()
}

// LogInfo records an informational entry.
func (l *ErrorLog) LogInfo(msg string, fields map[string]any) {
	e := l.event(LevelInfo, TypeInfo).Str("message", msg)
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Send()
}

// Flush blocks until every entry enqueued before the call has been written.
func (l *ErrorLog) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !l.enqueue(request{flushed: done}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the writer goroutine. Entries logged
// after Close are dropped.
func (l *ErrorLog) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.done

	l.subMu.Lock()
	for ch := range l.subs {
		close(ch)
		delete(l.subs, ch)
	}
	l.subMu.Unlock()
}

// Subscribe returns a channel receiving every line after it is appended,
// and a function that cancels the subscription. Lines are dropped for a
// subscriber whose buffer is full. After Close the channel is already closed.
func (l *ErrorLog) Subscribe(buffer int) (<-chan []byte, func()) {
	ch := make(chan []byte, buffer)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		close(ch)
		return ch, func() {}
	}

	l.subMu.Lock()
	l.subs[ch] = struct{}{}
	l.subMu.Unlock()

	cancel := func() {
		l.subMu.Lock()
		if _, ok := l.subs[ch]; ok {
			delete(l.subs, ch)
			close(ch)
		}
		l.subMu.Unlock()
	}
	return ch, cancel
}

func (l *ErrorLog) event(level, typ string) *zerolog.Event {
	return l.entries.Log().
		Str("timestamp", l.cfg.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")).
		Str("level", level).
		Str("type", typ)
}

func (l *ErrorLog) enqueue(r request) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	l.queue <- r
	return true
}

func (l *ErrorLog) run() {
	defer close(l.done)
	for r := range l.queue {
		if r.flushed != nil {
			close(r.flushed)
			continue
		}
		l.append(r.line)
	}
}

func (l *ErrorLog) append(line []byte) {
	if err := os.MkdirAll(l.cfg.Dir, 0o755); err != nil {
		l.diag.Error().Err(err).Str("dir", l.cfg.Dir).Msg("Failed to create log directory")
		return
	}

	l.rotateIfNeeded()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.diag.Error().Err(err).Str("path", l.path).Msg("Failed to open log file")
		return
	}
	_, werr := f.Write(line)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		l.diag.Error().Err(err).Str("path", l.path).Msg("Failed to append log entry")
		return
	}

	l.publish(line)
}

// rotateIfNeeded renames the active file once it reaches MaxSize. The size
// is only inspected when more than RotationInterval has passed since the
// previous check; a missing file means there is nothing to rotate.
func (l *ErrorLog) rotateIfNeeded() {
	now := l.cfg.Now()
	if now.Sub(l.lastCheck) <= l.cfg.RotationInterval {
		return
	}
	l.lastCheck = now

	info, err := os.Stat(l.path)
	if err != nil || info.Size() < l.cfg.MaxSize {
		return
	}

	rotated := RotatedName(l.path, now)
	if err := os.Rename(l.path, rotated); err != nil {
		l.diag.Error().Err(err).Str("path", l.path).Msg("Failed to rotate log file")
		return
	}
	l.diag.Info().Str("rotated_to", rotated).Int64("size", info.Size()).Msg("Log file rotated")
}

func (l *ErrorLog) publish(line []byte) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// RotatedName builds the archive name for path at t: the base name followed
// by the ISO-8601 timestamp with ':' and '.' replaced by '-'.
func RotatedName(path string, t time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s-%s%s", base, stamp, ext)
}

// queueWriter hands each rendered zerolog line to the writer goroutine.
type queueWriter struct {
	l *ErrorLog
}

func (w queueWriter) Write(p []byte) (int, error) {
	// zerolog reuses its buffer after Write returns.
	line := make([]byte, len(p))
	copy(line, p)
	if !w.l.enqueue(request{line: line}) {
		w.l.diag.Warn().Bytes("entry", line).Msg("Error log closed, entry dropped")
	}
	return len(p), nil
}

func errorDict(err error, stack string) *zerolog.Event {
	d := zerolog.Dict()
	if err == nil {
		return d.Str("name", "Error").Str("message", "unknown error")
	}
	return d.
		Str("name", errorName(err)).
		Str("message", err.Error()).
		Str("stack", stack)
}

// errorName prefers a classification exposed by the error chain and falls
// back to the dynamic type of the outermost error.
func errorName(err error) string {
	var named interface{ ErrorName() string }
	if errors.As(err, &named) {
		return named.ErrorName()
	}
	return fmt.Sprintf("%T", err)
}

// callerStack renders up to maxStackLines frames, starting skip frames
// above its own caller.
func callerStack(skip int) string {
	pcs := make([]uintptr, maxStackLines)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	lines := make([]string, 0, maxStackLines)
	for {
		f, more := frames.Next()
		lines = append(lines, fmt.Sprintf("at %s (%s:%d)", f.Function, f.File, f.Line))
		if !more || len(lines) == maxStackLines {
			break
		}
	}
	return strings.Join(lines, "\n")
}
