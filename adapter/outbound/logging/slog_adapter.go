package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajkula/GoGRT/config"
)

type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// parseLogLevel converts a config string to a LogLevel. Unknown
// values fall back to info so a typo never silences the service.
func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return LevelError
	case "warn":
		return LevelWarn
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// represents a single log entry to be processed asynchronously
type LogMessage struct {
	Level LogLevel
	Msg   string
	Args  []any
	Time  time.Time
}

// implements the Logger interfaces using Go's structured logging (slog)
// with asynchronous processing to avoid blocking the render loop
type SlogAdapter struct {
	logger    *slog.Logger
	config    *config.Config
	logChan   chan LogMessage
	ctx       context.Context
	cancel    context.CancelFunc
	slogLevel *slog.LevelVar
	dropped   atomic.Uint64

	mu    sync.RWMutex
	level LogLevel
}

func NewSlogAdapter(cfg *config.Config) *SlogAdapter {
	ctx, cancel := context.WithCancel(context.Background())

	level := parseLogLevel(cfg.General.LogLevel)

	// LevelVar lets the handler level change without rebuilding it
	levelVar := &slog.LevelVar{}
	levelVar.Set(level.slogLevel())

	handlerOpts := &slog.HandlerOptions{
		Level: levelVar,
	}

	channelSize := cfg.Logging.ChannelSize
	if channelSize <= 0 {
		channelSize = 1000
	}

	adapter := &SlogAdapter{
		logger:    slog.New(newHandler(cfg, handlerOpts)),
		config:    cfg,
		logChan:   make(chan LogMessage, channelSize),
		ctx:       ctx,
		cancel:    cancel,
		slogLevel: levelVar,
		level:     level,
	}

	go adapter.processLogs()

	return adapter
}

// newHandler picks the output and format from the logging section.
func newHandler(cfg *config.Config, opts *slog.HandlerOptions) slog.Handler {
	var out io.Writer = os.Stdout
	switch strings.ToLower(cfg.Logging.Output) {
	case "stderr":
		out = os.Stderr
	case "file":
		if cfg.Logging.FilePath != "" {
			if f, err := os.OpenFile(cfg.Logging.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
				out = f
			}
		}
	}

	if strings.ToLower(cfg.Logging.Format) == "text" {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// UpdateLevel changes the filter level at runtime and keeps the
// config sections in sync so a later save persists it.
func (s *SlogAdapter) UpdateLevel(logLvl string) {
	normalizedLevel := strings.ToLower(logLvl)
	level := parseLogLevel(normalizedLevel)

	s.mu.Lock()
	s.level = level
	s.config.General.LogLevel = normalizedLevel
	s.config.Logging.Level = strings.ToUpper(normalizedLevel)
	s.mu.Unlock()

	s.slogLevel.Set(level.slogLevel())

	s.Info("Logger level updated dynamically", "new_level", normalizedLevel)
}

// handles messages asynchronously
func (s *SlogAdapter) processLogs() {
	for {
		select {
		case msg := <-s.logChan:
			s.writeLog(msg)
		case <-s.ctx.Done():
			// drain what is already queued before exiting
			for {
				select {
				case msg := <-s.logChan:
					s.writeLog(msg)
				default:
					if n := s.dropped.Load(); n > 0 {
						s.writeLog(LogMessage{
							Level: LevelWarn,
							Msg:   "log messages dropped on overflow",
							Args:  []any{"count", n},
							Time:  time.Now(),
						})
					}
					return
				}
			}
		}
	}
}

// performs the logging operation
func (s *SlogAdapter) writeLog(msg LogMessage) {
	switch msg.Level {
	case LevelError:
		s.logger.Error(msg.Msg, msg.Args...)
	case LevelWarn:
		s.logger.Warn(msg.Msg, msg.Args...)
	case LevelInfo:
		s.logger.Info(msg.Msg, msg.Args...)
	case LevelDebug:
		s.logger.Debug(msg.Msg, msg.Args...)
	}
}

func (s *SlogAdapter) sendLog(level LogLevel, msg string, args ...any) {
	select {
	case s.logChan <- LogMessage{
		Level: level,
		Msg:   msg,
		Args:  args,
		Time:  time.Now(),
	}:
	default:
		// never block a caller on a full channel
		s.dropped.Add(1)
	}
}

func (s *SlogAdapter) shouldLog(level LogLevel) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return level <= s.level
}

func (s *SlogAdapter) Error(msg string, args ...any) {
	if !s.shouldLog(LevelError) {
		return
	}
	s.sendLog(LevelError, msg, args...)
}

func (s *SlogAdapter) Warn(msg string, args ...any) {
	if !s.shouldLog(LevelWarn) {
		return
	}
	s.sendLog(LevelWarn, msg, args...)
}

func (s *SlogAdapter) Info(msg string, args ...any) {
	if !s.shouldLog(LevelInfo) {
		return
	}
	s.sendLog(LevelInfo, msg, args...)
}

func (s *SlogAdapter) Debug(msg string, args ...any) {
	if !s.shouldLog(LevelDebug) {
		return
	}
	s.sendLog(LevelDebug, msg, args...)
}

func (s *SlogAdapter) Shutdown() {
	s.cancel()
}
