package outbound

// Logger defines the interface for structured logging operations.
// Implementations are expected to be asynchronous so the render loop
// never blocks on log output.
type Logger interface {
	// logs messages with optional structured arguments
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}
