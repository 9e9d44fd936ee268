package model

// Logger is the full logging surface handed to transport adapters and
// main. It extends the narrow outbound logging port with runtime level
// control and shutdown, which only the outer layers may touch.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	UpdateLevel(logLvl string)
	Shutdown()
}
