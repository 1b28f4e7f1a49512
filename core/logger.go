package core

// Logger is any service that can log messages by level.
// Implementations may interpret extra args as structured context;
// a user.User arg identifies the acting user where supported.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
