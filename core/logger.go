package core

// Logger is the application logger.
// args may carry errors, extra data (map[string]interface{}) and the caller's Identity.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity is a caller verified from a bearer token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}
