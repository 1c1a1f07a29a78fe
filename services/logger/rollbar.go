package logsvc

import (
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/volonteri/evidencija/core"
)

// RollbarLogger writes every entry to std and reports it to Rollbar when enabled.
// Debug entries only reach std in debug mode.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

// Enable turns reporting to Rollbar on or off.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is one log call split the way Rollbar wants it.
type entry struct {
	msg    string
	err    error
	extras map[string]interface{}
	caller core.Identity
	other  []interface{}
}

// split sorts args into: the first error, merged extras, the first identity with a subject, the rest.
func split(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch a := arg.(type) {
		case core.Identity:
			if e.caller.Subject == "" {
				e.caller = a
			}
		case error:
			if e.err == nil {
				e.err = a
			} else {
				e.other = append(e.other, a)
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(a))
			}
			for k, v := range a {
				e.extras[k] = v
			}
		default:
			e.other = append(e.other, arg)
		}
	}
	return e
}

// rollbarArgs is the argument list for rollbar.Log; the caller is set as the Rollbar person.
func (e entry) rollbarArgs() []interface{} {
	if e.caller.Subject != "" {
		rollbar.SetPerson(e.caller.Subject, e.caller.Name, e.caller.Email)
	} else {
		rollbar.ClearPerson()
	}

	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if e.extras != nil {
		args = append(args, e.extras)
	}
	return append(args, e.other...)
}

func (l RollbarLogger) log(level string, msg string, args []interface{}) {
	e := split(msg, args)
	rollbar.Log(level, e.rollbarArgs()...)
	if level == rollbar.DEBUG && !l.debug {
		return
	}
	l.print(level, e)
}

// print writes "[LEVEL] msg caller=<subject>" followed by one line per other arg. Emails stay out of std.
func (l RollbarLogger) print(level string, e entry) {
	line := "[" + strings.ToUpper(level) + "] " + e.msg
	if e.caller.Subject != "" {
		line += " caller=" + e.caller.Subject
	}
	l.std.Println(line)
	if e.err != nil {
		l.std.Printf("%+v\n", e.err)
	}
	if e.extras != nil {
		l.std.Printf("%+v\n", e.extras)
	}
	for _, arg := range e.other {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
