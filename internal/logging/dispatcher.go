package logging

import "github.com/rs/zerolog"

// DispatcherLogger writes dispatcher events through zerolog. Every entry
// carries component=dispatcher.
type DispatcherLogger struct {
	logger zerolog.Logger
}

func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger.With().Str("component", "dispatcher").Logger()}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.log(l.logger.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.log(l.logger.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.log(l.logger.Error(), msg, keysAndValues)
}

// log adds key/value pairs to ev. Pairs with a non-string key and a trailing
// key without a value are dropped; error values are written as strings.
func (l *DispatcherLogger) log(ev *zerolog.Event, msg string, keysAndValues []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
