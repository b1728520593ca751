package worker

import (
	"log"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// LogLevel controls coordinator log verbosity. The default is silent;
// set CLIMOGRAM_WORKER_LOG_LEVEL to enable structured event logging.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "none"
	}
}

func parseLogLevel(raw string) LogLevel {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "error", "err", "1":
		return LogLevelError
	case "info", "2":
		return LogLevelInfo
	case "debug", "3":
		return LogLevelDebug
	default:
		return LogLevelNone
	}
}

func logLevelFromEnv() LogLevel {
	return parseLogLevel(os.Getenv("CLIMOGRAM_WORKER_LOG_LEVEL"))
}

// logEvent writes one JSON line for an event when the configured level
// admits it.
func (c *Coordinator) logEvent(level LogLevel, event string, fields map[string]any) {
	if c == nil || level == LogLevelNone || c.logLevel == LogLevelNone || level > c.logLevel {
		return
	}
	payload := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level.String(),
		"component": "coordinator",
		"event":     event,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("coordinator: failed to marshal log event %s: %v", event, err)
		return
	}
	log.Printf("%s", b)
}
