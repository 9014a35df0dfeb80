package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(INFO))
}

func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

func GetLevel() Level {
	return Level(currentLevel.Load())
}

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func logAt(level Level, component, msg string, fields map[string]interface{}) {
	if level < GetLevel() {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] [")
	b.WriteString(component)
	b.WriteString("] ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
	}

	fmt.Fprintln(os.Stderr, b.String())
}

// DebugC logs a component-scoped debug message.
func DebugC(component, msg string) { logAt(DEBUG, component, msg, nil) }

// DebugCF logs a component-scoped debug message with structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	logAt(DEBUG, component, msg, fields)
}

func InfoC(component, msg string) { logAt(INFO, component, msg, nil) }

func InfoCF(component, msg string, fields map[string]interface{}) {
	logAt(INFO, component, msg, fields)
}

func WarnC(component, msg string) { logAt(WARN, component, msg, nil) }

func WarnCF(component, msg string, fields map[string]interface{}) {
	logAt(WARN, component, msg, fields)
}

func ErrorC(component, msg string) { logAt(ERROR, component, msg, nil) }

func ErrorCF(component, msg string, fields map[string]interface{}) {
	logAt(ERROR, component, msg, fields)
}
