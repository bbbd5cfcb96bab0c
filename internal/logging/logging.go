package logging

import (
	"log"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

var debugEnabled atomic.Bool

// maxPayloadLog caps how much of a D-Bus JSON payload is echoed to the log.
const maxPayloadLog = 512

// EnableDebug turns on verbose debug logging for the application lifecycle.
func EnableDebug() {
	debugEnabled.Store(true)
	log.Printf("[DEBUG] debug logging enabled")
}

// DebugEnabled reports whether debug logging is active.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf emits a formatted debug log message when debugging is enabled.
func Debugf(format string, args ...interface{}) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// LogBusCall emits the method and arguments of an outbound session-bus call
// when debugging is enabled.
func LogBusCall(method string, args ...interface{}) {
	if !DebugEnabled() {
		return
	}
	if len(args) == 0 {
		log.Printf("[DEBUG] bus call %s()", method)
		return
	}
	log.Printf("[DEBUG] bus call %s%v", method, args)
}

// LogBusReply emits the outcome of a session-bus call when debugging is
// enabled. JSON payloads are truncated so window lists do not flood the log.
func LogBusReply(method string, payload string, err error) {
	if !DebugEnabled() {
		return
	}
	if err != nil {
		log.Printf("[DEBUG] bus reply %s error: %v", method, err)
		return
	}
	if payload == "" {
		log.Printf("[DEBUG] bus reply %s ok", method)
		return
	}
	log.Printf("[DEBUG] bus reply %s payload %s", method, describePayload(payload))
}

func describePayload(payload string) string {
	if !utf8.ValidString(payload) {
		return "(binary)"
	}
	if len(payload) <= maxPayloadLog {
		return payload
	}
	return payload[:maxPayloadLog] + "...(truncated)"
}

// MaskIdentifier obscures sensitive identifiers leaving only the last four characters visible.
func MaskIdentifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-4:]
}
