package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mwiater/qaeval/internal/util"
)

// maxPayloadRunes bounds how much of a request or response body is logged.
const maxPayloadRunes = 2000

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init routes the standard logger to stdout and, when logPath is set, to an
// append-only log file. Pass console=false while a full-screen TUI owns the
// terminal.
func Init(logPath string, console bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stdout)
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close flushes and detaches the log file, restoring stderr output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// LogEvent writes a formatted line to the application log.
func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogRequest records traffic between qaeval and the completion service as
// one line: [DIRECTION] host=... model=... payload=...
func LogRequest(direction, host, model string, payload any) {
	log.Println(requestLine(direction, host, model, payload))
}

func requestLine(direction, host, model string, payload any) string {
	return fmt.Sprintf("[%s] host=%s model=%s payload=%s",
		strings.ToUpper(strings.TrimSpace(direction)),
		orUnknown(host),
		orUnknown(model),
		payloadText(payload, maxPayloadRunes))
}

func orUnknown(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "unknown"
	}
	return v
}

// payloadText renders a request or response body and cuts it to limit runes.
// Bodies are usually marshalled JSON bytes or a raw completion string.
func payloadText(payload any, limit int) string {
	var text string
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		text = v
	case []byte:
		text = string(v)
	case json.RawMessage:
		text = string(v)
	case fmt.Stringer:
		text = v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			text = fmt.Sprintf("%v", v)
		} else {
			text = string(data)
		}
	}
	if strings.TrimSpace(text) == "" {
		return `""`
	}
	return util.TruncateRunes(text, limit)
}
