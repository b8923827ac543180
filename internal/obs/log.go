package obs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared line logger: one JSON object per line on stdout.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// Log emits one structured line. The timestamp, level and message are
// stamped here; callers supply only the event fields.
func Log(level, msg string, fields map[string]any) {
	Logger().Println(string(encode(time.Now(), level, msg, fields)))
}

// encode builds the JSON line. A field value that cannot be serialized is
// replaced with a placeholder so one bad value never suppresses the line.
func encode(ts time.Time, level, msg string, fields map[string]any) []byte {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = ts.UTC().Format(time.RFC3339Nano)
	entry["level"] = level
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err == nil {
		return data
	}
	for k, v := range fields {
		if _, fieldErr := json.Marshal(v); fieldErr != nil {
			entry[k] = fmt.Sprintf("(unencodable %T)", v)
		}
	}
	if data, err = json.Marshal(entry); err == nil {
		return data
	}
	data, _ = json.Marshal(map[string]any{
		"ts":    ts.UTC().Format(time.RFC3339Nano),
		"level": "error",
		"msg":   "log_encode_failed",
	})
	return data
}
