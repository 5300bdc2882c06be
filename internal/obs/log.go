// Package obs is the observability plumbing: the shared JSON log writer,
// prometheus HTTP metrics, and build info.
package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide log writer. Every line it emits is a
// single JSON document, so log shippers need no multiline handling.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest writes one JSON access-log line per served request. Fields come
// from the HTTP middleware; the timestamp is stamped here.
func LogRequest(fields map[string]any) {
	if _, ok := fields["ts"]; !ok {
		fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"access log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
