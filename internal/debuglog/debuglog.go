// Package debuglog provides opt-in debug tracing for the quarry CLI.
//
// Tracing is off by default. It is enabled with QUARRY_DEBUG=1 or the debug
// config key, and writes to stderr unless a debug log file is configured, in
// which case output goes through a size-capped rotating file so long watch
// sessions cannot fill the disk.
package debuglog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	enabled bool
	sink    io.Writer = os.Stderr
	closer  io.Closer
)

// Init configures the debug sink. An empty file path keeps output on stderr.
func Init(on bool, file string) {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	enabled = on
	sink = os.Stderr
	if on && file != "" {
		logger := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		sink = logger
		closer = logger
	}
}

// Enabled reports whether debug tracing is on.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Logf writes one timestamped trace line when tracing is enabled.
func Logf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	fmt.Fprintf(sink, "[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}
