// Package logging provides leveled logging and per-day event logs for swipesim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A DayLogger for structured JSONL day events (.swipesim/days.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level the engine
// logs every sampled view.
const LevelTrace = slog.LevelDebug - 4

// DayLogFile is the name of the per-day event log inside the log dir.
const DayLogFile = "days.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w. Format "json"
// selects the JSON handler; anything else writes text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// DayEvent is one line of the day log.
type DayEvent struct {
	Time        string `json:"time"`
	RunID       string `json:"run_id"`
	Day         int    `json:"day"`
	SwipesA     int    `json:"swipes_a"`
	SwipesB     int    `json:"swipes_b"`
	LikesGivenA int    `json:"likes_given_a"`
	LikesGivenB int    `json:"likes_given_b"`
	Matches     int    `json:"matches"`
}

// DayLogger appends DayEvents to days.jsonl, one per simulated day.
// A nil *DayLogger drops every event, so callers never need to check
// whether day logging is on.
type DayLogger struct {
	mu  sync.Mutex
	enc *json.Encoder
	f   *os.File
	now func() time.Time
}

// NewDayLogger opens dir/days.jsonl for append when level is debug or
// trace. At info it returns nil. Failure to create the file also returns
// nil: the day log is diagnostic and never blocks a run.
func NewDayLogger(dir string, level string) *DayLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, DayLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &DayLogger{enc: json.NewEncoder(f), f: f, now: time.Now}
}

// Log appends ev. An empty Time is stamped with the current UTC time.
func (dl *DayLogger) Log(ev DayEvent) {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.f == nil {
		return
	}
	if ev.Time == "" {
		ev.Time = dl.now().UTC().Format(time.RFC3339Nano)
	}
	_ = dl.enc.Encode(ev)
}

// Close closes the underlying file.
func (dl *DayLogger) Close() {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.f != nil {
		dl.f.Close()
		dl.f = nil
	}
}
