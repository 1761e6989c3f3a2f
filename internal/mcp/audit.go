package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEntry records one MCP tool invocation.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	RunID      string            `json:"run_id,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to dir/audit.jsonl. It is safe for
// concurrent use. A nil AuditLogger is safe to use; all methods are no-ops
// on nil receiver.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for append. If the file cannot be
// created, a warning is printed to stderr and nil is returned.
func NewAuditLogger(dir string) *AuditLogger {
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create audit log directory %s: %v\n", dir, err)
		return nil
	}

	path := filepath.Join(dir, "audit.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open audit log %s: %v\n", path, err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends entry as a single JSON line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	_, _ = a.file.Write(data)
}

// Close closes the audit file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// sanitizeToolParams keeps numeric run parameters verbatim and records
// only the presence of formula text.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	safeValueParams := map[string]bool{
		"men_users":    true,
		"men_swipes":   true,
		"women_users":  true,
		"women_swipes": true,
		"days":         true,
		"seed":         true,
		"bins":         true,
		"points":       true,
		"workers":      true,
	}
	presenceOnlyParams := map[string]bool{
		"men_formula":   true,
		"women_formula": true,
		"formula":       true,
	}

	result := make(map[string]string)
	set := 0
	for key, val := range params {
		if isNilValue(val) {
			continue
		}
		set++
		switch {
		case safeValueParams[key]:
			result[key] = fmt.Sprintf("%v", deref(val))
		case presenceOnlyParams[key]:
			result[key] = "(set)"
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", set)
	return result
}

func isNilValue(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case *int:
		return p == nil
	case *uint64:
		return p == nil
	case *string:
		return p == nil
	case string:
		return p == ""
	}
	return false
}

func deref(v any) any {
	switch p := v.(type) {
	case *int:
		return *p
	case *uint64:
		return *p
	case *string:
		return *p
	}
	return v
}

// auditTool logs a tool invocation.
func (s *Server) auditTool(toolName string, start time.Time, err error, runID string, params map[string]string) {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}

	s.auditLogger.Log(AuditEntry{
		Timestamp:  start,
		Tool:       toolName,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     status,
		Error:      errMsg,
		RunID:      runID,
		Params:     params,
	})
}
