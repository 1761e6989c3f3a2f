package mcp

import (
	"testing"

	"github.com/nvandessel/swipesim/internal/config"
)

func TestNewServer(t *testing.T) {
	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.runner == nil {
		t.Error("Server.runner is nil")
	}
	if server.settings == nil {
		t.Fatal("Server.settings is nil")
	}
	if server.settings.Simulation.CohortA.Formula != config.Default().Simulation.CohortA.Formula {
		t.Errorf("default formula = %q", server.settings.Simulation.CohortA.Formula)
	}
	if server.auditLogger != nil {
		t.Error("audit logger should be disabled without AuditDir")
	}
}

func TestNewServer_WithAuditDir(t *testing.T) {
	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		AuditDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.auditLogger == nil {
		t.Error("audit logger should be enabled")
	}
}

func TestNewServer_ToolLimiters(t *testing.T) {
	server, err := NewServer(&Config{Name: "test-server", Version: "v1.0.0"})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	for _, name := range []string{"swipesim_run", "swipesim_formula_curve", "swipesim_formula_check"} {
		if _, ok := server.toolLimiters[name]; !ok {
			t.Errorf("no rate limiter for %s", name)
		}
	}
}
