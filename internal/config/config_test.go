package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := WriteDefault(path, "myblog"); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# quarry project configuration") {
		t.Errorf("missing header comment:\n%s", data)
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if parsed["app-name"] != "myblog" {
		t.Errorf("app-name = %v, want myblog", parsed["app-name"])
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("QUARRY_APP_NAME", "from-env")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if got := GetString("app-name"); got != "from-env" {
		t.Errorf("app-name = %q, want from-env", got)
	}
}
