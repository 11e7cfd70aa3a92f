package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kangkot/tchannel/config"
	"github.com/kangkot/tchannel/messages"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tchannel.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, `
host_port: "127.0.0.1:9000"
`)
	c, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.ProcessName != "tchannel" {
		t.Fatalf("process_name = %q, want default", c.ProcessName)
	}
	if c.Transport != "tcp" {
		t.Fatalf("transport = %q, want default tcp", c.Transport)
	}
}

func TestHandshakeHeaders(t *testing.T) {
	path := writeTempConfig(t, `
host_port: "h:1"
process_name: "svc"
`)
	c, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	headers := c.HandshakeHeaders()
	hp, ok := messages.HeaderValue(headers, messages.HostPort)
	if !ok || hp != "h:1" {
		t.Fatalf("host_port = %q, ok=%v", hp, ok)
	}
	pn, ok := messages.HeaderValue(headers, messages.ProcessName)
	if !ok || pn != "svc" {
		t.Fatalf("process_name = %q, ok=%v", pn, ok)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
