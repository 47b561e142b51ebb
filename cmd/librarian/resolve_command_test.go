package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveCommandLocalLabel(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, cfgPath, "resolve", "REMEMBER_THE_TITANS", "--json")
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}

	var result resolveOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if result.Name != "REMEMBER THE TITANS" {
		t.Fatalf("name = %q", result.Name)
	}
	if result.Source != "disc_info" {
		t.Fatalf("source = %q", result.Source)
	}
}

func TestResolveCommandScanFile(t *testing.T) {
	cfgPath := writeTestConfig(t)

	scanPath := filepath.Join(t.TempDir(), "scan.txt")
	scan := strings.Join([]string{
		`CINFO:2,0,"Armageddon"`,
		`TINFO:0,9,0,"2:30:00"`,
	}, "\n")
	if err := os.WriteFile(scanPath, []byte(scan), 0o644); err != nil {
		t.Fatalf("write scan file: %v", err)
	}

	out, err := runCLI(t, cfgPath, "resolve", "--scan-file", scanPath)
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}
	requireContains(t, out, "Armageddon")
	requireContains(t, out, "disc_info")
}

func TestResolveCommandRequiresInput(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCLI(t, cfgPath, "resolve"); err == nil {
		t.Fatal("resolve with no input succeeded")
	}
}
