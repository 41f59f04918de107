package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "folio")
	s := sample{Port: 1}
	if err := Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "folio" || s.Port != 1 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	s := sample{Port: 1}
	err := Load(writeFile(t, "prot: 80\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "prot") {
		t.Errorf("err = %v, want unknown field error", err)
	}
}

func TestLoad_Validates(t *testing.T) {
	var s sample
	err := Load(writeFile(t, "name: x\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "d", Port: 2}
	if err := Load(writeFile(t, ""), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "d" {
		t.Errorf("defaults lost: %+v", s)
	}
}

func TestLoadOptional(t *testing.T) {
	s := sample{Port: 3}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	if err != nil || loaded {
		t.Fatalf("missing file: loaded=%v err=%v", loaded, err)
	}

	loaded, err = LoadOptional(writeFile(t, "port: 4\n"), &s)
	if err != nil || !loaded || s.Port != 4 {
		t.Errorf("loaded=%v err=%v s=%+v", loaded, err, s)
	}
}
