package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetBaseURL(t *testing.T) {
	t.Setenv(BaseURLEnv, "")

	if got := GetBaseURL(""); got != DefaultBaseURL {
		t.Errorf("Expected default base URL %s, got %s", DefaultBaseURL, got)
	}
	if got := GetBaseURL("http://ingest:9000/"); got != "http://ingest:9000" {
		t.Errorf("Expected configured base URL without trailing slash, got %s", got)
	}

	t.Setenv(BaseURLEnv, "http://from-env:1234")
	if got := GetBaseURL("http://ingest:9000"); got != "http://from-env:1234" {
		t.Errorf("Expected environment to win, got %s", got)
	}
}

func TestFindConfigFileWalksParents(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	configPath := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("source: flatfile\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(nested); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("Expected config to be found, got error: %v", err)
	}

	// macOS temp dirs resolve through /private
	want, _ := filepath.EvalSymlinks(configPath)
	got, _ := filepath.EvalSymlinks(found)
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestFindConfigFileMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	if _, err := FindConfigFile(); err == nil {
		t.Error("Expected an error when no config file exists")
	}
}
