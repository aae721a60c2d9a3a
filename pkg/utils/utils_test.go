package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSaveMediaNeverOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	first, err := SaveMedia(dir, "image.png", []byte("one"))
	if err != nil {
		t.Fatalf("SaveMedia returned error: %v", err)
	}
	second, err := SaveMedia(dir, "image.png", []byte("two"))
	if err != nil {
		t.Fatalf("SaveMedia returned error: %v", err)
	}
	if filepath.Base(first) != "image.png" || filepath.Base(second) != "image-1.png" {
		t.Fatalf("paths = %q, %q", first, second)
	}
	if data, _ := os.ReadFile(first); string(data) != "one" {
		t.Fatalf("first file = %q", data)
	}
}

func TestSaveMediaStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveMedia(dir, "../../speech.mp3", []byte("x"))
	if err != nil {
		t.Fatalf("SaveMedia returned error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("path escaped dir: %q", path)
	}
}

func TestRotatableLoggerRotates(t *testing.T) {
	name := filepath.Join(t.TempDir(), LogFileName)
	l := NewRotatableLogger(name, 10, 2)
	defer l.Close()

	for i := 0; i < 4; i++ {
		if _, err := l.Write([]byte("0123456789")); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
	}
	for _, p := range []string{name, name + ".1", name + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
	}
	if _, err := os.Stat(name + ".3"); !os.IsNotExist(err) {
		t.Fatalf("kept more than MaxBackups files")
	}
}

func TestSetupLogger(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetLevel(log.InfoLevel)

	if _, err := SetupLogger("", "verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}

	dir := t.TempDir()
	l, err := SetupLogger(dir, "debug")
	if err != nil {
		t.Fatalf("SetupLogger returned error: %v", err)
	}
	defer l.Close()
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}

	log.WithField("operation", "generateImage").Debug("hello file")
	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !bytes.Contains(data, []byte("hello file")) || !strings.Contains(string(data), "operation=generateImage") {
		t.Fatalf("log file = %q", data)
	}
}
