package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acarvalhaes/go-tidy-vacancies/models"
)

type mockWriter struct {
	writes      int
	closed      bool
	writeErr    error
	validateErr error
}

func (mw *mockWriter) Write(table *models.TidyTable) error {
	if mw.writeErr != nil {
		return mw.writeErr
	}
	mw.writes++
	return nil
}

func (mw *mockWriter) Close() error {
	mw.closed = true
	return nil
}

func (mw *mockWriter) Validate() error {
	return mw.validateErr
}

func TestArtifactsRunAll(t *testing.T) {
	table := sampleTable()
	first := &mockWriter{}
	second := &mockWriter{}

	artifacts := NewArtifacts()
	artifacts.Add("table", first)
	artifacts.Add("chart", second)

	if err := artifacts.Run(table); err != nil {
		t.Fatalf("run: %v", err)
	}
	if first.writes != 1 || second.writes != 1 {
		t.Fatalf("writes = %d, %d, want 1, 1", first.writes, second.writes)
	}
	if !first.closed || !second.closed {
		t.Fatal("writers not closed")
	}
}

func TestArtifactsIsolateFailure(t *testing.T) {
	table := sampleTable()
	failing := &mockWriter{writeErr: errors.New("disk full")}
	healthy := &mockWriter{}

	artifacts := NewArtifacts()
	artifacts.Add("table", failing)
	artifacts.Add("chart", healthy)

	err := artifacts.Run(table)
	if err == nil {
		t.Fatal("expected an error from the failing artifact")
	}
	if !strings.Contains(err.Error(), "table") || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("error should name the artifact and cause, got %q", err.Error())
	}
	// The healthy artifact still ran to completion.
	if healthy.writes != 1 || !healthy.closed {
		t.Fatalf("healthy artifact skipped: writes=%d closed=%v", healthy.writes, healthy.closed)
	}
	// The failing writer is still closed so no handle leaks.
	if !failing.closed {
		t.Fatal("failing writer left open")
	}
}

func TestArtifactsValidateFailure(t *testing.T) {
	table := sampleTable()
	invalid := &mockWriter{validateErr: errors.New("file is empty")}

	artifacts := NewArtifacts()
	artifacts.Add("table", invalid)

	err := artifacts.Run(table)
	if err == nil || !strings.Contains(err.Error(), "validate") {
		t.Fatalf("expected validate error, got %v", err)
	}
}

func TestArtifactsEmptyRun(t *testing.T) {
	if err := NewArtifacts().Run(sampleTable()); err != nil {
		t.Fatalf("empty runner should be a no-op, got %v", err)
	}
}

// Validation happens after Close, so it must judge the file on disk rather
// than the closed handle.
func TestArtifactsRunRealWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacancies.csv")
	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	artifacts := NewArtifacts()
	artifacts.Add("table", writer)
	if err := artifacts.Run(sampleTable()); err != nil {
		t.Fatalf("run: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("csv output missing or empty: %v", err)
	}
}
