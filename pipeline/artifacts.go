package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/acarvalhaes/go-tidy-vacancies/models"
)

// Artifacts runs one tidy table through every registered writer. Failures are
// isolated per artifact: a broken chart never blocks the table output, and
// vice versa. All failures come back joined.
type Artifacts struct {
	writers []namedWriter
}

type namedWriter struct {
	name   string
	writer OutputWriter
}

// NewArtifacts builds an empty artifact runner.
func NewArtifacts() *Artifacts {
	return &Artifacts{}
}

// Add registers a writer under a human-readable artifact name used in logs
// and error messages.
func (a *Artifacts) Add(name string, writer OutputWriter) {
	a.writers = append(a.writers, namedWriter{name: name, writer: writer})
}

// Len reports how many artifacts are registered.
func (a *Artifacts) Len() int {
	return len(a.writers)
}

// Run writes the table through every artifact in registration order. Each
// writer is written, closed, then validated; an error in one artifact is
// logged and collected while the remaining artifacts still run.
func (a *Artifacts) Run(table *models.TidyTable) error {
	var errs []error
	for _, nw := range a.writers {
		if err := runOne(nw.writer, table); err != nil {
			slog.Error("artifact failed",
				slog.String("artifact", nw.name),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", nw.name, err))
			continue
		}
		slog.Debug("artifact written", slog.String("artifact", nw.name))
	}
	return errors.Join(errs...)
}

func runOne(writer OutputWriter, table *models.TidyTable) error {
	if err := writer.Write(table); err != nil {
		writer.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
