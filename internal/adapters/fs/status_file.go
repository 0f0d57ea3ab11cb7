// Package fs contains file-system adapters.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hostlabs/loadgate/internal/domain"
	"github.com/hostlabs/loadgate/internal/ports"
)

// StatusFileRecorder writes gate status to a JSON file so external monitors
// can scrape it. Writes are atomic (tmp file + rename); a partially written
// file is never observable.
type StatusFileRecorder struct {
	path string
}

// NewStatusFileRecorder creates a recorder writing to path.
func NewStatusFileRecorder(path string) *StatusFileRecorder {
	return &StatusFileRecorder{path: path}
}

// Record writes the status snapshot to the file.
func (r *StatusFileRecorder) Record(ctx context.Context, status domain.Status) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Ensure StatusFileRecorder implements ports.StatusRecorder.
var _ ports.StatusRecorder = (*StatusFileRecorder)(nil)
