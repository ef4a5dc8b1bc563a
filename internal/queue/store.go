package queue

import (
	"encoding/json"
	"os"

	apperrors "teambridge/internal/errors"
	"teambridge/internal/models"
)

// Store persists the offline queue as a single JSON snapshot file. Every save
// overwrites the whole file; a partial write followed by a crash is an
// accepted risk, recovered as an empty queue on the next load.
type Store struct {
	path string
}

// NewStore creates a snapshot store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the snapshot. A missing file yields an empty queue; a corrupt
// file yields an error the caller downgrades to a warning.
func (s *Store) Load() ([]*models.QueuedAction, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodePersistence, "failed to read queue file")
	}

	var actions []*models.QueuedAction
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePersistence, "failed to parse queue file")
	}
	return actions, nil
}

// Save writes the full snapshot, replacing any previous contents.
func (s *Store) Save(actions []*models.QueuedAction) error {
	if actions == nil {
		actions = []*models.QueuedAction{}
	}

	data, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePersistence, "failed to marshal queue")
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return apperrors.WrapRetryable(err, apperrors.ErrCodePersistence, "failed to write queue file")
	}
	return nil
}
