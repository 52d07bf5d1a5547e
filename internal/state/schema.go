package state

import "time"

// BackupState maps catalog item keys ("category/name") to their latest backup.
type BackupState struct {
	Backups map[string]BackupRecord `json:"backups"`
}

// BackupRecord describes one recorded backup.
type BackupRecord struct {
	// Path is the absolute path of the backup file
	Path string `json:"path"`

	// Destination is the file the backup was taken from
	Destination string `json:"destination"`

	// CreatedAt is when the backup was taken
	CreatedAt time.Time `json:"createdAt"`
}

// NewBackupState creates an empty BackupState.
func NewBackupState() *BackupState {
	return &BackupState{Backups: make(map[string]BackupRecord)}
}

// Record stores rec as the latest backup for key.
func (s *BackupState) Record(key string, rec BackupRecord) {
	if s.Backups == nil {
		s.Backups = make(map[string]BackupRecord)
	}
	s.Backups[key] = rec
}
