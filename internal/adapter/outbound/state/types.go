// Package state provides file-based persistence for the storefront session.
//
// The session file is a small JSON document holding string items keyed like
// browser local storage. Every write is atomic, locked across processes and
// preceded by a backup of the previous file, so several storefront processes
// can share one session.
package state

import "time"

// currentVersion is the schema version written to new files.
const currentVersion = "1"

// SessionFile is the top-level structure persisted in the session file.
type SessionFile struct {
	// Version is the schema version for forward compatibility. Currently "1".
	Version string `json:"version"`

	// Items holds the stored values by key. The session token lives under
	// session.TokenKey.
	Items map[string]string `json:"items"`

	// CreatedAt is when the file was first written.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time `json:"updated_at"`
}

func newSessionFile() *SessionFile {
	now := time.Now().UTC()
	return &SessionFile{
		Version:   currentVersion,
		Items:     map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
