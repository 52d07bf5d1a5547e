// Package state persists backup references between confman runs.
//
// A ConfigItem's backup reference lives in memory for the session. So that a
// later `confman --restore NAME` can find the backup taken by an earlier
// deploy, the deployment engine also writes the latest reference per item to
// a JSON file inside the backup directory.
//
// Key concepts:
//   - BackupState: item key -> latest backup record
//   - StateStore: Interface for persisting and loading BackupState
package state
