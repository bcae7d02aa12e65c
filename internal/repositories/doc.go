// Package repositories groups the SQLite-backed persistence layers.
//
// Subpackages:
//
//   - assets:    asset metadata rows (payloads live in blobstore)
//   - links:     locally registered share links
//   - snapshots: document snapshots behind #share= links
//   - metadata:  a key/value table for settings and backups
//
// All repositories work over dbx.DBTX so they can run inside a transaction
// via WithTx.
package repositories
