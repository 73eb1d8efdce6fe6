// Package database provides the SQLite run history of mdlinkcheck.
//
// When a check runs with --record, the HistoryDB stores:
//   - one row per run with its counts and the full report encoded as msgpack
//   - one row per broken link with a SHA3 fingerprint of the record
//
// Fingerprints let two runs over the same base directory be compared: links
// that appear only in the newer run are new, links that appear only in the
// older run are fixed.
//
// The database is a single file (modernc.org/sqlite, no cgo) in the XDG data
// directory. Runs are keyed by the absolute base directory.
package database
