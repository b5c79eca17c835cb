// Package history records pipeline runs in SQLite.
//
// Each run inserts a row when it starts and updates it when it finishes, so
// the `reelsmith history` command can list past prompts, their artifacts and
// how they failed. The database lives under the output root by default and is
// opened per invocation; WAL mode and a busy timeout let concurrent runs share
// it.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema.
package history
