// Package state implements persistence for the controller state.
//
// Store is the write-through, in-memory view the controller works against.
// Every write is followed by a full Snapshot save through a Repository:
// FileRepository keeps JSON on disk, SQLiteRepository keeps rows in SQLite,
// and a nil repository keeps everything in memory.
package state
