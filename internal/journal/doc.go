// Package journal records what the synchronizer did to the render index,
// frame by frame, in SQLite.
//
// A Recorder wraps a renderindex.Index. Every insert, remove and dirty mark
// that passes through it is buffered as an OpRecord; when the engine
// finishes a settle it flushes the buffer together with the settle counts
// as one FrameRecord. Each frame stores two hashes:
//   - state_hash: the canonical hash of the captured index state (empty
//     when the wrapped index cannot be captured)
//   - frame_hash: chains the previous frame hash, the frame number and the
//     state hash, so a session can be verified end to end
//
// # Database Configuration
//
// Pragmas travel in the connection string so the driver applies them to
// every connection:
//   - journal_mode=WAL and synchronous=NORMAL for writable stores
//   - busy_timeout, 5s unless WithBusyTimeout says otherwise
//   - foreign_keys=on: ops must belong to a written frame
//
// The schema version lives in user_version. Open stamps new journals and
// refuses ones newer than SchemaVersion. ReadOnly stores never create or
// stamp a database; the CLI reads journals that way.
//
// Writes are idempotent: rewriting an existing frame is a no-op.
package journal
