// Package sqlite provides an embedded SQLite implementation of driven.VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every collection lives in one database
// file; vectors are stored as little-endian float32 blobs next to their norm and
// payload text.
//
// # Search
//
// Search is an exact brute-force cosine scan over the collection. Points with a
// zero norm are never returned.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-index/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
