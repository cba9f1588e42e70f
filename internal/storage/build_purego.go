//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// This file is compiled by default and with the purego tag. It uses a pure
// Go SQLite implementation; cosine similarity over a collection is computed
// in Go after a filtered scan, which is fine for pattern corpora of a few
// thousand entries.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// VectorExtensionAvailable indicates if vector extension is available
	VectorExtensionAvailable = false

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
