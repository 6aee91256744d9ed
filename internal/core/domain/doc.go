// Package domain defines the core entities of the Sercha index sync layer.
//
// This package is the innermost layer of the hexagon. It defines:
//
//   - RawRecord: an untyped record from an ingestion source
//   - DocumentRecord and FAQRecord: validated corpus records
//   - Point and ScoredPoint: vector store rows and search hits
//   - IndexManifest: the durable description of a named index
//   - DuplicateCluster: a group of near-identical records
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
