// Package services implements the driving port interfaces.
// Services contain the index sync logic and orchestrate
// calls to driven ports (adapters).
//
// The main pieces are:
//
//   - Preparator and Diff: raw record validation and incremental deltas
//   - ModelLifecycle: train-once, frozen vectorizer state
//   - Synchronizer: one index in single or dual collection mode
//   - DuplicateDetector: near-duplicate clustering over stored vectors
//   - Persistence and Catalog: bundle save/load and named index management
//
// Services are pure Go with no CGO or external dependencies.
package services
