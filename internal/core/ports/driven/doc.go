// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore: Collections of vectors with payloads (SQLite, Qdrant, memory)
//   - Vectorizer: Trainable text-to-vector model (TF-IDF)
//   - VectorizerFactory: Creates fresh vectorizers by kind
//   - Lemmatizer: Text to ordered lemma sequence
//   - BundleStore: Durable manifest and model state per index
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - RecordSource: Reads raw records from a corpus file
//   - RecordWatcher: Signals when the corpus file changes
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
