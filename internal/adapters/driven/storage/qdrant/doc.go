// Package qdrant implements driven.VectorStore against the Qdrant REST API.
//
// Every request passes through a token-bucket rate limiter. HTTP 429
// responses set a back-off honouring Retry-After and the request is retried
// up to Config.MaxRetries times before failing with domain.ErrRateLimited.
//
// Points are stored with payload {"content": text} and integer ids.
package qdrant
