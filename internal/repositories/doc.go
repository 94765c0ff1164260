// Package repositories implements SQLite persistence for the bridge's caches.
//
// Key Implementations:
//   - [ItemRepository] : library item to ASIN resolutions, keyed by Audiobookshelf item id
//   - [CredentialRepository] : tokens from the login exchange, keyed by server URL and username
//
// [ItemCacheAdapter] and [CredentialCacheAdapter] adapt them to the recorder and cache interfaces
// the bridge accepts. Cache writes are best effort and never interrupt event handling.
//
// Progress values are never stored.
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
