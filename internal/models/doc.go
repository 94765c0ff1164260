// Package models defines the data carried between the stream, the translator and the publisher.
//
//   - [RawProgressEvent] : one listening-progress event as received from Audiobookshelf
//   - [ResolvedUpdate] : the normalized record sent to MediaTracker
//   - [Item] : a cached item id to ASIN resolution
//
// Events and updates are transient and never persisted. Items implement [Model] and are stored by
// repositories.ItemRepository.
package models
