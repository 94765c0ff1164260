// Package bridge forwards Audiobookshelf listening progress to MediaTracker.
//
// # Pipeline
//
// The [Supervisor] owns a single [Manager]. The manager keeps one Socket.IO subscription alive and hands every
// progress event it receives while authenticated to [Supervisor.Handle], which runs the [Translator] and then the
// [Publisher] before the next event is read.
//
//  1. [Resolver] : returns the configured token or logs in with username and password
//  2. [Manager] : Disconnected → Connecting → Connected → Authenticating → Authenticated
//     - emits exactly one subscribe per authenticated session
//     - waits a fixed backoff after a failed attempt and spaces every attempt with a rate limiter
//  3. [Translator] : resolves the library item to its ASIN and normalizes progress
//  4. [Publisher] : upserts progress on MediaTracker keyed by ASIN (last write wins)
//
// # Session
//
// [Session] holds the connection state, the bearer credential and whether the subscription is active.
// Only the manager writes it. The translator reads the credential and fails fast when none is held.
//
// # Status Updates
//
// Components report state changes and per-event outcomes through an optional [Update] channel.
// Sends never block; updates are dropped when the channel is full.
//
// # Errors
//
// [AuthError], [TransportError], [TranslationError] and [PublishError] are recoverable and only ever logged.
// Each unwraps to the matching sentinel in the shared package so callers can use [errors.Is].
package bridge
