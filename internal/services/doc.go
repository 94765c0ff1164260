// Package services implements HTTP clients for the two services the bridge talks to.
//
// # Audiobookshelf
//
// [Audiobookshelf] performs the login exchange (POST /login) and library item lookups
// (GET /api/items/{id}). Lookups carry the bearer credential held by the connection session.
//
// Item responses come in two historical shapes; [LibraryItem.ExternalID] reads the ASIN from
// media.metadata.asin and falls back to a top-level metadata.asin.
//
// # MediaTracker
//
// [MediaTracker] upserts progress through PUT /api/progress/by-external-id/, keyed by the
// audible id and the "audiobook" media type. The endpoint is last-write-wins, so repeating a
// request is harmless.
//
// # Raw API access
//
// [APIService] makes raw authorized requests for debugging (the `api get` command).
//
// # Authentication
//
// Bearer headers are attached with an [oauth2.Transport] over a static token source, so every
// client shares one mechanism and none of them formats the header by hand.
//
// # Error Handling
//
// Clients wrap sentinel errors from the shared package:
//   - [shared.ErrAuthFailed] : login rejected or response missing a token
//   - [shared.ErrItemNotFound] : lookup returned 404
//   - [shared.ErrAPIRequest] : any other non-2xx status
//   - [shared.ErrTransport] : the request never produced a response
package services
