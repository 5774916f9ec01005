// Package models defines domain entities shared by the film collection client.
//
// The package contains two categories of types:
//
// 1. Wire types: structs shaped exactly as the backend serialises them
//   - [Film] : a single collection entry
//   - [FilmPage] : the page envelope returned by list and search endpoints
//   - [User], [Credentials] : sign-in and sign-up payloads
//
// 2. Local entities: persisted or written out by the client
//   - [Session] : bearer token plus signed-in user, keyed by profile
//   - [Lookup] : history of external film database queries
//   - [CollectionExport] : a snapshot of the collection for the export command
//
// Types that are checked before leaving the process implement [Validator] and report
// failures as [ValidationError]. [SessionStore] abstracts where the session is kept.
package models
