// Package services implements the client for the film collection backend.
//
// # FilmService
//
// [FilmService] wraps every endpoint the client uses: sign-in and sign-up, paged and searched listings,
// the external film database lookup, insert, update, seen flag, delete and the random draw.
// It implements [paging.Fetcher] for [models.Film] so a [paging.Controller] can drive it directly.
//
// # Authentication
//
// Sign-in and sign-up go out without credentials. Every other call is sent through an [oauth2.Transport]
// whose token source is the stored session. The token is never read from global state.
// A 401 answer runs the OnUnauthorized hook so the caller can drop the session.
//
// # Error Handling
//
// Non-2xx answers become [APIError] carrying the status, the backend code and its message, falling back
// to "HTTP error! status: N". APIError unwraps to the shared sentinels:
//   - [shared.ErrNotAuthenticated] : 401
//   - [shared.ErrFilmNotFound] : 404
//   - [shared.ErrServiceUnavailable] : 502, 503, 504
//   - [shared.ErrAPIRequest] : everything else
//
// A 204 or a non-JSON success body decodes to nothing.
//
// # Rate Limiting
//
// All calls share one [rate.Limiter]; a zero limit disables it.
package services
