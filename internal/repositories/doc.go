// Package repositories implements SQLite persistence for local client state.
//
// The backend owns the film collection; only what the client needs between runs lives here.
//
// Key Implementations:
//   - [SessionRepository] : the signed-in session of one profile, upserted on login and cleared on logout
//   - [LookupRepository] : history of external film database lookups, newest first
//
// Tables are created by the embedded migrations in the shared package.
package repositories
