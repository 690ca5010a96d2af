// Package models defines the catalog entities exchanged with the movie backend and the identity provider.
//
// The package contains three categories of types:
//
// 1. Wire types decoded from backend JSON
//   - [Movie] : Catalog entry with a flexible [ID] and [Numeric] fields tolerant of legacy shapes
//   - [Stats] : Landing page counters
//   - [WatchlistAddResult], [WatchlistStatus] : Watchlist responses
//
// 2. Session types
//   - [Principal] : The signed-in identity as reported by the identity provider
//   - [UserProfile] : Body of the backend user upsert
//
// 3. Pure helpers used by pages
//   - [CanonicalID] and [NormalizeMovies] : One canonical string form for the two identifier shapes
//   - [ApplyPatch] : Local list mutation after a successful remote write
//   - [MovieInput] : Form values with client-side validation
package models
