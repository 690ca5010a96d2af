// Package repositories implements SQLite persistence for client-side state.
//
// Key Implementations:
//   - [KVRepository] : String key/value pairs standing in for browser local storage (the theme preference lives here)
//   - [SessionRepository] : The single persisted identity provider session, so a restart restores the signed-in user
//
// Both repositories expect the schema from shared.RunMigrations.
package repositories
