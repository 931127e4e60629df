// Package client contains the CLI's transports and local database bootstrap.
//
// HTTPClient speaks the resumable upload protocol and login over HTTP.
// AdminClient calls the gRPC admin service, attaching the access token as
// "access_token" metadata on every call. Both map transport failures to
// the sentinel errors in errors.go and in internal/common, so callers can
// match them with errors.Is.
//
// InitDatabase opens the SQLite file that keeps the access token and the
// upload sessions, applying the embedded goose migrations.
package client
