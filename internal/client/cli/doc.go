// Package cli provides the interactive gophdrop command-line client.
//
// It wires configuration, the local session database, the HTTP upload
// transport and the gRPC admin transport behind a small REPL:
//
//	login                  authenticate and remember the token
//	upload <file> [dest]   send a file, resuming an interrupted transfer
//	sessions               list unfinished uploads
//	pending                list folders waiting for notification (admin)
//	dispatch <folder>      send the notification for a folder now (admin)
//	sweep <age>            drop staged chunks older than age (admin)
//	logout                 forget the saved token
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
