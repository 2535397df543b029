// Package cli provides the interactive wellkeeper command-line client.
//
// It wires configuration and the record API client into a REPL. Typical
// flow: log in (or register first), then manage health records.
//
// Key features:
//   - Register / Login / Logout / Profile
//   - Add records with an optional medical report
//   - List / Show / Delete records
//   - Attach a new report to a record, download a report
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
