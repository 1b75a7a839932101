// Package cli provides the interactive Park-IT command-line client.
//
// It wires configuration, the encrypted local store, the API services, and an
// interactive REPL. Typical flow: restore the persisted session on startup,
// start the background connectivity and expiry watchers, and execute user
// commands.
//
// Key features:
//   - Sign in with Apple / Google (token paste), logout, profile editing
//   - Start / end / move a parking session, confirm meter payment
//   - Curbside status preview for arbitrary coordinates
//   - Parking history and saved locations
//   - Push token registration and reminder preferences
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, StartExpiryWatcher, and runREPL for
// details.
package cli
