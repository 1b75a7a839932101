package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Park(ctx context.Context) error
	Unpark(ctx context.Context) error
	Move(ctx context.Context) error
	Pay(ctx context.Context) error
	Check(ctx context.Context) error
	History(ctx context.Context) error
	Locations(ctx context.Context) error
	AddLocation(ctx context.Context) error
	DeleteLocation(ctx context.Context) error
	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Preferences(ctx context.Context) error
	EditPreferences(ctx context.Context) error
	RegisterPush(ctx context.Context) error
	UnregisterPush(ctx context.Context) error
	Refresh(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the Park-IT CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, on context cancellation,
// or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not signed in:
//	  - help           — show available commands
//	  - login          — sign in with Apple or Google
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - status         — show profile, connectivity and the active session
//	  - park           — start a parking session at given coordinates
//	  - unpark         — end the active parking session
//	  - move           — correct the active session's coordinates
//	  - pay            — record a meter payment for the active session
//	  - check          — preview curbside status for coordinates
//	  - history        — page through past parking sessions
//	  - locations      — list saved locations
//	  - addloc, delloc — manage saved locations
//	  - profile        — fetch and show the server profile
//	  - setname        — update the profile display name
//	  - prefs          — show reminder preferences
//	  - setprefs       — update reminder preferences
//	  - pushreg        — register a push token for this device
//	  - pushdel        — unregister a push token
//	  - refresh        — force a token refresh
//	  - logout         — sign out
//	  - delete-account — permanently delete the account
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("parkit %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, park, unpark, move, pay, check, history, locations, addloc, delloc, profile, setname, prefs, setprefs, pushreg, pushdel, refresh, logout, delete-account, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "park":
			_ = a.Park(ctx)

		case "unpark", "end":
			_ = a.Unpark(ctx)

		case "move":
			_ = a.Move(ctx)

		case "pay":
			_ = a.Pay(ctx)

		case "check":
			_ = a.Check(ctx)

		case "history":
			_ = a.History(ctx)

		case "locations":
			_ = a.Locations(ctx)

		case "addloc":
			_ = a.AddLocation(ctx)

		case "delloc":
			_ = a.DeleteLocation(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "setname":
			_ = a.EditProfile(ctx)

		case "prefs":
			_ = a.Preferences(ctx)

		case "setprefs":
			_ = a.EditPreferences(ctx)

		case "pushreg":
			_ = a.RegisterPush(ctx)

		case "pushdel":
			_ = a.UnregisterPush(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "delete-account":
			_ = a.DeleteAccount(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
