// Package cli provides the PennyPlan command-line client.
//
// Invoked with a command (register, login, google <id-token>, me) it runs
// that command once and exits. Without a command it starts an interactive
// REPL that keeps the session token between commands.
package cli
