package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophdrop/internal/client/client"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Sessions(ctx context.Context) error
	Pending(ctx context.Context) error
	Dispatch(ctx context.Context, args []string) error
	Sweep(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them to a. The loop
// exits on EOF, "exit" or "quit", or when ctx is cancelled. Command errors
// are reported and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("drop %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload <file> [dest], sessions, pending, dispatch <folder>, sweep <age>, logout, exit")
			} else {
				printlnFn("Available commands: login, sessions, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "upload", "up":
			err = a.Upload(ctx, args)

		case "sessions":
			err = a.Sessions(ctx)

		case "pending":
			err = a.Pending(ctx)

		case "dispatch":
			err = a.Dispatch(ctx, args)

		case "sweep":
			err = a.Sweep(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		report(err)
	}
}

func report(err error) {
	switch {
	case err == nil, errors.Is(err, errUsage):
	case errors.Is(err, client.ErrUnauthorized):
		printlnFn("Not logged in or session expired, use 'login'")
	case errors.Is(err, client.ErrForbidden):
		printlnFn("This command needs an admin account")
	default:
		printlnFn("error:", err)
	}
}
