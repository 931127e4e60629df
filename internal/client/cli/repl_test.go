package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophdrop/internal/client/client"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	err      error

	calls []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Upload(_ context.Context, args []string) error {
	f.calls = append(f.calls, "upload "+strings.Join(args, " "))
	return f.err
}
func (f *fakeExec) Sessions(context.Context) error {
	f.calls = append(f.calls, "sessions")
	return nil
}
func (f *fakeExec) Pending(context.Context) error {
	f.calls = append(f.calls, "pending")
	return f.err
}
func (f *fakeExec) Dispatch(_ context.Context, args []string) error {
	f.calls = append(f.calls, "dispatch "+strings.Join(args, " "))
	return f.err
}
func (f *fakeExec) Sweep(_ context.Context, args []string) error {
	f.calls = append(f.calls, "sweep "+strings.Join(args, " "))
	return nil
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"",
		"upload ./a.txt docs",
		"up b.txt",
		"sessions",
		"pending",
		"dispatch /bob/docs",
		"sweep 24h",
		"logout",
		"exit",
		"pending",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login",
		"upload ./a.txt docs",
		"upload b.txt",
		"sessions",
		"pending",
		"dispatch /bob/docs",
		"sweep 24h",
		"logout",
	}, exec.calls)
}

func TestRunREPL_ReportsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", client.ErrUnauthorized, "Not logged in or session expired, use 'login'\n"},
		{"forbidden", fmt.Errorf("x: %w", client.ErrForbidden), "This command needs an admin account\n"},
		{"other", client.ErrUnavailable, "error: server unavailable\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := capturePrintln(t)
			exec := &fakeExec{err: tt.err}
			runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("pending\n")))
			assert.Contains(t, *lines, tt.want)
		})
	}
}

func TestRunREPL_UsageErrorIsSilent(t *testing.T) {
	lines := capturePrintln(t)
	exec := &fakeExec{err: errUsage}

	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("upload\nquit\n")))

	assert.Equal(t, []string{"upload "}, exec.calls)
	for _, l := range *lines {
		assert.NotContains(t, l, "error")
	}
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	lines := capturePrintln(t)
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("foobar\n")))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Unknown command: foobar\n")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	capturePrintln(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("login\n")))

	assert.Empty(t, exec.calls)
}
