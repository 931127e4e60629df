package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/client/client"
	"github.com/dmitrijs2005/gophdrop/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("wrong arguments")

func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.auth.Login(ctx, userName, password); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("invalid username or password")
		}
		return err
	}

	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Upload sends args[0] into the optional destination folder args[1].
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(a.out, "Usage: upload <file> [destination]")
		return errUsage
	}

	dest := ""
	if len(args) == 2 {
		dest = strings.Trim(args[1], "/")
	}

	res, err := a.uploader.Upload(ctx, args[0], dest)
	if err != nil {
		if errors.Is(err, common.ErrTooBig) {
			fmt.Fprintln(a.out, "File exceeds the server limit; the next attempt starts over")
		}
		return err
	}

	fmt.Fprintf(a.out, "Stored %s (%d sent, %d already on server)\n", res.Identifier, res.Sent, res.Skipped)
	return nil
}

func (a *App) Sessions(ctx context.Context) error {
	list, err := a.sessions.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No unfinished uploads")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tDESTINATION\tPROGRESS\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t/%s\t%d/%d\t%s\n", s.Path, s.Destination, s.ChunksDone, s.TotalChunks, s.UpdatedAt.Format(time.DateTime))
	}
	return w.Flush()
}

func (a *App) Pending(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	list, err := a.admin.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nothing pending")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tFILES\tFIRST\tLAST")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Folder, strings.Join(e.Files, ","), formatUnix(e.FirstUpload), formatUnix(e.LastUpload))
	}
	return w.Flush()
}

func (a *App) Dispatch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: dispatch <folder>")
		return errUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	_, err := a.admin.DispatchFolder(ctx, args[0])
	switch {
	case errors.Is(err, client.ErrNoPending):
		fmt.Fprintln(a.out, "Nothing pending for", args[0])
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintln(a.out, "Notification sent for", args[0])
	return nil
}

func (a *App) Sweep(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: sweep <age, e.g. 24h>")
		return errUsage
	}
	age, err := time.ParseDuration(args[0])
	if err != nil || age <= 0 {
		fmt.Fprintln(a.out, "Usage: sweep <age, e.g. 24h>")
		return errUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	n, err := a.admin.SweepChunks(ctx, age)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d stale uploads\n", n)
	return nil
}
