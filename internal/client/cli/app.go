// Package cli implements the beamctl subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/beamit-app/beamit-server/internal/client"
	"github.com/beamit-app/beamit-server/internal/server/models"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

const usage = `Usage: beamctl [-s server] <command> [arguments]

Commands:
  register <username>                   create an account
  login <username> <devicename>         log in and enroll this device
  unregister                            delete the account and all its data
  devices                               list registered devices
  rename <devicename> <newname>         rename a device
  remove <devicename>                   remove a device
  send-text -to <dev,dev> <text>        share text with devices
  send-url -to <dev,dev> <url>          share a url with devices
  send-file -to <dev,dev> <path>        share a file with devices
  pending                               list shares waiting for this device
  receive <timestamp>                   consume a share (RFC 3339 timestamp)
`

type App struct {
	out       io.Writer
	server    string
	credsPath string
}

func NewApp(out io.Writer, server, credsPath string) *App {
	return &App{out: out, server: server, credsPath: credsPath}
}

func (a *App) client() (*client.Client, error) {
	creds, err := client.LoadCredentials(a.credsPath)
	if err != nil {
		return nil, fmt.Errorf("error loading credentials: %w", err)
	}
	return client.New(a.server, creds), nil
}

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]

	c, err := a.client()
	if err != nil {
		return err
	}

	switch cmd {
	case "register":
		return a.register(ctx, c, rest)
	case "login":
		return a.login(ctx, c, rest)
	case "unregister":
		return a.unregister(ctx, c)
	case "devices":
		return a.devices(ctx, c)
	case "rename":
		return a.rename(ctx, c, rest)
	case "remove":
		return a.remove(ctx, c, rest)
	case "send-text":
		return a.send(ctx, c, rest, c.SendText)
	case "send-url":
		return a.send(ctx, c, rest, c.SendURL)
	case "send-file":
		return a.send(ctx, c, rest, c.SendFile)
	case "pending":
		return a.pending(ctx, c)
	case "receive":
		return a.receive(ctx, c, rest)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) promptPassword() (string, error) {
	fmt.Fprintln(a.out, "Enter password")
	pw, err := readPassword()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *App) register(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: register <username>")
	}
	password, err := a.promptPassword()
	if err != nil {
		return err
	}
	if err := c.Register(ctx, args[0], password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "registered")
	return nil
}

func (a *App) login(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <username> <devicename>")
	}
	password, err := a.promptPassword()
	if err != nil {
		return err
	}
	creds, err := c.Login(ctx, args[0], password, args[1])
	if err != nil {
		return err
	}
	if err := client.SaveCredentials(a.credsPath, creds); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s on %s\n", creds.Username, creds.DeviceName)
	return nil
}

func (a *App) unregister(ctx context.Context, c *client.Client) error {
	if err := c.Unregister(ctx); err != nil {
		return err
	}
	if err := os.Remove(a.credsPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Fprintln(a.out, "account removed")
	return nil
}

func (a *App) devices(ctx context.Context, c *client.Client) error {
	names, err := c.Devices(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(a.out, name)
	}
	return nil
}

func (a *App) rename(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: rename <devicename> <newname>")
	}
	if err := c.RenameDevice(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "renamed")
	return nil
}

func (a *App) remove(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove <devicename>")
	}
	if err := c.RemoveDevice(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "removed")
	return nil
}

type sendFunc func(ctx context.Context, targets []string, payload string, autoOpen bool) (*models.ShareID, error)

func (a *App) send(ctx context.Context, _ *client.Client, args []string, fn sendFunc) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(a.out)
	to := fs.String("to", "", "comma-separated target device names")
	open := fs.Bool("open", false, "ask targets to open the payload on receipt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: send-… -to <dev,dev> [-open] <payload>")
	}

	targets := splitTargets(*to)
	id, err := fn(ctx, targets, fs.Arg(0), *open)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "shared at %s\n", id.Timestamp.Format(time.RFC3339Nano))
	return nil
}

func (a *App) pending(ctx context.Context, c *client.Client) error {
	shares, err := c.Pending(ctx)
	if err != nil {
		return err
	}
	if len(shares) == 0 {
		fmt.Fprintln(a.out, "no pending shares")
		return nil
	}
	for _, s := range shares {
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", s.Timestamp.Format(time.RFC3339Nano), s.DataType, s.Data)
	}
	return nil
}

func (a *App) receive(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: receive <timestamp>")
	}
	ts, err := time.Parse(time.RFC3339Nano, args[0])
	if err != nil {
		return fmt.Errorf("invalid timestamp (want RFC 3339): %w", err)
	}

	got, err := c.Receive(ctx, ts)
	if err != nil {
		return err
	}
	if got.Filename != "" {
		fmt.Fprintf(a.out, "saved %s\n", got.Filename)
		return nil
	}
	fmt.Fprintln(a.out, got.Share.Data)
	return nil
}

func splitTargets(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
