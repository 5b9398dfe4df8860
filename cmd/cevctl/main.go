// Command cevctl drives the equipment API from a terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"equipment-visualizer-backend/internal/analytics"
	"equipment-visualizer-backend/internal/client"
	"equipment-visualizer-backend/internal/store"
)

const usage = `usage: cevctl [-url URL] [-token TOKEN] <command> [flags]

commands:
  register -username U -password P [-email E] [-first-name F] [-last-name L]
  login    -username U -password P
  logout
  upload   FILE.csv
  summary
  history
  report   [-upload ID] [-format pdf|xlsx] [-o PATH]
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("cevctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	baseURL := global.String("url", envOr("CEV_API_BASE_URL", client.DefaultBaseURL), "API base URL")
	token := global.String("token", os.Getenv("CEV_TOKEN"), "API token")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	c := client.New(*baseURL, *token)
	cmd, rest := global.Arg(0), global.Args()[1:]

	var err error
	switch cmd {
	case "register":
		err = register(ctx, c, rest, stdout, stderr)
	case "login":
		err = login(ctx, c, rest, stdout, stderr)
	case "logout":
		err = c.Logout(ctx)
	case "upload":
		err = upload(ctx, c, rest, stdout)
	case "summary":
		err = summary(ctx, c, stdout)
	case "history":
		var hist []store.UploadSummary
		if hist, err = c.History(ctx); err == nil {
			err = printJSON(stdout, hist)
		}
	case "report":
		err = report(ctx, c, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		global.Usage()
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func register(ctx context.Context, c *client.Client, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var req client.RegisterRequest
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Password, "password", os.Getenv("CEV_PASSWORD"), "password")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.FirstName, "first-name", "", "first name")
	fs.StringVar(&req.LastName, "last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := c.Register(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(stdout, resp)
}

func login(ctx context.Context, c *client.Client, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("username", "", "username")
	password := fs.String("password", os.Getenv("CEV_PASSWORD"), "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := c.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	return printJSON(stdout, resp)
}

func upload(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("upload takes exactly one CSV file")
	}
	res, err := c.UploadCSV(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(stdout, res)
}

// summary fetches the aggregates and the history side by side.
func summary(ctx context.Context, c *client.Client, stdout io.Writer) error {
	sumCh := client.Go(func() (*analytics.Summary, error) { return c.Summary(ctx) })
	histCh := client.Go(func() ([]store.UploadSummary, error) { return c.History(ctx) })

	sum, hist := <-sumCh, <-histCh
	if sum.Err != nil {
		return sum.Err
	}
	if hist.Err != nil {
		return hist.Err
	}
	return printJSON(stdout, struct {
		*analytics.Summary
		History []store.UploadSummary `json:"history"`
	}{sum.Value, hist.Value})
}

func report(ctx context.Context, c *client.Client, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	uploadID := fs.Uint("upload", 0, "upload id (default: latest upload)")
	format := fs.String("format", "pdf", "pdf or xlsx")
	out := fs.String("o", "", "output path (default: server supplied file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var id *uint
	if *uploadID != 0 {
		id = uploadID
	}

	var (
		rep *client.Report
		err error
	)
	switch *format {
	case "pdf":
		rep, err = c.GeneratePDF(ctx, id)
	case "xlsx":
		rep, err = c.GenerateXLSX(ctx, id)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Base(rep.Filename)
		if path == "." || path == string(filepath.Separator) {
			path = "report." + *format
		}
	}
	if err := os.WriteFile(path, rep.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintln(stdout, path)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
