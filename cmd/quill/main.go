// Command quill is a CLI client for the quill REST API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

const usageText = `quill CLI
Usage:
  quill [-addr URL] <cmd> [args]

Commands:
  version
  register   -u <username> -p <password> [-name <name>]   (saves tokens)
  login      -u <username> -p <password>                  (saves tokens)
  refresh                                                 (rotates saved tokens)
  logout
  profile
  articles   [-page N | -cursor C] [-limit N]
  article    -id <id or slug>
  post       -title <title> -file <body file ('-'=stdin)>
  like       -id <uuid> [-off]
  comments   -article <uuid> [-page N | -cursor C] [-limit N]
  comment    -article <uuid> -text <content>
`

// main dispatches subcommands against the configured server.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("quill", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	addr := global.String("addr", envOr("QUILL_ADDR", "http://localhost:3000"), "server base URL")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() < 1 {
		return errUsage
	}
	cmd, rest := global.Arg(0), global.Args()[1:]
	c := newClient(*addr, &http.Client{Timeout: 20 * time.Second})

	switch cmd {
	case "version":
		_, err := fmt.Fprintf(stdout, "quill %s (%s)\n", version, buildDate)
		return err

	case "register", "login":
		fs := newFlagSet(cmd)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		name := fs.String("name", "", "display name")
		if err := fs.Parse(rest); err != nil || *u == "" || *p == "" {
			return fmt.Errorf("%w: need -u and -p", errUsage)
		}
		body := map[string]string{"username": *u, "password": *p}
		if cmd == "register" && *name != "" {
			body["name"] = *name
		}
		var t tokens
		if err := c.do(ctx, http.MethodPost, "/auth/"+cmd, nil, body, &t); err != nil {
			return err
		}
		if err := saveTokens(t); err != nil {
			return err
		}
		_, err := fmt.Fprintln(stdout, "ok")
		return err

	case "refresh":
		rt, err := loadRefreshToken()
		if err != nil {
			return err
		}
		var t tokens
		if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, map[string]string{"refresh_token": rt}, &t); err != nil {
			return err
		}
		if err := saveTokens(t); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, "ok")
		return err

	case "logout":
		ac, err := authed(c)
		if err != nil {
			return err
		}
		if err := ac.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
			return err
		}
		if err := clearTokens(); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, "logged out")
		return err

	case "profile":
		ac, err := authed(c)
		if err != nil {
			return err
		}
		var out map[string]any
		if err := ac.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &out); err != nil {
			return err
		}
		return printJSON(stdout, out)

	case "articles":
		fs := newFlagSet(cmd)
		q := pageFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		var out map[string]any
		if err := maybeAuthed(c).do(ctx, http.MethodGet, "/articles", q(), nil, &out); err != nil {
			return err
		}
		return printJSON(stdout, out)

	case "article":
		fs := newFlagSet(cmd)
		id := fs.String("id", "", "article id or slug")
		if err := fs.Parse(rest); err != nil || *id == "" {
			return fmt.Errorf("%w: need -id", errUsage)
		}
		var out map[string]any
		if err := maybeAuthed(c).do(ctx, http.MethodGet, "/articles/"+url.PathEscape(*id), nil, nil, &out); err != nil {
			return err
		}
		return printJSON(stdout, out)

	case "post":
		fs := newFlagSet(cmd)
		title := fs.String("title", "", "title")
		file := fs.String("file", "", "body file ('-'=stdin)")
		if err := fs.Parse(rest); err != nil || *title == "" || *file == "" {
			return fmt.Errorf("%w: need -title and -file", errUsage)
		}
		content, err := readAll(*file, stdin)
		if err != nil {
			return err
		}
		ac, err := authed(c)
		if err != nil {
			return err
		}
		var out map[string]string
		body := map[string]string{"title": *title, "content": string(content)}
		if err := ac.do(ctx, http.MethodPost, "/articles", nil, body, &out); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, out["id"])
		return err

	case "like":
		fs := newFlagSet(cmd)
		id := fs.String("id", "", "article id")
		off := fs.Bool("off", false, "remove the like")
		if err := fs.Parse(rest); err != nil || *id == "" {
			return fmt.Errorf("%w: need -id", errUsage)
		}
		ac, err := authed(c)
		if err != nil {
			return err
		}
		body := map[string]bool{"like": !*off}
		if err := ac.do(ctx, http.MethodPut, "/articles/"+url.PathEscape(*id)+"/likes", nil, body, nil); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, "ok")
		return err

	case "comments":
		fs := newFlagSet(cmd)
		article := fs.String("article", "", "article id")
		q := pageFlags(fs)
		if err := fs.Parse(rest); err != nil || *article == "" {
			return fmt.Errorf("%w: need -article", errUsage)
		}
		var out map[string]any
		path := "/articles/" + url.PathEscape(*article) + "/comments"
		if err := maybeAuthed(c).do(ctx, http.MethodGet, path, q(), nil, &out); err != nil {
			return err
		}
		return printJSON(stdout, out)

	case "comment":
		fs := newFlagSet(cmd)
		article := fs.String("article", "", "article id")
		text := fs.String("text", "", "comment text")
		if err := fs.Parse(rest); err != nil || *article == "" || strings.TrimSpace(*text) == "" {
			return fmt.Errorf("%w: need -article and -text", errUsage)
		}
		ac, err := authed(c)
		if err != nil {
			return err
		}
		var out map[string]string
		path := "/articles/" + url.PathEscape(*article) + "/comments"
		if err := ac.do(ctx, http.MethodPost, path, nil, map[string]string{"content": *text}, &out); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, out["id"])
		return err
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

// ---- utils ----

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func pageFlags(fs *flag.FlagSet) func() url.Values {
	page := fs.Int("page", 0, "page (offset mode)")
	cursor := fs.String("cursor", "", "cursor (cursor mode)")
	limit := fs.Int("limit", 0, "page size")
	return func() url.Values {
		q := url.Values{}
		if *page > 0 {
			q.Set("page", strconv.Itoa(*page))
		}
		if *cursor != "" {
			q.Set("cursor", *cursor)
		}
		if *limit > 0 {
			q.Set("limit", strconv.Itoa(*limit))
		}
		return q
	}
}

func authed(c *client) (*client, error) {
	tok, err := loadToken()
	if err != nil {
		return nil, err
	}
	return c.withBearer(tok), nil
}

// maybeAuthed attaches a saved token when there is one, so listings show "liked".
func maybeAuthed(c *client) *client {
	if tok, err := loadToken(); err == nil {
		return c.withBearer(tok)
	}
	return c
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func readAll(p string, stdin io.Reader) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(p)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
