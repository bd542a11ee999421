// Command pairpad is a CLI client for the pairpad service.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "pairpad")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pairpad")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (run 'pairpad token' first)")
	}
	return tf.AccessToken, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// server is the verifier, the file just avoids sending stale tokens.
func tokenExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// ---- http ----

type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPI(base, token string) *apiClient {
	return &apiClient{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

// do issues one request and decodes the JSON response into out (nil = discard).
func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("api error: %d %s", resp.StatusCode, e.Error)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `pairpad CLI
Usage:
  pairpad -addr URL <cmd> [args]

Commands:
  version
  token      -t <jwt>                           (saves token)
  projects                                      (list mine)
  create     -name <name> [-public] [-lang <id>]
  project    -id <uuid>
  link       -project <uuid> -role <view|edit|full_access>
  rotate     -project <uuid> -role <role>
  join       -code <room code> -secret <secret>
  requests                                      (my requests)
  request    -project <uuid> -role <role> [-msg <text>]
  approve    -id <uuid>
  files      -project <uuid>
  run        -lang <id> -file <path|->
  watch      -project <uuid>                    (tail live frames)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the HTTP API.
func main() {
	// global flags
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("pairpad %s (%s)\n", version, buildDate)

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		t := fs.String("t", "", "JWT access token")
		_ = fs.Parse(flag.Args()[1:])
		if *t == "" {
			fmt.Fprintln(os.Stderr, "need -t")
			os.Exit(1)
		}
		if err := saveToken(*t, tokenExpiry(*t)); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "projects":
		var out []json.RawMessage
		if err := authed().do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		name := fs.String("name", "", "project name")
		public := fs.Bool("public", false, "public visibility")
		lang := fs.String("lang", "", "language id")
		_ = fs.Parse(flag.Args()[1:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "need -name")
			os.Exit(1)
		}
		in := map[string]any{"name": *name, "public": *public, "language": *lang}
		var out json.RawMessage
		if err := authed().do(ctx, http.MethodPost, "/api/projects", in, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "project":
		fs := flag.NewFlagSet("project", flag.ExitOnError)
		id := fs.String("id", "", "project id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		var out json.RawMessage
		if err := authed().do(ctx, http.MethodGet, "/api/projects/"+*id, nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "link":
		fs := flag.NewFlagSet("link", flag.ExitOnError)
		project := fs.String("project", "", "project id (uuid)")
		role := fs.String("role", "", "view|edit|full_access")
		_ = fs.Parse(flag.Args()[1:])
		if *project == "" || *role == "" {
			fmt.Fprintln(os.Stderr, "need -project and -role")
			os.Exit(1)
		}
		var out struct {
			URL string `json:"url"`
		}
		if err := authed().do(ctx, http.MethodGet, "/api/projects/"+*project+"/links/"+*role, nil, &out); err != nil {
			fail(err)
		}
		fmt.Println(out.URL)

	case "rotate":
		fs := flag.NewFlagSet("rotate", flag.ExitOnError)
		project := fs.String("project", "", "project id (uuid)")
		role := fs.String("role", "", "view|edit|full_access")
		_ = fs.Parse(flag.Args()[1:])
		if *project == "" || *role == "" {
			fmt.Fprintln(os.Stderr, "need -project and -role")
			os.Exit(1)
		}
		var out struct {
			Secret string `json:"secret"`
		}
		if err := authed().do(ctx, http.MethodPost, "/api/projects/"+*project+"/links/"+*role+"/rotate", nil, &out); err != nil {
			fail(err)
		}
		fmt.Println(out.Secret)

	case "join":
		fs := flag.NewFlagSet("join", flag.ExitOnError)
		code := fs.String("code", "", "room code")
		secret := fs.String("secret", "", "link secret")
		_ = fs.Parse(flag.Args()[1:])
		if *code == "" || *secret == "" {
			fmt.Fprintln(os.Stderr, "need -code and -secret")
			os.Exit(1)
		}
		var out json.RawMessage
		if err := authed().do(ctx, http.MethodPost, "/api/join/"+*code+"/"+*secret, nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "requests":
		var out []json.RawMessage
		if err := authed().do(ctx, http.MethodGet, "/api/requests", nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "request":
		fs := flag.NewFlagSet("request", flag.ExitOnError)
		project := fs.String("project", "", "project id (uuid)")
		role := fs.String("role", "", "edit|full_access")
		msg := fs.String("msg", "", "message to the owner")
		_ = fs.Parse(flag.Args()[1:])
		if *project == "" || *role == "" {
			fmt.Fprintln(os.Stderr, "need -project and -role")
			os.Exit(1)
		}
		in := map[string]string{"role": *role, "message": *msg}
		var out json.RawMessage
		if err := authed().do(ctx, http.MethodPost, "/api/projects/"+*project+"/requests", in, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "approve":
		fs := flag.NewFlagSet("approve", flag.ExitOnError)
		id := fs.String("id", "", "request id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		var out json.RawMessage
		if err := authed().do(ctx, http.MethodPost, "/api/requests/"+*id+"/approve", nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "files":
		fs := flag.NewFlagSet("files", flag.ExitOnError)
		project := fs.String("project", "", "project id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *project == "" {
			fmt.Fprintln(os.Stderr, "need -project")
			os.Exit(1)
		}
		var out []json.RawMessage
		if err := authed().do(ctx, http.MethodGet, "/api/projects/"+*project+"/files", nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		lang := fs.String("lang", "", "language id")
		file := fs.String("file", "", "source file ('-'=stdin)")
		_ = fs.Parse(flag.Args()[1:])
		if *lang == "" || *file == "" {
			fmt.Fprintln(os.Stderr, "need -lang and -file")
			os.Exit(1)
		}
		code, err := readAll(*file)
		if err != nil {
			fail(err)
		}
		in := map[string]string{"code": string(code), "language": *lang}
		var out struct {
			Success bool     `json:"success"`
			Output  []string `json:"output"`
		}
		if err := authed().do(ctx, http.MethodPost, "/api/execute", in, &out); err != nil {
			fail(err)
		}
		for _, line := range out.Output {
			fmt.Println(line)
		}
		if !out.Success {
			os.Exit(1)
		}

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		project := fs.String("project", "", "project id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *project == "" {
			fmt.Fprintln(os.Stderr, "need -project")
			os.Exit(1)
		}
		if err := watch(*addr, *project); err != nil {
			fail(err)
		}

	default:
		usage()
	}
}

func authed() *apiClient {
	addr := flag.Lookup("addr").Value.String()
	token, err := loadToken()
	if err != nil {
		fail(err)
	}
	return newAPI(addr, token)
}

// wsURL converts the API base URL to the project's WebSocket endpoint, with
// the token as a query parameter since browsers (and ws dialers) cannot set
// headers on the upgrade request uniformly.
func wsURL(base, projectID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws/projects/" + projectID
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// watch tails the project's collaboration channel and prints every frame
// until interrupted.
func watch(addr, projectID string) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	target, err := wsURL(addr, projectID, token)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %s: %w", resp.Status, err)
		}
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		var frame json.RawMessage
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		printJSON(frame)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
