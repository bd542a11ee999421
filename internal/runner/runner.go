// Package runner is a stateless adapter to an external Piston-compatible
// code execution service. It maps internal language ids to runtime triples
// and normalizes results into ordered display lines.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/errs"
)

// Runtime is the external service's (language, version, filename) triple.
type Runtime struct {
	Language string
	Version  string
	Filename string
}

// runtimes is the closed language map. Unknown ids fail before any network
// call.
var runtimes = map[string]Runtime{
	"javascript": {Language: "javascript", Version: "18.15.0", Filename: "index.js"},
	"typescript": {Language: "typescript", Version: "5.0.3", Filename: "index.ts"},
	"python":     {Language: "python", Version: "3.10.0", Filename: "main.py"},
	"cpp":        {Language: "c++", Version: "10.2.0", Filename: "main.cpp"},
	"c":          {Language: "c", Version: "10.2.0", Filename: "main.c"},
	"java":       {Language: "java", Version: "15.0.2", Filename: "Main.java"},
}

// Supported reports whether a language id has a runtime mapping.
func Supported(languageID string) bool {
	_, ok := runtimes[languageID]
	return ok
}

// Result is the normalized outcome of one execution.
type Result struct {
	Lines   []string `json:"lines"`
	Success bool     `json:"success"`
}

// Client calls the execution service. Stateless; safe for concurrent use.
type Client struct {
	baseURL        string
	http           *http.Client
	log            *zap.Logger
	compileTimeout time.Duration
	runTimeout     time.Duration
}

// NewClient constructs a gateway client. Compile and run timeouts are
// forwarded to the service, which enforces them.
func NewClient(baseURL string, log *zap.Logger, compileTimeout, runTimeout time.Duration) *Client {
	if compileTimeout <= 0 {
		compileTimeout = 10 * time.Second
	}
	if runTimeout <= 0 {
		runTimeout = 3 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: compileTimeout + runTimeout + 5*time.Second},
		log:            log,
		compileTimeout: compileTimeout,
		runTimeout:     runTimeout,
	}
}

type executeRequest struct {
	Language       string        `json:"language"`
	Version        string        `json:"version"`
	Files          []executeFile `json:"files"`
	CompileTimeout int64         `json:"compile_timeout"`
	RunTimeout     int64         `json:"run_timeout"`
}

type executeFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type stageResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Code   int    `json:"code"`
}

type executeResponse struct {
	Compile *stageResult `json:"compile,omitempty"`
	Run     stageResult  `json:"run"`
}

// Execute submits code and returns normalized output lines. Transport
// failures, non-2xx responses and malformed bodies each surface as failure
// lines, never as an error: retrying an execution silently could duplicate
// the program's side effects, so the caller gets one verdict per call.
// Only an unknown language id is returned as an error, before any network
// activity.
func (c *Client) Execute(ctx context.Context, code, languageID string) (Result, error) {
	rt, ok := runtimes[languageID]
	if !ok {
		return Result{}, fmt.Errorf("%q: %w", languageID, errs.ErrUnsupportedLanguage)
	}

	body, err := json.Marshal(executeRequest{
		Language:       rt.Language,
		Version:        rt.Version,
		Files:          []executeFile{{Name: rt.Filename, Content: code}},
		CompileTimeout: c.compileTimeout.Milliseconds(),
		RunTimeout:     c.runTimeout.Milliseconds(),
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("execution service unreachable", zap.Error(err))
		return failure("execution failed: could not reach the execution service"), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("execution service error", zap.Int("status", resp.StatusCode))
		return failure(fmt.Sprintf("execution failed: service returned status %d", resp.StatusCode)), nil
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.log.Warn("malformed execution response", zap.Error(err))
		return failure("execution failed: malformed response from the execution service"), nil
	}

	return normalize(out), nil
}

func failure(line string) Result {
	return Result{Lines: []string{line}, Success: false}
}

// normalize orders output for display: compile errors first (only when the
// compile stage failed), then stdout, then stderr marked per line, then a
// synthetic exit line for a silent non-zero exit, and a success line when
// nothing at all was produced. Callers depend on this exact ordering and
// labeling.
func normalize(r executeResponse) Result {
	var lines []string

	compiled := r.Compile == nil || r.Compile.Code == 0
	if !compiled {
		for _, l := range splitLines(r.Compile.Stderr) {
			lines = append(lines, l)
		}
		if len(lines) == 0 {
			lines = append(lines, "compilation failed")
		}
	}

	stdout := splitLines(r.Run.Stdout)
	stderr := splitLines(r.Run.Stderr)
	lines = append(lines, stdout...)
	for _, l := range stderr {
		lines = append(lines, "[stderr] "+l)
	}

	success := compiled && r.Run.Code == 0
	if compiled && r.Run.Code != 0 && len(stdout) == 0 && len(stderr) == 0 {
		lines = append(lines, fmt.Sprintf("process exited with code %d and no output", r.Run.Code))
	}
	if success && len(lines) == 0 {
		lines = append(lines, "program finished successfully with no output")
	}
	return Result{Lines: lines, Success: success}
}

// splitLines breaks raw stage output into display lines, dropping a single
// trailing newline but keeping interior blank lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
