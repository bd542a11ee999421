package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/errs"
)

func newTestClient(url string) *Client {
	return NewClient(url, zap.NewNop(), 10*time.Second, 3*time.Second)
}

func gatewayReturning(t *testing.T, resp executeResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/execute", r.URL.Path)

		var req executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Version)
		require.Len(t, req.Files, 1)
		require.Positive(t, req.CompileTimeout)
		require.Positive(t, req.RunTimeout)

		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_Execute_UnsupportedLanguage_NoNetwork(t *testing.T) {
	t.Parallel()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Execute(context.Background(), "code", "cobol")
	require.ErrorIs(t, err, errs.ErrUnsupportedLanguage)
	require.Zero(t, calls)
}

func TestClient_Execute_Success(t *testing.T) {
	t.Parallel()
	srv := gatewayReturning(t, executeResponse{
		Run: stageResult{Stdout: "hello\nworld\n", Code: 0},
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "print('hi')", "python")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []string{"hello", "world"}, res.Lines)
}

func TestClient_Execute_StderrMarkedAfterStdout(t *testing.T) {
	t.Parallel()
	srv := gatewayReturning(t, executeResponse{
		Run: stageResult{Stdout: "out\n", Stderr: "warn1\nwarn2\n", Code: 0},
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "javascript")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []string{"out", "[stderr] warn1", "[stderr] warn2"}, res.Lines)
}

func TestClient_Execute_CompileErrorsFirst(t *testing.T) {
	t.Parallel()
	srv := gatewayReturning(t, executeResponse{
		Compile: &stageResult{Stderr: "main.cpp:1: error\n", Code: 1},
		Run:     stageResult{},
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "cpp")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, []string{"main.cpp:1: error"}, res.Lines)
}

func TestClient_Execute_SilentCompileFailure(t *testing.T) {
	t.Parallel()
	srv := gatewayReturning(t, executeResponse{
		Compile: &stageResult{Code: 2},
		Run:     stageResult{},
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "c")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, []string{"compilation failed"}, res.Lines)
}

func TestClient_Execute_SilentNonzeroExit(t *testing.T) {
	t.Parallel()
	srv := gatewayReturning(t, executeResponse{
		Run: stageResult{Code: 3},
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "python")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, []string{"process exited with code 3 and no output"}, res.Lines)
}

func TestClient_Execute_SuccessWithNoOutput(t *testing.T) {
	t.Parallel()
	srv := gatewayReturning(t, executeResponse{Run: stageResult{Code: 0}})
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "java")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []string{"program finished successfully with no output"}, res.Lines)
}

func TestClient_Execute_ServiceStatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "python")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Lines[0], "status 502")
}

func TestClient_Execute_Unreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "python")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Lines[0], "could not reach")
}

func TestClient_Execute_MalformedBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), "x", "python")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Lines[0], "malformed response")
}

func TestSplitLines(t *testing.T) {
	t.Parallel()
	require.Nil(t, splitLines(""))
	require.Nil(t, splitLines("\n"))
	require.Equal(t, []string{"a"}, splitLines("a\n"))
	require.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
}

func TestSupported(t *testing.T) {
	t.Parallel()
	require.True(t, Supported("typescript"))
	require.False(t, Supported("brainfuck"))
}
