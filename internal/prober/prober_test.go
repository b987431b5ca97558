package prober

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, probeUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	result := Execute(context.Background(), Request{
		Name:   "homepage",
		Method: types.MethodGET,
		URL:    srv.URL,
	})

	require.NoError(t, result.Err)
	require.NotNil(t, result.Response)
	assert.Equal(t, http.StatusOK, result.Response.StatusCode)
	assert.Equal(t, `{"ok":true}`, result.Response.Body)
}

func TestExecuteAlertUsesDistinctUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, alertUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := ExecuteAlert(context.Background(), Request{Name: "webhook", Method: types.MethodPOST, URL: srv.URL})
	require.NoError(t, result.Err)
}

func TestExecuteTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	result := Execute(ctx, Request{Name: "slow", Method: types.MethodGET, URL: srv.URL})
	require.Error(t, result.Err)
	assert.Equal(t, types.FailureTimeout, result.Kind)
}

func TestExecuteTransportFailure(t *testing.T) {
	result := Execute(context.Background(), Request{Name: "unreachable", Method: types.MethodGET, URL: "http://127.0.0.1:1"})
	require.Error(t, result.Err)
	assert.Equal(t, types.FailureTransport, result.Kind)
}

func TestExecuteAppliesQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bar", r.URL.Query().Get("foo"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := Execute(context.Background(), Request{
		Name:   "query",
		Method: types.MethodGET,
		URL:    srv.URL,
		Query:  map[string]string{"foo": "bar"},
	})
	require.NoError(t, result.Err)
}

func TestBodyPreviewTruncates(t *testing.T) {
	long := make([]byte, types.MaxBodyPreviewChars+50)
	for i := range long {
		long[i] = 'a'
	}
	preview := BodyPreview(string(long))
	assert.Len(t, []rune(preview), types.MaxBodyPreviewChars)
}

func TestBodyPreviewShortPassesThrough(t *testing.T) {
	assert.Equal(t, "short", BodyPreview("short"))
}
