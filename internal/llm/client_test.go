package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// testClient builds a client against srv with the backoff sleep collapsed,
// recording each requested wait.
func testClient(srv *httptest.Server, attempts int) (*Client, *[]time.Duration) {
	c := NewClient(Options{BaseURL: srv.URL, MaxAttempts: attempts})
	waits := &[]time.Duration{}
	c.sleep = func(d time.Duration) { *waits = append(*waits, d) }
	return c, waits
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq chatRequest
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, completionBody(`{"action": "opened"}`))
	})
	c, _ := testClient(srv, 3)

	out, err := c.Complete(context.Background(), "scan this inbox")
	require.NoError(t, err)
	assert.Equal(t, `{"action": "opened"}`, out)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "scan this inbox", gotReq.Messages[1].Content)
}

func TestCompleteSendsAuthHeader(t *testing.T) {
	var auth string
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, completionBody("ok"))
	})
	c := NewClient(Options{BaseURL: srv.URL, APIKey: "sk-test"})
	c.sleep = func(time.Duration) {}

	_, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", auth)
}

func TestCompleteRetriesTimeoutThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, `{"error": {"message": "Request timed out"}}`)
			return
		}
		fmt.Fprint(w, completionBody("recovered"))
	})
	c, waits := testClient(srv, 3)

	out, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{1 * time.Second}, *waits)
}

func TestCompleteTimeoutExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"error": {"message": "upstream timeout"}}`)
	})
	c, waits := testClient(srv, 3)

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, ErrProvider))
	assert.Equal(t, int32(3), calls.Load())
	// Exponential schedule: 2^0, 2^1 seconds between the three attempts.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *waits)
}

func TestCompleteConnectionExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"error": {"message": "connection reset by peer"}}`)
	})
	c, _ := testClient(srv, 2)

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteOtherErrorFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"error": {"message": "invalid api key"}}`)
	})
	c, waits := testClient(srv, 3)

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, int32(1), calls.Load(), "non-transient failures must not retry")
	assert.Empty(t, *waits)
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	})
	c, _ := testClient(srv, 1)

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want failureClass
	}{
		{"context deadline exceeded", failTimeout},
		{"request timed out", failTimeout},
		{"read tcp: i/o timeout", failTimeout},
		{"connection refused", failConnection},
		{"dial tcp: no such host", failConnection},
		{"network is unreachable", failConnection},
		{"invalid api key", failOther},
		{"no choices in response", failOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(errors.New(tt.msg)), tt.msg)
	}
}

func TestCompleteOrFallback(t *testing.T) {
	failing := ProviderFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", ErrProvider
	})
	working := ProviderFunc(func(ctx context.Context, prompt string) (string, error) {
		return "real output", nil
	})

	assert.Equal(t, "real output",
		CompleteOrFallback(context.Background(), working, "p", "fb"))
	assert.Equal(t, "fb",
		CompleteOrFallback(context.Background(), failing, "p", "fb"))

	generic := CompleteOrFallback(context.Background(), failing, "p", "")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(generic), &m))
	assert.Equal(t, "ignored", m["action"])
	assert.Equal(t, true, m["error"])
}

func TestNewProviderKinds(t *testing.T) {
	p, err := New(Options{Kind: KindStub})
	require.NoError(t, err)
	assert.IsType(t, &Stub{}, p)

	p, err = New(Options{Kind: KindOpenAI})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, p)

	p, err = New(Options{})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, p)

	_, err = New(Options{Kind: "grpc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
}
