package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ethwatch/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := New("")
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestFetch_AuthorizationScheme(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "classic token", token: "ghp_abc123", want: "token ghp_abc123"},
		{name: "fine-grained PAT", token: "github_pat_abc123", want: "Bearer github_pat_abc123"},
		{name: "no token", token: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer srv.Close()

			c := New(tt.token)
			_, err := c.Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// redirectChain builds a server that answers /0 .. /n-1 with a redirect to
// the next path and the final path with a 200 body. Locations are relative,
// which RFC 7231 permits and real hosts emit.
func redirectChain(t *testing.T, hops int, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	for i := 0; i < hops; i++ {
		next := fmt.Sprintf("/%d", i+1)
		mux.HandleFunc(fmt.Sprintf("/%d", i), func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", next)
			w.WriteHeader(status)
		})
	}
	mux.HandleFunc(fmt.Sprintf("/%d", hops), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "final")
	})
	return srv
}

func TestFetch_FollowsRedirects(t *testing.T) {
	for _, status := range []int{
		http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect,
	} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			srv := redirectChain(t, 5, status)

			c := New("")
			body, err := c.Fetch(context.Background(), srv.URL+"/0")
			require.NoError(t, err)
			assert.Equal(t, "final", string(body))
		})
	}
}

func TestFetch_RelativeRedirect(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/end")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "final")
	})

	c := New("")
	body, err := c.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, "final", string(body))
}

func TestFetch_TooManyRedirects(t *testing.T) {
	srv := redirectChain(t, 6, http.StatusFound)

	c := New("")
	_, err := c.Fetch(context.Background(), srv.URL+"/0")
	require.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestFetch_RedirectKeepsCredential(t *testing.T) {
	var auths []string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		w.Header().Set("Location", srv.URL+"/end")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
	})

	c := New("ghp_secret")
	_, err := c.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	require.Len(t, auths, 2)
	assert.Equal(t, "token ghp_secret", auths[0])
	assert.Equal(t, "token ghp_secret", auths[1])
}

func TestFetch_AuthDowngrade(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "anonymous ok")
	}))
	defer srv.Close()

	c := New("ghp_expired")
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "anonymous ok", string(body))
	assert.Equal(t, 2, requests)
}

func TestFetch_AuthDowngradeOnlyOnce(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("ghp_expired")
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, 2, requests)
}

func TestFetch_AuthFailedWithoutCredential(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("")
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, 1, requests)
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New("")
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetch_RateLimitedNoRetry(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New("ghp_valid")
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, requests)
}

func TestFetch_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream gone")
	}))
	defer srv.Close()

	c := New("")
	_, err := c.Fetch(context.Background(), srv.URL)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "upstream gone", statusErr.Body)
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New("")
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAuthFailed)
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.2.3"}`)
	}))
	defer srv.Close()

	c := New("")
	var out struct {
		TagName string `json:"tag_name"`
	}
	require.NoError(t, c.FetchJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "v1.2.3", out.TagName)
}

func TestFetchJSON_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	c := New("")
	var out map[string]any
	err := c.FetchJSON(context.Background(), srv.URL, &out)

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, srv.URL, malformed.URL)
	assert.Error(t, errors.Unwrap(malformed))
}
