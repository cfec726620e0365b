package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/pace"
)

func newCollector(t *testing.T, baseURL string, subreddits []string, topPosts int) *Collector {
	t.Helper()
	return New(Config{
		BaseURL:     baseURL,
		Subreddits:  subreddits,
		SearchLimit: 10,
		TopPosts:    topPosts,
		UserAgent:   "harvester-test/1.0 (testing)",
		Timeout:     5 * time.Second,
	}, pace.New(time.Millisecond, time.Millisecond), zap.NewNop())
}

// writeJSON mimics the API's JSON content type so resty unmarshals bodies.
func writeJSON(w http.ResponseWriter, payload string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, payload)
}

func searchPayload(posts ...map[string]any) string {
	children := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		children = append(children, map[string]any{"kind": "t3", "data": p})
	}
	out, _ := json.Marshal(map[string]any{"data": map[string]any{"children": children}})
	return string(out)
}

func comment(id, body string, replies ...map[string]any) map[string]any {
	data := map[string]any{"id": id, "body": body}
	if len(replies) > 0 {
		children := make([]map[string]any, 0, len(replies))
		for _, r := range replies {
			children = append(children, map[string]any{"kind": "t1", "data": r})
		}
		data["replies"] = map[string]any{"data": map[string]any{"children": children}}
	} else {
		data["replies"] = ""
	}
	return data
}

func threadPayload(comments ...map[string]any) string {
	children := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		children = append(children, map[string]any{"kind": "t1", "data": c})
	}
	post := map[string]any{"data": map[string]any{"children": []any{}}}
	forest := map[string]any{"data": map[string]any{"children": children}}
	out, _ := json.Marshal([]any{post, forest})
	return string(out)
}

func TestFlattenDepthFirstChildrenBeforeNextSibling(t *testing.T) {
	t.Parallel()

	payload := threadPayload(
		comment("a", "top one",
			comment("a1", "reply one", comment("a1a", "nested reply")),
			comment("a2", "reply two"),
		),
		comment("b", "top two"),
	)
	var out []listing
	require.NoError(t, json.Unmarshal([]byte(payload), &out))

	texts := flatten(out[1].Data.Children)
	require.Equal(t,
		[]string{"top one", "reply one", "nested reply", "reply two", "top two"},
		texts)
}

func TestFlattenSkipsMoreStubsAndEmptyBodies(t *testing.T) {
	t.Parallel()

	forest := []node{
		{Kind: "t1"},   // deleted body
		{Kind: "more"}, // continuation stub
	}
	require.Empty(t, flatten(forest))
}

func TestCollectRanksAndFiltersPosts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search.json"):
			require.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
			require.Contains(t, r.Header.Get("User-Agent"), "harvester-test")
			writeJSON(w, searchPayload(
				map[string]any{"id": "low", "title": "Low scorer", "score": 5, "num_comments": 3},
				map[string]any{"id": "none", "title": "No replies", "score": 900, "num_comments": 0},
				map[string]any{"id": "high", "title": "High scorer", "score": 500, "num_comments": 8},
			))
		case strings.Contains(r.URL.Path, "/comments/"):
			writeJSON(w, threadPayload(comment("c", "a comment")))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	result, err := newCollector(t, srv.URL, []string{"movies"}, 15).Collect(context.Background(), "Sinners")
	require.NoError(t, err)

	// Zero-reply post is dropped; remaining units come out score-descending.
	labels := make([]string, 0, result.UnitCount())
	for _, u := range result.Units() {
		labels = append(labels, u.Label)
	}
	require.Equal(t, []string{"High scorer", "Low scorer"}, labels)
}

func TestCollectMergesAcrossSubredditsAndTruncates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/r/movies/search.json"):
			writeJSON(w, searchPayload(
				map[string]any{"id": "m1", "title": "Movies post", "score": 10, "num_comments": 1},
			))
		case strings.Contains(r.URL.Path, "/r/TrueFilm/search.json"):
			writeJSON(w, searchPayload(
				map[string]any{"id": "t1", "title": "TrueFilm post", "score": 99, "num_comments": 1},
			))
		case strings.Contains(r.URL.Path, "/comments/"):
			writeJSON(w, threadPayload(comment("c", "body")))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	result, err := newCollector(t, srv.URL, []string{"movies", "TrueFilm"}, 1).Collect(context.Background(), "Sinners")
	require.NoError(t, err)
	require.Equal(t, 1, result.UnitCount(), "top-N truncation should keep one post")
	require.Equal(t, "TrueFilm post", result.Units()[0].Label)
}

func TestCollectRetriesOnceOnThrottledThread(t *testing.T) {
	t.Parallel()

	var threadCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search.json"):
			writeJSON(w, searchPayload(
				map[string]any{"id": "p1", "title": "Post", "score": 1, "num_comments": 1},
			))
		case strings.Contains(r.URL.Path, "/comments/"):
			if threadCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeJSON(w, threadPayload(comment("c", "after retry")))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	result, err := newCollector(t, srv.URL, []string{"movies"}, 15).Collect(context.Background(), "Sinners")
	require.NoError(t, err)
	require.Equal(t, int64(2), threadCalls.Load(), "expected exactly one retry")
	require.Equal(t, []string{"after retry"}, result.Units()[0].Comments)
}

func TestCollectSkipsFailingSubreddit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/r/broken/"):
			w.WriteHeader(http.StatusNotFound)
		case strings.Contains(r.URL.Path, "/r/movies/search.json"):
			writeJSON(w, searchPayload(
				map[string]any{"id": "ok", "title": "Works", "score": 1, "num_comments": 1},
			))
		case strings.Contains(r.URL.Path, "/comments/"):
			writeJSON(w, threadPayload(comment("c", "fine")))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	result, err := newCollector(t, srv.URL, []string{"broken", "movies"}, 15).Collect(context.Background(), "Sinners")
	require.NoError(t, err)
	require.Equal(t, 1, result.UnitCount(), "failed subreddit must not abort the run")
}
