package clients_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mhai-lab/mhai/clients"
)

func TestNewTwitterRequiresToken(t *testing.T) {
	if _, err := clients.NewTwitter(clients.NewHTTP(), "", "", "esloch"); err == nil {
		t.Error("expected error without bearer token")
	}
}

func TestTwitterUserIDCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/users/by/username/esloch" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"data":{"id":"123456","username":"esloch"}}`))
	}))
	defer srv.Close()

	tw, err := clients.NewTwitter(clients.NewHTTP(), srv.URL, "tok", "esloch")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		id, err := tw.UserID(context.Background())
		if err != nil || id != "123456" {
			t.Fatalf("UserID = %q, %v", id, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("user lookups = %d, want 1", calls.Load())
	}
}

func tweetPage(id, next string) string {
	meta := `"meta":{"result_count":1}`
	if next != "" {
		meta = fmt.Sprintf(`"meta":{"result_count":1,"next_token":%q}`, next)
	}
	return fmt.Sprintf(`{"data":[{"id":%q,"created_at":"2023-12-25T10:30:00Z","text":"This is a mock tweet","public_metrics":{"like_count":10,"retweet_count":2,"reply_count":1,"quote_count":0}}],%s}`, id, meta)
}

func newTwitterServer(t *testing.T, pages func(token string) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/by/username/esloch":
			w.Write([]byte(`{"data":{"id":"123456"}}`))
		case "/users/123456/tweets":
			q := r.URL.Query()
			if q.Get("start_time") != "2023-12-01T00:00:00Z" || q.Get("max_results") != "100" {
				t.Errorf("query = %v", q)
			}
			code, body := pages(q.Get("pagination_token"))
			w.WriteHeader(code)
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTwitterPostsPaginates(t *testing.T) {
	srv := newTwitterServer(t, func(token string) (int, string) {
		switch token {
		case "":
			return http.StatusOK, tweetPage("1", "p2")
		case "p2":
			return http.StatusOK, tweetPage("2", "")
		}
		return http.StatusBadRequest, `{}`
	})
	tw, _ := clients.NewTwitter(clients.NewHTTP(), srv.URL, "tok", "esloch")
	tw.PageDelay = 0

	posts, err := tw.Posts(context.Background(), "2023-12-01", "2023-12-31", 3200)
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Likes != 10 || posts[0].Boosts != 2 || posts[0].Text != "This is a mock tweet" {
		t.Errorf("post = %+v", posts[0])
	}
}

func TestTwitterPostsPageLimit(t *testing.T) {
	srv := newTwitterServer(t, func(token string) (int, string) {
		return http.StatusOK, tweetPage("x"+token, token+"n")
	})
	tw, _ := clients.NewTwitter(clients.NewHTTP(), srv.URL, "tok", "esloch")
	tw.PageDelay = 0

	posts, err := tw.Posts(context.Background(), "2023-12-01", "2023-12-31", 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Errorf("expected 2 pages worth, got %d", len(posts))
	}
}

func TestTwitterPostsTruncatesBelowPageSize(t *testing.T) {
	srv := newTwitterServer(t, func(string) (int, string) {
		return http.StatusOK, `{"data":[{"id":"1","text":"a"},{"id":"2","text":"b"},{"id":"3","text":"c"}],"meta":{"result_count":3,"next_token":"more"}}`
	})
	tw, _ := clients.NewTwitter(clients.NewHTTP(), srv.URL, "tok", "esloch")
	tw.PageDelay = 0

	posts, err := tw.Posts(context.Background(), "2023-12-01", "2023-12-31", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 || posts[1].ID != "2" {
		t.Errorf("expected the first 2 posts, got %+v", posts)
	}
}

func TestTwitterPostsEmpty(t *testing.T) {
	srv := newTwitterServer(t, func(string) (int, string) {
		return http.StatusOK, `{"meta":{"result_count":0}}`
	})
	tw, _ := clients.NewTwitter(clients.NewHTTP(), srv.URL, "tok", "esloch")
	posts, err := tw.Posts(context.Background(), "2023-12-01", "2023-12-31", 100)
	if err != nil {
		t.Fatal(err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", posts)
	}
}

func TestTwitterRateLimitReturnsPartial(t *testing.T) {
	srv := newTwitterServer(t, func(token string) (int, string) {
		if token == "" {
			return http.StatusOK, tweetPage("1", "p2")
		}
		return http.StatusTooManyRequests, `{"title":"Too Many Requests"}`
	})
	tw, _ := clients.NewTwitter(clients.NewHTTP(), srv.URL, "tok", "esloch")
	tw.PageDelay = 0

	posts, err := tw.Posts(context.Background(), "2023-12-01", "2023-12-31", 3200)
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("expected the first page only, got %d", len(posts))
	}
}

func TestTwitterPostsErrors(t *testing.T) {
	srv := newTwitterServer(t, func(string) (int, string) {
		return http.StatusInternalServerError, `API error`
	})
	tw, _ := clients.NewTwitter(clients.NewHTTP(), srv.URL, "tok", "esloch")

	if _, err := tw.Posts(context.Background(), "2023/01/01", "2023-12-31", 100); err == nil {
		t.Error("expected date parse error")
	}
	_, err := tw.Posts(context.Background(), "2023-12-01", "2023-12-31", 100)
	if err == nil {
		t.Fatal("expected API error")
	}
}
