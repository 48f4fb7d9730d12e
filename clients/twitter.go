package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultTwitterAPI = "https://api.twitter.com/2"
	twitterPageSize   = 100
	dateLayout        = "2006-01-02"
)

// --- Twitter (/2, app-only bearer token) ---
type twitterUserResp struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type Tweet struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Text          string    `json:"text"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
}

type tweetsResp struct {
	Data []Tweet `json:"data"`
	Meta struct {
		NextToken   string `json:"next_token"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

type Twitter struct {
	http     *HTTP
	base     string
	token    string
	username string

	// PageDelay is slept between paginated requests.
	PageDelay time.Duration

	mu     sync.Mutex
	userID string
}

func NewTwitter(h *HTTP, base, token, username string) (*Twitter, error) {
	if token == "" {
		return nil, errors.New("twitter: bearer token is required")
	}
	if base == "" {
		base = DefaultTwitterAPI
	}
	return &Twitter{
		http:      h,
		base:      strings.TrimRight(base, "/"),
		token:     token,
		username:  username,
		PageDelay: time.Second,
	}, nil
}

// UserID resolves the configured username once and caches it.
func (t *Twitter) UserID(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.userID != "" {
		return t.userID, nil
	}
	var out twitterUserResp
	u := t.base + "/users/by/username/" + url.PathEscape(t.username)
	if err := t.http.getJSON(ctx, "twitter user", u, t.token, &out); err != nil {
		return "", err
	}
	t.userID = out.Data.ID
	return t.userID, nil
}

// Posts returns the user's tweets between from and to (YYYY-MM-DD), at most
// maxResults of them. Hitting the rate limit ends pagination early and
// returns what was collected so far.
func (t *Twitter) Posts(ctx context.Context, from, to string, maxResults int) ([]Post, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("twitter: from date: %w", err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("twitter: to date: %w", err)
	}
	id, err := t.UserID(ctx)
	if err != nil {
		return nil, err
	}

	pages := maxResults / twitterPageSize
	if pages < 1 {
		pages = 1
	}

	posts := []Post{}
	next := ""
	for page := 0; page < pages; page++ {
		q := url.Values{}
		q.Set("start_time", start.UTC().Format(time.RFC3339))
		q.Set("end_time", end.UTC().Format(time.RFC3339))
		q.Set("tweet.fields", "created_at,text,public_metrics")
		q.Set("max_results", strconv.Itoa(twitterPageSize))
		if next != "" {
			q.Set("pagination_token", next)
		}

		var out tweetsResp
		err := t.http.getJSON(ctx, "twitter tweets", t.base+"/users/"+url.PathEscape(id)+"/tweets?"+q.Encode(), t.token, &out)
		var se *StatusError
		if errors.As(err, &se) && se.RateLimited() {
			log.WithField("component", "twitter").Warnf("rate limit hit after %d posts", len(posts))
			break
		}
		if err != nil {
			return nil, err
		}

		for _, tw := range out.Data {
			posts = append(posts, Post{
				ID:        tw.ID,
				CreatedAt: tw.CreatedAt,
				Text:      tw.Text,
				Likes:     tw.PublicMetrics.LikeCount,
				Boosts:    tw.PublicMetrics.RetweetCount,
				Replies:   tw.PublicMetrics.ReplyCount,
				Quotes:    tw.PublicMetrics.QuoteCount,
			})
		}
		next = out.Meta.NextToken
		if next == "" {
			break
		}
		if t.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(t.PageDelay):
			}
		}
	}
	if maxResults > 0 && len(posts) > maxResults {
		posts = posts[:maxResults]
	}
	return posts, nil
}
