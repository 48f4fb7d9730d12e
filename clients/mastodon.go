package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultMastodonInstance = "https://mastodon.social"

var ErrUserNotFound = errors.New("user not found")

// --- Mastodon (/api/v1) ---
type Account struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Acct           string `json:"acct"`
	DisplayName    string `json:"display_name"`
	URL            string `json:"url"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	StatusesCount  int    `json:"statuses_count"`
}

type Status struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Content         string    `json:"content"`
	RepliesCount    int       `json:"replies_count"`
	ReblogsCount    int       `json:"reblogs_count"`
	FavouritesCount int       `json:"favourites_count"`
	URL             string    `json:"url"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Account   Account   `json:"account"`
	Status    *Status   `json:"status,omitempty"`
}

// Post is the flattened row shared by every extractor.
type Post struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
	Replies   int       `json:"replies"`
	Boosts    int       `json:"boosts"`
	Likes     int       `json:"likes"`
	Quotes    int       `json:"quotes,omitempty"`
	URL       string    `json:"url,omitempty"`
}

type Mastodon struct {
	http     *HTTP
	instance string
	token    string
}

func NewMastodon(h *HTTP, instance, token string) (*Mastodon, error) {
	if token == "" {
		return nil, errors.New("mastodon: access token is not set")
	}
	if instance == "" {
		instance = DefaultMastodonInstance
	}
	return &Mastodon{http: h, instance: strings.TrimRight(instance, "/"), token: token}, nil
}

func (m *Mastodon) endpoint(path string, q url.Values) string {
	u := m.instance + "/api/v1/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func limitQuery(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// Me returns the authenticated account.
func (m *Mastodon) Me(ctx context.Context) (*Account, error) {
	var out Account
	if err := m.http.getJSON(ctx, "mastodon me", m.endpoint("accounts/verify_credentials", nil), m.token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User looks up handle (user or user@instance).
func (m *Mastodon) User(ctx context.Context, handle string) (*Account, error) {
	q := url.Values{"acct": {handle}}
	var out Account
	err := m.http.getJSON(ctx, "mastodon lookup", m.endpoint("accounts/lookup", q), m.token, &out)
	var se *StatusError
	if errors.As(err, &se) && se.NotFound() {
		return nil, fmt.Errorf("mastodon: user %q: %w", handle, ErrUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Mastodon) statuses(ctx context.Context, op, path string, limit int) ([]Post, error) {
	var out []Status
	if err := m.http.getJSON(ctx, op, m.endpoint(path, limitQuery(limit)), m.token, &out); err != nil {
		return nil, err
	}
	return statusesToPosts(out), nil
}

func (m *Mastodon) MyStatuses(ctx context.Context, limit int) ([]Post, error) {
	me, err := m.Me(ctx)
	if err != nil {
		return nil, err
	}
	return m.statuses(ctx, "mastodon statuses", "accounts/"+url.PathEscape(me.ID)+"/statuses", limit)
}

func (m *Mastodon) UserStatuses(ctx context.Context, handle string, limit int) ([]Post, error) {
	u, err := m.User(ctx, handle)
	if err != nil {
		return nil, err
	}
	return m.statuses(ctx, "mastodon statuses", "accounts/"+url.PathEscape(u.ID)+"/statuses", limit)
}

func (m *Mastodon) PublicTimeline(ctx context.Context, limit int) ([]Post, error) {
	return m.statuses(ctx, "mastodon public timeline", "timelines/public", limit)
}

func (m *Mastodon) HashtagTimeline(ctx context.Context, hashtag string, limit int) ([]Post, error) {
	tag := strings.TrimPrefix(hashtag, "#")
	return m.statuses(ctx, "mastodon hashtag timeline", "timelines/tag/"+url.PathEscape(tag), limit)
}

func (m *Mastodon) Followers(ctx context.Context) ([]Account, error) {
	return m.relations(ctx, "followers")
}

func (m *Mastodon) Following(ctx context.Context) ([]Account, error) {
	return m.relations(ctx, "following")
}

func (m *Mastodon) relations(ctx context.Context, kind string) ([]Account, error) {
	me, err := m.Me(ctx)
	if err != nil {
		return nil, err
	}
	var out []Account
	if err := m.http.getJSON(ctx, "mastodon "+kind, m.endpoint("accounts/"+url.PathEscape(me.ID)+"/"+kind, nil), m.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mastodon) Notifications(ctx context.Context, limit int) ([]Notification, error) {
	var out []Notification
	if err := m.http.getJSON(ctx, "mastodon notifications", m.endpoint("notifications", limitQuery(limit)), m.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func statusesToPosts(in []Status) []Post {
	out := make([]Post, 0, len(in))
	for _, s := range in {
		out = append(out, Post{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			Text:      HTMLText(s.Content),
			Replies:   s.RepliesCount,
			Boosts:    s.ReblogsCount,
			Likes:     s.FavouritesCount,
			URL:       s.URL,
		})
	}
	return out
}
