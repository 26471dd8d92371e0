package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBlueskyHost is the PDS most accounts live on.
const DefaultBlueskyHost = "https://bsky.social"

// BlueskyConfig carries the connection settings for one Bluesky (atproto)
// account. Identifier and Password are only needed for posting; feed reads
// work unauthenticated.
type BlueskyConfig struct {
	Host       string
	Identifier string
	Password   string
}

// BlueskyClient is a minimal XRPC client for the atproto endpoints the bot
// needs: session creation, handle resolution, author feeds, and posting.
type BlueskyClient struct {
	cfg     BlueskyConfig
	client  *http.Client
	logger  *slog.Logger
	session *blueskySession
}

type blueskySession struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
	Handle    string `json:"handle"`
}

// NewBlueskyClient returns a client for the configured host. A nil
// http.Client falls back to http.DefaultClient; a nil logger discards all
// logs.
func NewBlueskyClient(cfg BlueskyConfig, client *http.Client, logger *slog.Logger) *BlueskyClient {
	if cfg.Host == "" {
		cfg.Host = DefaultBlueskyHost
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BlueskyClient{cfg: cfg, client: client, logger: logger}
}

// Login creates an app-password session. It must be called before Post.
func (c *BlueskyClient) Login(ctx context.Context) error {
	if c.cfg.Identifier == "" || c.cfg.Password == "" {
		return errors.New("bluesky credentials are not configured")
	}

	payload := map[string]string{
		"identifier": c.cfg.Identifier,
		"password":   c.cfg.Password,
	}
	var session blueskySession
	if err := c.post(ctx, "com.atproto.server.createSession", payload, &session); err != nil {
		return fmt.Errorf("could not create bluesky session: %w", err)
	}
	c.session = &session

	c.logger.Info("Logged in to Bluesky", "handle", session.Handle)
	return nil
}

// ResolveHandle turns a handle like "user.bsky.social" into a DID.
func (c *BlueskyClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", errors.New("empty bluesky handle")
	}

	var out struct {
		Did string `json:"did"`
	}
	query := url.Values{"handle": {handle}}
	if err := c.get(ctx, "com.atproto.identity.resolveHandle", query, &out); err != nil {
		return "", fmt.Errorf("could not resolve handle %q: %w", handle, err)
	}
	return out.Did, nil
}

type blueskyFeed struct {
	Feed []struct {
		Post struct {
			Record struct {
				Text string `json:"text"`
			} `json:"record"`
		} `json:"post"`
	} `json:"feed"`
}

// Posts returns the text of an account's recent posts, replies excluded.
// The API caps limit at 100.
func (c *BlueskyClient) Posts(ctx context.Context, handle string, limit int) ([]string, error) {
	did, err := c.ResolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := url.Values{
		"actor":  {did},
		"limit":  {strconv.Itoa(limit)},
		"filter": {"posts_no_replies"},
	}
	var feed blueskyFeed
	if err := c.get(ctx, "app.bsky.feed.getAuthorFeed", query, &feed); err != nil {
		return nil, fmt.Errorf("could not fetch author feed for %q: %w", handle, err)
	}

	var texts []string
	for _, item := range feed.Feed {
		if text := strings.TrimSpace(item.Post.Record.Text); text != "" {
			texts = append(texts, text)
		}
	}

	c.logger.Info("Fetched Bluesky posts", "account", handle, "posts", len(texts))
	return texts, nil
}

// Post creates an app.bsky.feed.post record under the logged-in account.
func (c *BlueskyClient) Post(ctx context.Context, text string) error {
	if c.session == nil {
		return errors.New("not logged in to bluesky")
	}

	payload := map[string]any{
		"repo":       c.session.Did,
		"collection": "app.bsky.feed.post",
		"record": map[string]any{
			"$type":     "app.bsky.feed.post",
			"text":      text,
			"createdAt": time.Now().UTC().Format(time.RFC3339),
			"langs":     []string{"en"},
		},
	}
	if err := c.post(ctx, "com.atproto.repo.createRecord", payload, nil); err != nil {
		return fmt.Errorf("could not create post record: %w", err)
	}

	c.logger.Info("Posted to Bluesky", "length", len(text))
	return nil
}

func (c *BlueskyClient) get(ctx context.Context, method string, query url.Values, out any) error {
	u := strings.TrimRight(c.cfg.Host, "/") + "/xrpc/" + method
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	return c.do(req, method, out)
}

func (c *BlueskyClient) post(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	u := strings.TrimRight(c.cfg.Host, "/") + "/xrpc/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.do(req, method, out)
}

func (c *BlueskyClient) do(req *http.Request, method string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bluesky returned %s for %s", resp.Status, method)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *BlueskyClient) authorize(req *http.Request) {
	if c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessJwt)
	}
}
