package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// MastodonConfig carries everything needed to talk to one Mastodon
// instance.
type MastodonConfig struct {
	BaseURL     string
	AccessToken string
}

// MastodonClient is a minimal REST client for the endpoints the bot needs:
// resolving an account, reading its statuses, and posting a new one.
type MastodonClient struct {
	cfg    MastodonConfig
	client *http.Client
	logger *slog.Logger
}

// NewMastodonClient validates the config and returns a client. A nil
// http.Client falls back to http.DefaultClient; a nil logger discards all
// logs.
func NewMastodonClient(cfg MastodonConfig, client *http.Client, logger *slog.Logger) (*MastodonClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("mastodon base URL is not configured")
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MastodonClient{cfg: cfg, client: client, logger: logger}, nil
}

type mastodonAccount struct {
	ID   string `json:"id"`
	Acct string `json:"acct"`
}

type mastodonStatus struct {
	Content string          `json:"content"`
	Reblog  json.RawMessage `json:"reblog"`
}

// LookupAccount resolves a handle like "@user@instance" (the leading @ is
// optional) to the instance-local account ID.
func (c *MastodonClient) LookupAccount(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", errors.New("empty mastodon handle")
	}

	var accounts []mastodonAccount
	query := url.Values{"q": {handle}, "limit": {"1"}}
	if err := c.get(ctx, "/api/v1/accounts/search", query, &accounts); err != nil {
		return "", fmt.Errorf("could not search for account %q: %w", handle, err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("no mastodon account found for %q", handle)
	}
	return accounts[0].ID, nil
}

// Statuses returns the text of an account's recent posts, skipping boosts
// and flattening the HTML bodies the API delivers.
func (c *MastodonClient) Statuses(ctx context.Context, handle string) ([]string, error) {
	id, err := c.LookupAccount(ctx, handle)
	if err != nil {
		return nil, err
	}

	var statuses []mastodonStatus
	query := url.Values{"limit": {"40"}, "exclude_replies": {"true"}}
	if err := c.get(ctx, "/api/v1/accounts/"+id+"/statuses", query, &statuses); err != nil {
		return nil, fmt.Errorf("could not fetch statuses for %q: %w", handle, err)
	}

	var texts []string
	for _, status := range statuses {
		if len(status.Reblog) > 0 && string(status.Reblog) != "null" {
			continue
		}
		if text := FlattenHTML(status.Content); text != "" {
			texts = append(texts, text)
		}
	}

	c.logger.Info("Fetched Mastodon statuses", "account", handle, "posts", len(texts))
	return texts, nil
}

// Post publishes a new status under the configured token's account.
func (c *MastodonClient) Post(ctx context.Context, text string) error {
	form := url.Values{"status": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/api/v1/statuses",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("could not build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not post status: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mastodon returned %s posting status", resp.Status)
	}

	c.logger.Info("Posted status to Mastodon", "length", len(text))
	return nil
}

func (c *MastodonClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mastodon returned %s for %s", resp.Status, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *MastodonClient) authorize(req *http.Request) {
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
}
