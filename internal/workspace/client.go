// Package workspace talks to the external structured-database collaborator
// where qualifying job evaluations are persisted for human review. It
// doubles as the duplicate index: previously recorded job ids are read
// back through a paginated query.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/retry"
)

const (
	apiURL          = "https://api.notion.com/v1"
	protocolVersion = "2022-06-28"
	jobIDProperty   = "Job ID"

	contentType = "application/json"
)

// Client is the workspace API client.
type Client struct {
	token      string
	databaseID string
	logger     *zap.Logger
	retry      retry.Policy

	HTTPClient *http.Client
	APIURL     string
}

func New(token, databaseID string, policy retry.Policy, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:      token,
		databaseID: databaseID,
		logger:     logger,
		retry:      policy,
		APIURL:     apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results []struct {
		Properties map[string]struct {
			RichText []struct {
				Text struct {
					Content string `json:"content"`
				} `json:"text"`
			} `json:"rich_text"`
		} `json:"properties"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// KnownIDs queries the database page by page, following the cursor until
// exhausted, and returns the union of recorded job identifiers.
func (c *Client) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	cursor := ""

	for {
		var response queryResponse
		url := fmt.Sprintf("%s/databases/%s/query", c.APIURL, c.databaseID)
		if err := c.postJSON(ctx, url, queryRequest{StartCursor: cursor}, &response); err != nil {
			return nil, fmt.Errorf("query known ids: %w", err)
		}

		for _, page := range response.Results {
			prop, ok := page.Properties[jobIDProperty]
			if !ok || len(prop.RichText) == 0 {
				continue
			}
			if id := prop.RichText[0].Text.Content; id != "" {
				known[id] = struct{}{}
			}
		}

		if !response.HasMore || response.NextCursor == "" {
			break
		}
		cursor = response.NextCursor
	}

	c.logger.Debug("fetched known job ids", zap.Int("count", len(known)))

	return known, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	c.setHeaders(req)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Notion-Version", protocolVersion)
	req.Header.Set("Content-Type", contentType)
}
