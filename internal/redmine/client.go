// Package redmine is a small client for the parts of the Redmine REST API
// backlogger needs: running issue queries, reading journals and posting
// notes or priority changes.
package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Client provides authenticated HTTP access to a Redmine instance.
type Client struct {
	// APIURL is the issues JSON endpoint queries are appended to,
	// e.g. https://progress.example.com/projects/qa/issues.json
	APIURL string
	// WebURL is the issues base used for single-issue access and links,
	// e.g. https://progress.example.com/issues
	WebURL    string
	APIKey    string
	UserAgent string

	HTTPClient *http.Client
	Retry      RetryPolicy
	Log        *zap.SugaredLogger
}

// NewClient creates a client. Tracker calls have no request timeout; they
// rely on the retry policy alone.
func NewClient(apiURL, webURL, apiKey, dashboardURL string) *Client {
	return &Client{
		APIURL:     apiURL,
		WebURL:     strings.TrimSuffix(webURL, "/"),
		APIKey:     apiKey,
		UserAgent:  fmt.Sprintf("backlogger (%s)", dashboardURL),
		HTTPClient: &http.Client{},
		Retry:      DefaultRetryPolicy(),
		Log:        zap.NewNop().Sugar(),
	}
}

// QueryURL returns the web link for a query string.
func (c *Client) QueryURL(query string) string {
	return c.WebURL + "?" + query
}

// SearchIssues runs a query against the issues endpoint. A response without
// "issues" or "total_count" yields a *MissingFieldError.
func (c *Client) SearchIssues(ctx context.Context, query string) (*SearchResult, error) {
	apiURL := c.APIURL + "?" + query

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	var raw struct {
		Issues     *[]Issue `json:"issues"`
		TotalCount *int     `json:"total_count"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	if raw.Issues == nil {
		return nil, &MissingFieldError{Field: "issues", URL: apiURL}
	}
	if raw.TotalCount == nil {
		return nil, &MissingFieldError{Field: "total_count", URL: apiURL}
	}

	return &SearchResult{Issues: *raw.Issues, TotalCount: *raw.TotalCount}, nil
}

// Journals fetches the history of an issue. An issue without a "journals"
// key has an empty history.
func (c *Client) Journals(ctx context.Context, id int) ([]Journal, error) {
	apiURL := fmt.Sprintf("%s/%d.json?include=journals", c.WebURL, id)
	return c.journals(ctx, apiURL, id)
}

// JournalsAcrossProjects is like Journals but addresses the issue outside
// of any project scope, as needed when the web URL is project-scoped and the
// issue may have moved.
func (c *Client) JournalsAcrossProjects(ctx context.Context, id int) ([]Journal, error) {
	apiURL := fmt.Sprintf("%s/%d.json?include=journals", StripProject(c.WebURL), id)
	return c.journals(ctx, apiURL, id)
}

func (c *Client) journals(ctx context.Context, apiURL string, id int) ([]Journal, error) {
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch journals of #%d: %w", id, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("fetch journals of #%d: empty response", id)
	}

	var raw struct {
		Issue *struct {
			Journals []Journal `json:"journals"`
		} `json:"issue"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse journals of #%d: %w", id, err)
	}
	if raw.Issue == nil {
		return nil, &MissingFieldError{Field: "issue", URL: apiURL}
	}
	if raw.Issue.Journals == nil {
		return []Journal{}, nil
	}
	return raw.Issue.Journals, nil
}

// AddNote posts a note on an issue.
func (c *Client) AddNote(ctx context.Context, id int, notes string) error {
	return c.updateIssue(ctx, id, map[string]interface{}{"notes": notes})
}

// SetPriority changes the priority of an issue and posts a note with it.
func (c *Client) SetPriority(ctx context.Context, id, priorityID int, notes string) error {
	return c.updateIssue(ctx, id, map[string]interface{}{
		"priority_id": priorityID,
		"notes":       notes,
	})
}

func (c *Client) updateIssue(ctx context.Context, id int, fields map[string]interface{}) error {
	data, err := json.Marshal(map[string]interface{}{"issue": fields})
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%d.json", c.WebURL, id)
	if _, err := c.doRequest(ctx, http.MethodPut, apiURL, data); err != nil {
		return fmt.Errorf("update issue #%d: %w", id, err)
	}
	return nil
}

// IssueStatuses lists the statuses known to the instance.
func (c *Client) IssueStatuses(ctx context.Context) ([]Status, error) {
	apiURL := StripProject(c.APIURL)
	if i := strings.LastIndex(apiURL, "issues"); i >= 0 {
		apiURL = apiURL[:i] + "issue_statuses" + apiURL[i+len("issues"):]
	}

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch issue statuses: %w", err)
	}

	var raw struct {
		Statuses *[]Status `json:"issue_statuses"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse issue statuses: %w", err)
	}
	if raw.Statuses == nil {
		return nil, &MissingFieldError{Field: "issue_statuses", URL: apiURL}
	}
	return *raw.Statuses, nil
}

var projectPartRe = regexp.MustCompile(`projects/.*/`)

// StripProject removes the "projects/<name>/" scope from a Redmine URL.
func StripProject(u string) string {
	return projectPartRe.ReplaceAllString(u, "")
}

// doRequest executes an authenticated request under the retry policy and
// returns the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("redmine API key not configured")
	}

	var respBody []byte
	err := c.Retry.Do(ctx, c.Log, func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
		if err != nil {
			return permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", c.UserAgent)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Redmine-API-Key", c.APIKey)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return permanent(ctx.Err())
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			httpErr := &HTTPError{Method: method, URL: apiURL, StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
			if c.Retry.Retryable(resp.StatusCode) {
				return httpErr
			}
			return permanent(httpErr)
		}

		respBody = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
