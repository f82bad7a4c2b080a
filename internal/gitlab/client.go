package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
)

const (
	listPerPage   = 100
	searchPerPage = 50
	// maxPages caps paginated listing. Hitting the cap stops the fetch and
	// returns what was collected so far; it is not an error.
	maxPages = 100

	requestTimeout = 30 * time.Second
	pingTimeout    = 10 * time.Second
)

// Client issues authenticated calls against one GitLab instance. Calls carry
// their own deadline; no call is ever retried.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the instance at baseURL using token as the
// bearer credential.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// ListProjects fetches every project the token's principal is a member of,
// page by page. Items missing a required field are dropped rather than
// aborting the fetch.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var out []Project
	page := 1
	for fetched := 0; fetched < maxPages; fetched++ {
		query := url.Values{
			"membership": {"true"},
			"simple":     {"true"},
			"per_page":   {strconv.Itoa(listPerPage)},
			"page":       {strconv.Itoa(page)},
		}
		var items []projectPayload
		header, err := c.do(ctx, http.MethodGet, "/api/v4/projects", query, nil, &items)
		if err != nil {
			return nil, err
		}

		valid, invalid := partition(items)
		for _, reason := range invalid {
			slog.Debug("dropping invalid project item", slog.String("reason", reason.Error()))
		}
		out = append(out, valid...)

		next := nextPage(header, len(items), page)
		if next == 0 {
			break
		}
		page = next
	}
	return out, nil
}

// nextPage decides the next page number. The x-next-page header is
// authoritative when present; otherwise a full page means "try the next
// number" and a short page means "done".
func nextPage(header http.Header, got, page int) int {
	if raw := header.Get("x-next-page"); raw != "" {
		next, err := strconv.Atoi(raw)
		if err == nil {
			return next
		}
	}
	if got == listPerPage {
		return page + 1
	}
	return 0
}

// SearchProjects runs a single-page server-side search. This backs a
// best-effort interactive feature: any failure degrades to an empty result
// instead of propagating.
func (c *Client) SearchProjects(ctx context.Context, query string) []Project {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	q := url.Values{
		"membership": {"true"},
		"simple":     {"true"},
		"search":     {query},
		"per_page":   {strconv.Itoa(searchPerPage)},
	}
	var items []projectPayload
	if _, err := c.do(ctx, http.MethodGet, "/api/v4/projects", q, nil, &items); err != nil {
		slog.Debug("project search failed", slog.String("query", query), slog.String("error", err.Error()))
		return nil
	}
	valid, _ := partition(items)
	return valid
}

type createIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
}

type createIssueResponse struct {
	WebURL string `json:"web_url"`
}

// CreateIssue creates an issue in the given project and returns its web URL.
func (c *Client) CreateIssue(ctx context.Context, projectID int, title, description string, labels []string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: issue title is empty", apperr.ErrValidation)
	}
	if description == "" {
		return "", fmt.Errorf("%w: issue description is empty", apperr.ErrValidation)
	}
	if labels == nil {
		labels = []string{}
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body := createIssueRequest{Title: title, Description: description, Labels: labels}
	var resp createIssueResponse
	path := fmt.Sprintf("/api/v4/projects/%d/issues", projectID)
	if _, err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return "", err
	}
	if resp.WebURL == "" {
		return "", fmt.Errorf("%w: created issue has no web_url", apperr.ErrInvalidResponse)
	}
	return resp.WebURL, nil
}

// ConnectionStatus is the outcome of a connection check.
type ConnectionStatus struct {
	OK       bool
	Identity string
	Message  string
}

// TestConnection performs a lightweight "who am I" call. It never returns an
// error: every failure, including timeout, becomes a failure status.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var user struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/v4/user", nil, nil, &user); err != nil {
		return ConnectionStatus{OK: false, Message: err.Error()}
	}
	identity := user.Username
	if identity == "" {
		identity = user.Name
	}
	if identity == "" {
		return ConnectionStatus{OK: false, Message: "response carries no username"}
	}
	return ConnectionStatus{OK: true, Identity: identity}
}

// do executes one HTTP call and decodes the JSON response into out. Non-2xx
// statuses and transport failures are mapped onto the apperr taxonomy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (http.Header, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode request: %v", apperr.ErrValidation, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperr.ErrValidation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s %s", apperr.ErrTimeout, method, path)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", apperr.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %d", apperr.FromStatus(resp.StatusCode), method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			// The deadline can also expire mid-body, after the status
			// line already arrived.
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s %s", apperr.ErrTimeout, method, path)
			}
			return nil, fmt.Errorf("%w: decode response: %v", apperr.ErrValidation, err)
		}
	}
	return resp.Header, nil
}
