// Package clickup provides a client for the ClickUp REST API (v2, plus
// the v3 generation for documents and chat channels).
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"clickat/internal/utils"
	"clickat/internal/validation"
)

const (
	// DefaultBaseURL is the ClickUp REST API v2 base URL.
	DefaultBaseURL = "https://api.clickup.com/api/v2"
	// DefaultBaseURLV3 is the base URL of the newer API generation
	// (documents, chat).
	DefaultBaseURLV3 = "https://api.clickup.com/api/v3"
)

// Recognized ECODE values that mean the key or the configured IDs are
// wrong and the user has to reconfigure, not retry.
const (
	ECodeInvalidKey   = "OAUTH_019"
	ECodeInvalidList  = "OAUTH_023"
	ECodeInvalidSpace = "OAUTH_027"
)

// Config holds ClickUp connection settings.
type Config struct {
	APIKey    string
	BaseURL   string // Override for testing
	BaseURLV3 string // Override for testing
	Timeout   time.Duration
}

// Client issues authenticated ClickUp API requests. One request-response
// cycle per call, no retries; a fixed timeout bounds every call.
type Client struct {
	config    Config
	client    *http.Client
	baseURL   string
	baseURLV3 string
	log       *utils.Logger
}

// APIError is a provider-level failure: a non-2xx status, optionally
// carrying ClickUp's machine-readable ECODE.
type APIError struct {
	StatusCode int
	Message    string
	ECode      string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.ECode != "" {
		return fmt.Sprintf("clickup API error %d (%s): %s", e.StatusCode, e.ECode, e.Message)
	}
	return fmt.Sprintf("clickup API error %d: %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether the ECODE identifies a key or ID that
// needs reconfiguration.
func (e *APIError) IsAuthError() bool {
	switch e.ECode {
	case ECodeInvalidKey, ECodeInvalidList, ECodeInvalidSpace:
		return true
	}
	return false
}

// New creates a ClickUp client. The API key is validated before any
// request can be built with it.
func New(cfg Config) (*Client, error) {
	key, err := validation.ValidateAPIKey(cfg.APIKey)
	if err != nil {
		return nil, utils.ErrInvalidAPIKey(err)
	}
	cfg.APIKey = key

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURLV3 := cfg.BaseURLV3
	if baseURLV3 == "" {
		baseURLV3 = DefaultBaseURLV3
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:    cfg,
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		baseURLV3: baseURLV3,
		log:       utils.GetLogger(),
	}, nil
}

// doRequest performs one authenticated request and returns the response
// body. Non-2xx statuses are returned as *APIError with the decoded
// {err, ECODE} payload when present.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, query url.Values, body interface{}) ([]byte, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	reqID := uuid.New().String()[:8]
	c.log.Debug("[%s] %s %s (key %s)", reqID, method, rawURL, utils.MaskAPIKey(c.config.APIKey))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, utils.ErrConnectivity(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("[%s] status %d, %d bytes", reqID, resp.StatusCode, len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Err   string `json:"err"`
			ECode string `json:"ECODE"`
		}
		if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil {
			if payload.Err != "" {
				apiErr.Message = payload.Err
			}
			apiErr.ECode = payload.ECode
		}
		return nil, apiErr
	}

	return data, nil
}

// get performs a GET against a validated v2 URL.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, params ...validation.Param) ([]byte, error) {
	u, err := validation.BuildURL(c.baseURL, endpoint, params...)
	if err != nil {
		return nil, err
	}
	return c.doRequest(ctx, http.MethodGet, u, query, nil)
}

// =============================================================================
// Users
// =============================================================================

// User is the acting ClickUp account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// GetAuthorizedUser fetches the user the API key belongs to.
func (c *Client) GetAuthorizedUser(ctx context.Context) (*User, error) {
	data, err := c.get(ctx, "user", nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	if response.User == nil {
		return nil, utils.ErrUnexpectedResponse("missing user object")
	}
	return response.User, nil
}

// =============================================================================
// Tasks
// =============================================================================

// TaskStatus is a task's workflow state.
type TaskStatus struct {
	Status string `json:"status"`
}

// TaskPriority is a task's priority tier; absent when no priority is set.
type TaskPriority struct {
	ID       string `json:"id"`
	Priority string `json:"priority"`
}

// TaskTag is a label attached to a task.
type TaskTag struct {
	Name string `json:"name"`
}

// Task is a ClickUp task as returned by the task endpoints. The detail
// fields (description, creator, timestamps) are only populated by the
// single-task endpoint; the collection endpoints omit them.
type Task struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      TaskStatus    `json:"status"`
	DateCreated string        `json:"date_created"` // epoch milliseconds as string
	DueDate     string        `json:"due_date"`     // epoch milliseconds as string, "" when unset
	Priority    *TaskPriority `json:"priority"`
	Tags        []TaskTag     `json:"tags"`
	Creator     User          `json:"creator"`
	URL         string        `json:"url"`
}

// GetTask fetches one task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	data, err := c.get(ctx, "task", nil, validation.Param{Value: taskID, Kind: validation.KindTask})
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CloseTask sets a task's status to Closed and returns the updated task.
func (c *Client) CloseTask(ctx context.Context, taskID string) (*Task, error) {
	u, err := validation.BuildURL(c.baseURL, "task", validation.Param{Value: taskID, Kind: validation.KindTask})
	if err != nil {
		return nil, err
	}

	body := map[string]string{"status": "Closed"}
	data, err := c.doRequest(ctx, http.MethodPut, u, nil, body)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTaskRequest is the payload for creating a task. Priority is a
// pointer so an unset priority serializes as null, which is what the
// provider expects.
type CreateTaskRequest struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	DueDate     int64    `json:"due_date,omitempty"`
	DueDateTime bool     `json:"due_date_time,omitempty"`
	Priority    *int     `json:"priority"`
	Tags        []string `json:"tags"`
	Assignees   []string `json:"assignees,omitempty"`
}

// CreateTask creates a task in the given list.
func (c *Client) CreateTask(ctx context.Context, listID string, req CreateTaskRequest) (*Task, error) {
	u, err := validation.BuildURL(c.baseURL, "list",
		validation.Param{Value: listID, Kind: validation.KindList})
	if err != nil {
		return nil, err
	}
	u += "/task"

	data, err := c.doRequest(ctx, http.MethodPost, u, nil, req)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// TaskFilter narrows a workspace-wide task query.
type TaskFilter struct {
	ListIDs    []string
	ProjectIDs []string
	SpaceIDs   []string
	Tags       []string
	DueDateLT  int64
	OrderBy    string
}

func (f TaskFilter) values() url.Values {
	q := url.Values{}
	for _, id := range f.ListIDs {
		q.Add("list_ids[]", id)
	}
	for _, id := range f.ProjectIDs {
		q.Add("project_ids[]", id)
	}
	for _, id := range f.SpaceIDs {
		q.Add("space_ids[]", id)
	}
	for _, tag := range f.Tags {
		q.Add("tags[]", tag)
	}
	if f.DueDateLT > 0 {
		q.Set("due_date_lt", fmt.Sprintf("%d", f.DueDateLT))
	}
	if f.OrderBy != "" {
		q.Set("order_by", f.OrderBy)
	}
	return q
}

// GetTeamTasks fetches tasks across a workspace, constrained by the
// filter. A response without the tasks collection is zero results, not
// an error.
func (c *Client) GetTeamTasks(ctx context.Context, teamID string, filter TaskFilter) ([]Task, error) {
	u, err := validation.BuildURL(c.baseURL, "team",
		validation.Param{Value: teamID, Kind: validation.KindTeam})
	if err != nil {
		return nil, err
	}
	u += "/task"

	data, err := c.doRequest(ctx, http.MethodGet, u, filter.values(), nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Tasks []Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Tasks, nil
}

// =============================================================================
// Hierarchy (workspaces, spaces, folders, lists, tags)
// =============================================================================

// Team is a workspace, the top-level tenant grouping.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Space is a second-level grouping within a workspace.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder is an optional third-level grouping within a space.
type Folder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Lists []List `json:"lists"`
}

// List is the leaf container holding tasks.
type List struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"task_count"`
	Space     struct {
		ID string `json:"id"`
	} `json:"space"`
	Folder struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"folder"`
}

// Tag is a space-level label definition.
type Tag struct {
	Name string `json:"name"`
}

// GetTeams fetches all workspaces the key can see.
func (c *Client) GetTeams(ctx context.Context) ([]Team, error) {
	data, err := c.get(ctx, "team", nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Teams []Team `json:"teams"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Teams, nil
}

// GetSpaces fetches the spaces of a workspace.
func (c *Client) GetSpaces(ctx context.Context, teamID string) ([]Space, error) {
	u, err := validation.BuildURL(c.baseURL, "team",
		validation.Param{Value: teamID, Kind: validation.KindTeam})
	if err != nil {
		return nil, err
	}
	u += "/space"

	data, err := c.doRequest(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Spaces []Space `json:"spaces"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Spaces, nil
}

// GetFolders fetches the folders of a space.
func (c *Client) GetFolders(ctx context.Context, spaceID string) ([]Folder, error) {
	u, err := validation.BuildURL(c.baseURL, "space",
		validation.Param{Value: spaceID, Kind: validation.KindSpace})
	if err != nil {
		return nil, err
	}
	u += "/folder"

	data, err := c.doRequest(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Folders []Folder `json:"folders"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Folders, nil
}

// GetSpaceLists fetches the folderless lists of a space.
func (c *Client) GetSpaceLists(ctx context.Context, spaceID string) ([]List, error) {
	return c.lists(ctx, "space", spaceID, validation.KindSpace)
}

// GetFolderLists fetches the lists inside a folder.
func (c *Client) GetFolderLists(ctx context.Context, folderID string) ([]List, error) {
	return c.lists(ctx, "folder", folderID, validation.KindFolder)
}

func (c *Client) lists(ctx context.Context, parent, id string, kind validation.Kind) ([]List, error) {
	u, err := validation.BuildURL(c.baseURL, parent, validation.Param{Value: id, Kind: kind})
	if err != nil {
		return nil, err
	}
	u += "/list"

	data, err := c.doRequest(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Lists []List `json:"lists"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Lists, nil
}

// GetSpaceTags fetches the label definitions of a space.
func (c *Client) GetSpaceTags(ctx context.Context, spaceID string) ([]Tag, error) {
	u, err := validation.BuildURL(c.baseURL, "space",
		validation.Param{Value: spaceID, Kind: validation.KindSpace})
	if err != nil {
		return nil, err
	}
	u += "/tag"

	data, err := c.doRequest(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Tags []Tag `json:"tags"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Tags, nil
}

// =============================================================================
// v3 generation: documents and chat channels
// =============================================================================

// Doc is a document in the v3 API.
type Doc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatChannel is a chat channel in the v3 API.
type ChatChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchDocs queries a workspace's documents.
func (c *Client) SearchDocs(ctx context.Context, workspaceID, query string) ([]Doc, error) {
	u, err := validation.BuildURL(c.baseURLV3, "workspaces",
		validation.Param{Value: workspaceID, Kind: validation.KindWorkspace})
	if err != nil {
		return nil, err
	}
	u += "/docs"

	q := url.Values{}
	if query != "" {
		q.Set("query", query)
	}

	data, err := c.doRequest(ctx, http.MethodGet, u, q, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Docs []Doc `json:"docs"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Docs, nil
}

// GetChatChannels fetches a workspace's chat channels.
func (c *Client) GetChatChannels(ctx context.Context, workspaceID string) ([]ChatChannel, error) {
	u, err := validation.BuildURL(c.baseURLV3, "workspaces",
		validation.Param{Value: workspaceID, Kind: validation.KindWorkspace})
	if err != nil {
		return nil, err
	}
	u += "/chat/channels"

	data, err := c.doRequest(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Data []ChatChannel `json:"data"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// =============================================================================
// Configuration validation
// =============================================================================

// CheckID fetches the entity behind a configured id and reports whether
// the provider unambiguously echoes it back. A recognized auth ECODE or
// any mismatch yields false.
func (c *Client) CheckID(ctx context.Context, kind validation.Kind, id string) bool {
	endpoint := string(kind)
	if kind == validation.KindWorkspace {
		endpoint = "team"
		kind = validation.KindTeam
	}

	data, err := c.get(ctx, endpoint, nil, validation.Param{Value: id, Kind: kind})
	if err != nil {
		return false
	}

	// The team endpoint nests the entity; everything else is top level.
	if endpoint == "team" {
		var response struct {
			Team struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"team"`
		}
		if json.Unmarshal(data, &response) != nil {
			return false
		}
		return response.Team.ID == id && response.Team.Name != ""
	}

	var entity struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if json.Unmarshal(data, &entity) != nil {
		return false
	}
	return entity.ID == id && entity.Name != ""
}
