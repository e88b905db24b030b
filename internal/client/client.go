package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	"github.com/oapi-codegen/runtime"
)

// APIError is returned for any answer outside 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Client talks to the /api/v1 endpoints of a KaamSetu server.
type Client struct {
	server     string
	identity   Identity
	httpClient *http.Client
}

func NewClient(server string, identity Identity, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		server:     strings.TrimSuffix(server, "/"),
		identity:   identity,
		httpClient: httpClient,
	}
}

type JobListParams struct {
	Statuses []string
	Employer string
	Worker   string
	Limit    int
}

func (c *Client) ListJobs(ctx context.Context, params JobListParams) (api.JobList, error) {
	query := url.Values{}
	if len(params.Statuses) > 0 {
		if err := addQueryParam(query, "status", params.Statuses); err != nil {
			return nil, err
		}
	}
	if params.Employer != "" {
		if err := addQueryParam(query, "employer", params.Employer); err != nil {
			return nil, err
		}
	}
	if params.Worker != "" {
		if err := addQueryParam(query, "worker", params.Worker); err != nil {
			return nil, err
		}
	}
	if params.Limit > 0 {
		if err := addQueryParam(query, "limit", params.Limit); err != nil {
			return nil, err
		}
	}

	path := "/api/v1/jobs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var jobs api.JobList
	_, err := c.do(ctx, http.MethodGet, path, nil, &jobs)
	return jobs, err
}

// addQueryParam writes value in the form style without explode: lists become comma separated.
func addQueryParam(query url.Values, name string, value any) error {
	queryFrag, err := runtime.StyleParamWithLocation("form", false, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("styling query parameter %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(queryFrag)
	if err != nil {
		return err
	}
	for k, v := range parsed {
		for _, v2 := range v {
			query.Add(k, v2)
		}
	}
	return nil
}

func (c *Client) GetJob(ctx context.Context, id uuid.UUID) (*api.Job, error) {
	var job api.Job
	if _, err := c.do(ctx, http.MethodGet, jobPath(id, ""), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) CreateJob(ctx context.Context, body api.JobCreate) (*api.Job, error) {
	var job api.Job
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/jobs", body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) LockFee(ctx context.Context, id uuid.UUID) (*api.Job, error) {
	var job api.Job
	if _, err := c.do(ctx, http.MethodPost, jobPath(id, "/lock-fee"), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) DisputeJob(ctx context.Context, id uuid.UUID, reason string) (*api.Job, error) {
	var job api.Job
	if _, err := c.do(ctx, http.MethodPost, jobPath(id, "/dispute"), api.Dispute{Reason: reason}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) Apply(ctx context.Context, id uuid.UUID, body api.ApplicationCreate) (*api.ApplicationResult, error) {
	var result api.ApplicationResult
	if _, err := c.do(ctx, http.MethodPost, jobPath(id, "/applications"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListApplications(ctx context.Context, id uuid.UUID) (api.ApplicationList, error) {
	var apps api.ApplicationList
	_, err := c.do(ctx, http.MethodGet, jobPath(id, "/applications"), nil, &apps)
	return apps, err
}

func (c *Client) Assign(ctx context.Context, id uuid.UUID, workerID string) (*api.Job, error) {
	var job api.Job
	if _, err := c.do(ctx, http.MethodPost, jobPath(id, "/assign"), api.Assign{WorkerId: workerID}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Complete returns the completed job. The result carries a warning when the rating is still pending.
func (c *Client) Complete(ctx context.Context, id uuid.UUID, body api.Complete) (*api.CompletionResult, error) {
	var result api.CompletionResult
	if _, err := c.do(ctx, http.MethodPost, jobPath(id, "/complete"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetryRatingSync reports whether the rating reached the worker profile.
func (c *Client) RetryRatingSync(ctx context.Context, id uuid.UUID) (bool, *api.Status, error) {
	var status api.Status
	code, err := c.do(ctx, http.MethodPost, jobPath(id, "/rating-sync"), nil, &status)
	if err != nil {
		return false, nil, err
	}
	return code == http.StatusOK, &status, nil
}

func (c *Client) ActiveAssignment(ctx context.Context, workerID string) (*api.Job, error) {
	var job api.Job
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/workers/"+url.PathEscape(workerID)+"/assignment", nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) GetProfile(ctx context.Context, workerID string) (*api.WorkerProfile, error) {
	var profile api.WorkerProfile
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/profiles/"+url.PathEscape(workerID), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) Info(ctx context.Context) (*api.Info, error) {
	var info api.Info
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ReleaseSession cancels the live queries of the client session.
func (c *Client) ReleaseSession(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/session", nil, nil)
	return err
}

func jobPath(id uuid.UUID, suffix string) string {
	return "/api/v1/jobs/" + id.String() + suffix
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestid.Propagate(ctx, req)
	c.setIdentity(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(content)}
	}

	if out != nil && len(content) > 0 {
		if err := json.Unmarshal(content, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) setIdentity(req *http.Request) {
	if c.identity.Session != "" {
		req.Header.Set(auth.HeaderSessionID, c.identity.Session)
	}
	if c.identity.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.identity.Token)
		return
	}
	req.Header.Set(auth.HeaderUserID, c.identity.User)
	req.Header.Set(auth.HeaderUserRole, c.identity.Role)
	if c.identity.Name != "" {
		req.Header.Set(auth.HeaderUserName, c.identity.Name)
	}
	if c.identity.Phone != "" {
		req.Header.Set(auth.HeaderUserPhone, c.identity.Phone)
	}
}

func errorMessage(content []byte) string {
	var status api.Status
	if err := json.Unmarshal(content, &status); err == nil && status.Message != "" {
		return status.Message
	}
	return strings.TrimSpace(string(content))
}
