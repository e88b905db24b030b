package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HTTPClient posts ratings to a remote profile service.
type HTTPClient struct {
	url    string
	client *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPClient) SyncRating(ctx context.Context, update RatingUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return errors.Wrap(err, "failed to marshal rating")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create rating request")
	}
	req.Header.Set("Content-Type", "application/json")
	requestid.Propagate(ctx, req)

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to sync rating of job %s", update.JobID)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("profile service answered %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	zap.S().Named("profile_client").Debugw("rating synced", "job_id", update.JobID, "worker_id", update.WorkerID)
	return nil
}
