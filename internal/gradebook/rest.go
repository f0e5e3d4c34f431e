package gradebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RESTConfig holds the configuration for the gradebook API connection
type RESTConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// RESTClient talks to the external gradebook's HTTP API.
type RESTClient struct {
	config     RESTConfig
	httpClient *http.Client
}

func NewRESTClient(config RESTConfig) *RESTClient {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &RESTClient{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) GetSubmission(ctx context.Context, courseID, assignmentID, userID string) (*Submission, error) {
	path := fmt.Sprintf("/courses/%s/assignments/%s/submissions/%s",
		url.PathEscape(courseID), url.PathEscape(assignmentID), url.PathEscape(userID))

	var sub Submission
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

func (c *RESTClient) GetSubmissions(ctx context.Context, courseID, assignmentID string) (map[string]*Submission, error) {
	path := fmt.Sprintf("/courses/%s/assignments/%s/submissions",
		url.PathEscape(courseID), url.PathEscape(assignmentID))

	var subs []*Submission
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &subs); err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	result := make(map[string]*Submission, len(subs))
	for _, sub := range subs {
		result[sub.UserID] = sub
	}
	return result, nil
}

func (c *RESTClient) GetDeadlineOverrides(ctx context.Context, assignmentID string) ([]DeadlineOverride, error) {
	path := fmt.Sprintf("/assignments/%s/overrides", url.PathEscape(assignmentID))

	var overrides []DeadlineOverride
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &overrides); err != nil {
		return nil, fmt.Errorf("failed to get deadline overrides: %w", err)
	}
	return overrides, nil
}

func (c *RESTClient) UpdateGrade(ctx context.Context, courseID, assignmentID, userID string, score float64) error {
	path := fmt.Sprintf("/courses/%s/assignments/%s/submissions/%s",
		url.PathEscape(courseID), url.PathEscape(assignmentID), url.PathEscape(userID))

	body := map[string]float64{"score": score}
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("failed to update grade: %w", err)
	}
	return nil
}

func (c *RESTClient) UpdateGrades(ctx context.Context, courseID, assignmentID string, scores map[string]float64) error {
	path := fmt.Sprintf("/courses/%s/assignments/%s/submissions",
		url.PathEscape(courseID), url.PathEscape(assignmentID))

	body := map[string]map[string]float64{"scores": scores}
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("failed to update grades: %w", err)
	}
	return nil
}

func (c *RESTClient) doJSON(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gradebook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gradebook returned %d for %s %s: %s", resp.StatusCode, method, path, string(payload))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode gradebook response: %w", err)
	}
	return nil
}
