package client

import (
	"context"
	"fmt"
)

// ListReports fetches all diagnostic reports for the current user.
func (c *Client) ListReports(ctx context.Context) ([]DiagnosticReport, error) {
	var out ListReportsResponse
	if err := c.Get(ctx, "/diagnostic-reports", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateReport creates an empty diagnostic report.
func (c *Client) CreateReport(ctx context.Context, req CreateReportRequest) (DiagnosticReport, error) {
	var out DiagnosticReport
	err := c.Post(ctx, "/diagnostic-reports", req, &out)
	return out, err
}

// GetReport fetches a single diagnostic report with its observations.
func (c *Client) GetReport(ctx context.Context, id int64) (DiagnosticReport, error) {
	var out DiagnosticReport
	err := c.Get(ctx, fmt.Sprintf("/diagnostic-reports/%d", id), &out)
	return out, err
}

// UpdateReport updates a report's title or notes.
func (c *Client) UpdateReport(ctx context.Context, id int64, req CreateReportRequest) (DiagnosticReport, error) {
	var out DiagnosticReport
	err := c.Patch(ctx, fmt.Sprintf("/diagnostic-reports/%d", id), req, &out)
	return out, err
}

// DeleteReport deletes a report and all its observations.
func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/diagnostic-reports/%d", id), nil, nil)
}

// AddObservation appends a biomarker measurement to a report.
func (c *Client) AddObservation(ctx context.Context, reportID int64, req CreateObservationRequest) (Observation, error) {
	var out Observation
	err := c.Post(ctx, fmt.Sprintf("/diagnostic-reports/%d/observations", reportID), req, &out)
	return out, err
}

// DeleteObservation removes a single observation from a report.
func (c *Client) DeleteObservation(ctx context.Context, reportID, observationID int64) error {
	return c.Delete(ctx, fmt.Sprintf("/diagnostic-reports/%d/observations/%d", reportID, observationID), nil, nil)
}

// Health probes the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.Get(ctx, "/up", &out)
	return out, err
}
