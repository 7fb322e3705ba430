package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/timmy/soulsync/internal/domain"
)

const reportContentType = "application/json"

// ReportArchive writes assembled reports to object storage as JSON documents.
type ReportArchive struct {
	store  ObjectStorage
	prefix string
}

// NewReportArchive wraps an ObjectStorage. An empty prefix defaults to "reports".
func NewReportArchive(store ObjectStorage, prefix string) *ReportArchive {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "reports"
	}
	return &ReportArchive{store: store, prefix: prefix}
}

// Key returns the object key used for a job's report.
func (a *ReportArchive) Key(jobID string) string {
	return path.Join(a.prefix, jobID+".json")
}

// Archive uploads the report and returns its object key.
func (a *ReportArchive) Archive(ctx context.Context, jobID string, report *domain.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("archive %s: nil report", jobID)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report %s: %w", jobID, err)
	}

	key := a.Key(jobID)
	if err := a.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), reportContentType); err != nil {
		return "", err
	}
	return key, nil
}

// Load reads an archived report back.
func (a *ReportArchive) Load(ctx context.Context, jobID string) (*domain.Report, error) {
	body, err := a.store.Download(ctx, a.Key(jobID))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var report domain.Report
	if err := json.NewDecoder(body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", jobID, err)
	}
	return &report, nil
}
