package panel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
)

// ErrNoImages means an upload was attempted without a single attachment.
var ErrNoImages = errors.New("at least one image is required")

// ReportList is the issue-report screen: fetched reports plus the processing
// and deletion calls an editor uses on them.
type ReportList struct {
	mu      sync.Mutex
	client  *Client
	reports []entities.Report
}

func NewReportList(client *Client) *ReportList {
	return &ReportList{client: client}
}

func (r *ReportList) Fetch(ctx context.Context) error {
	reports, err := r.client.FetchReports(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.reports = reports
	r.mu.Unlock()
	return nil
}

func (r *ReportList) Reports() []entities.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Upload submits a new report with its attachments and refetches the list.
// Zero attachments is rejected locally, matching the server's rule.
func (r *ReportList) Upload(ctx context.Context, payload dto.UploadReportDTO, images []ReportImage) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	if err := r.client.UploadReport(ctx, payload, images); err != nil {
		return err
	}
	return r.Fetch(ctx)
}

// Process records the handling decision for one report. The processing time
// is stamped at submit, and the session user is recorded as the processer.
func (r *ReportList) Process(ctx context.Context, id uint64, status, notes string) error {
	err := r.client.UpdateReport(ctx, id, dto.UpdateReportDTO{
		Status:       status,
		Processer:    r.client.session.Username(),
		ProcessNotes: notes,
		ProcessTime:  time.Now().Format(wireTimeLayout),
	})
	if err != nil {
		return err
	}
	return r.Fetch(ctx)
}

// Delete removes a report and refetches the list.
func (r *ReportList) Delete(ctx context.Context, id uint64) error {
	if err := r.client.DeleteReport(ctx, id); err != nil {
		return err
	}
	return r.Fetch(ctx)
}

// ImageURLs resolves a report's stored image paths against the report module
// base URL. Stored paths may carry backslashes from older uploads.
func (r *ReportList) ImageURLs(rep entities.Report) []string {
	paths := rep.Images()
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, NormalizeImageURL(r.client.endpoints.Report, p))
	}
	return urls
}

// NormalizeImageURL turns a stored relative path into an absolute URL under
// base, normalizing path separators along the way.
func NormalizeImageURL(base, path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(base, "/") + p
}
