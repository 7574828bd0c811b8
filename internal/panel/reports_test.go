package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
)

func newReportFixture(t *testing.T, handler http.Handler) *ReportList {
	t.Helper()
	client, session := newTestClient(t, handler)
	require.NoError(t, session.Login("tok", "operator"))
	return NewReportList(client)
}

func reportsHandler(reports func() []entities.Report) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "reports": reports()})
	})
	return mux
}

func TestReportListFetch(t *testing.T) {
	rl := newReportFixture(t, reportsHandler(func() []entities.Report {
		return []entities.Report{
			{ID: 1, CcmIDFk: "CCM-1", IssueType: "遺失", Status: entities.ReportPending},
			{ID: 2, CcmIDFk: "CCM-2", IssueType: "其他", Status: entities.ReportResolved},
		}
	}))

	require.NoError(t, rl.Fetch(context.Background()))
	reports := rl.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, entities.ReportPending, reports[0].Status)
}

func TestReportUploadRequiresAtLeastOneImage(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"success":true}`))
	})
	rl := newReportFixture(t, mux)

	err := rl.Upload(context.Background(), dto.UploadReportDTO{
		ReporterName: "operator",
		CcmID:        "CCM-1",
		IssueType:    "髒污/破損",
	}, nil)
	assert.ErrorIs(t, err, ErrNoImages)
	assert.Zero(t, requests, "the zero-image case is rejected before any request")
}

func TestReportProcessStampsUserAndTime(t *testing.T) {
	var got dto.UpdateReportDTO
	mux := reportsHandler(func() []entities.Report { return nil })
	mux.HandleFunc("/api/report/7", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	})
	rl := newReportFixture(t, mux)

	before := time.Now()
	require.NoError(t, rl.Process(context.Background(), 7, entities.ReportResolved, "replaced the zipper"))

	assert.Equal(t, entities.ReportResolved, got.Status)
	assert.Equal(t, "operator", got.Processer)
	assert.Equal(t, "replaced the zipper", got.ProcessNotes)

	stamped, err := time.ParseInLocation("2006-01-02 15:04:05", got.ProcessTime, time.Local)
	require.NoError(t, err)
	assert.WithinDuration(t, before, stamped, 5*time.Second)
}

func TestReportDeleteRefetches(t *testing.T) {
	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`{"success":true,"reports":[]}`))
	})
	mux.HandleFunc("/api/report/3", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`{"success":true}`))
	})
	rl := newReportFixture(t, mux)

	require.NoError(t, rl.Delete(context.Background(), 3))
	assert.Equal(t, 1, fetches)
}

func TestNormalizeImageURL(t *testing.T) {
	base := "http://localhost:5172"

	assert.Equal(t, base+"/uploads/reports/a.png", NormalizeImageURL(base, "uploads/reports/a.png"))
	assert.Equal(t, base+"/uploads/reports/a.png", NormalizeImageURL(base, "/uploads/reports/a.png"))
	assert.Equal(t, base+"/uploads/reports/a.png", NormalizeImageURL(base, `uploads\reports\a.png`))
	assert.Equal(t, base+"/x.png", NormalizeImageURL(base+"/", "x.png"))
}

func TestReportImagesDecoding(t *testing.T) {
	rl := newReportFixture(t, reportsHandler(func() []entities.Report { return nil }))

	rep := entities.Report{ImagePath: `["uploads\\reports\\a.png","uploads/reports/b.png"]`}
	urls := rl.ImageURLs(rep)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasSuffix(urls[0], "/uploads/reports/a.png"))
	assert.True(t, strings.HasSuffix(urls[1], "/uploads/reports/b.png"))

	// A legacy bare path still resolves.
	legacy := entities.Report{ImagePath: "uploads/reports/old.png"}
	assert.Len(t, rl.ImageURLs(legacy), 1)
}
