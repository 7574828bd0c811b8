package panel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ccm-system/internal/dto"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	session := NewSession(sessionPath(t), zap.NewNop())
	client := NewClient(Endpoints{
		Equipment: srv.URL,
		Report:    srv.URL,
		Auth:      srv.URL,
	}, session, zap.NewNop())
	return client, session
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	client, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	require.NoError(t, session.Login("tok-abc", "operator"))

	_, err := client.FetchEquipment(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestClientUnauthorizedForcesLogout(t *testing.T) {
	client, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"token expired"}`))
	}))
	require.NoError(t, session.Login("stale", "operator"))

	_, err := client.FetchLogs(context.Background(), "CCM-1")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, session.Authenticated())
}

func TestClientEnvelopeFailureSurfacesErrorText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The body decides, not the status code.
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":false,"error":"equipment id already exists"}`))
	}))

	err := client.CreateEquipment(context.Background(), dto.CreateEquipmentDTO{CcmID: "CCM-1", Status: "在廠"})
	require.Error(t, err)
	assert.EqualError(t, err, "equipment id already exists")
}

func TestClientUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	session := NewSession(sessionPath(t), zap.NewNop())
	client := NewClient(Endpoints{Equipment: srv.URL}, session, zap.NewNop())
	srv.Close()

	_, err := client.FetchEquipment(context.Background(), "")
	assert.ErrorIs(t, err, ErrServerUnreachable)
}

func TestClientLoginStoresToken(t *testing.T) {
	client, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body dto.LoginDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "operator", body.Username)

		w.Write([]byte(`{"success":true,"access_token":"tok-xyz","username":"operator"}`))
	}))

	require.NoError(t, client.Login(context.Background(), "operator", "secret"))
	assert.True(t, session.Authenticated())
	assert.Equal(t, "tok-xyz", session.Token())
	assert.Equal(t, "operator", session.Username())
}

func TestClientLoginFailureKeepsItsOwnError(t *testing.T) {
	client, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"invalid username or password"}`))
	}))

	err := client.Login(context.Background(), "operator", "wrong")
	require.Error(t, err)
	assert.EqualError(t, err, "invalid username or password")
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.False(t, session.Authenticated())
}

func TestClientFetchEquipmentPassesStatusFilter(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"CCM_ID":"CCM-1","CC_STATUS":"維修"}]`))
	}))

	records, err := client.FetchEquipment(context.Background(), "維修")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CCM-1", records[0].CcmID)
	assert.Contains(t, gotQuery, "status=")
}

func TestClientFetchStatusCounts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/equipment/status_counts", r.URL.Path)
		w.Write([]byte(`{"清洗":3,"在廠":10}`))
	}))

	counts, err := client.FetchStatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"清洗": 3, "在廠": 10}, counts)
}

func TestClientUploadReportMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/report/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "operator", r.FormValue("reporter_name"))
		assert.Equal(t, "CCM-9", r.FormValue("ccm_id"))

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 2)

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))

		w.Write([]byte(`{"success":true}`))
	}))

	err := client.UploadReport(context.Background(), dto.UploadReportDTO{
		ReporterName: "operator",
		CcmID:        "CCM-9",
		IssueType:    "遺失",
	}, []ReportImage{
		{Name: "a.png", Reader: strings.NewReader("png-bytes")},
		{Name: "b.png", Reader: strings.NewReader("more")},
	})
	require.NoError(t, err)
}
