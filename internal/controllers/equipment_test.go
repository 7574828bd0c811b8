package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
	apperrors "ccm-system/pkg/errors"
	"ccm-system/pkg/utils"
)

// stubEquipmentService returns canned answers so the tests pin down the wire
// shapes the controller produces.
type stubEquipmentService struct {
	list      []entities.Equipment
	counts    map[string]int
	created   *entities.Equipment
	createErr error
	batchN    int
	batchErr  error
}

func (s *stubEquipmentService) List(ctx context.Context, status string) ([]entities.Equipment, error) {
	return s.list, nil
}

func (s *stubEquipmentService) StatusCounts(ctx context.Context) (map[string]int, error) {
	return s.counts, nil
}

func (s *stubEquipmentService) Create(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	return s.created, s.createErr
}

func (s *stubEquipmentService) Update(ctx context.Context, ccmID string, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	return s.created, s.createErr
}

func (s *stubEquipmentService) BatchUpdate(ctx context.Context, items []dto.BatchUpdateItemDTO) (int, error) {
	return s.batchN, s.batchErr
}

func (s *stubEquipmentService) ForceDelete(ctx context.Context, id uint64, updateBy string) error {
	return nil
}

func (s *stubEquipmentService) Logs(ctx context.Context, ccmID string) ([]entities.EquipmentLog, error) {
	return nil, nil
}

func newEchoContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = utils.NewValidator(validator.New())

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListAnswersWithBareArray(t *testing.T) {
	svc := &stubEquipmentService{list: []entities.Equipment{{CcmID: "CCM-1", Status: entities.StatusInStock}}}
	ctrl := NewEquipmentController(svc, zap.NewNop())

	c, rec := newEchoContext(t, http.MethodGet, "/api/equipment", "")
	require.NoError(t, ctrl.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// No envelope: the response body is the array itself.
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "CCM-1", out[0]["CCM_ID"])
	_, hasSuccess := out[0]["success"]
	assert.False(t, hasSuccess)
}

func TestStatusCountsAnswersWithBareMap(t *testing.T) {
	svc := &stubEquipmentService{counts: map[string]int{entities.StatusWashing: 4}}
	ctrl := NewEquipmentController(svc, zap.NewNop())

	c, rec := newEchoContext(t, http.MethodGet, "/api/equipment/status_counts", "")
	require.NoError(t, ctrl.StatusCounts(c))

	var out map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 4, out[entities.StatusWashing])
}

func TestCreateWrapsResultInEnvelope(t *testing.T) {
	svc := &stubEquipmentService{created: &entities.Equipment{ID: 1, CcmID: "CCM-1", Status: entities.StatusInStock}}
	ctrl := NewEquipmentController(svc, zap.NewNop())

	c, rec := newEchoContext(t, http.MethodPost, "/api/equipment",
		`{"CCM_ID":"CCM-1","CC_STATUS":"在廠"}`)
	require.NoError(t, ctrl.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, true, out["success"])
	require.NotNil(t, out["data"])
}

func TestCreateValidationFailureUsesErrorEnvelope(t *testing.T) {
	ctrl := NewEquipmentController(&stubEquipmentService{}, zap.NewNop())

	// CCM_ID is required.
	c, rec := newEchoContext(t, http.MethodPost, "/api/equipment", `{"CC_STATUS":"在廠"}`)
	require.NoError(t, ctrl.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.NotEmpty(t, out["error"])
}

func TestCreateConflictPropagatesStatusAndMessage(t *testing.T) {
	svc := &stubEquipmentService{
		createErr: apperrors.NewHttpError(http.StatusConflict, "equipment id already exists: CCM-1", nil),
	}
	ctrl := NewEquipmentController(svc, zap.NewNop())

	c, rec := newEchoContext(t, http.MethodPost, "/api/equipment",
		`{"CCM_ID":"CCM-1","CC_STATUS":"在廠"}`)
	require.NoError(t, ctrl.Create(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "equipment id already exists: CCM-1", out["error"])
}

func TestBatchUpdateReportsCount(t *testing.T) {
	svc := &stubEquipmentService{batchN: 3}
	ctrl := NewEquipmentController(svc, zap.NewNop())

	c, rec := newEchoContext(t, http.MethodPut, "/api/equipment/batch",
		`[{"CCM_ID":"A","COMMENT":"x"},{"CCM_ID":"B","COMMENT":"x"},{"CCM_ID":"C","COMMENT":"x"}]`)
	require.NoError(t, ctrl.BatchUpdate(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(3), out["updated"])
}

func TestForceDeleteRejectsNonNumericID(t *testing.T) {
	ctrl := NewEquipmentController(&stubEquipmentService{}, zap.NewNop())

	c, rec := newEchoContext(t, http.MethodDelete, "/api/equipment/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, ctrl.ForceDelete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
