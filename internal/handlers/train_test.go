package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/repos"
	"github.com/yungbote/scriptforge-backend/internal/services"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

type fakeScriptService struct {
	ingestScript *types.Script
	ingestErr    error
	lastIngest   services.IngestInput

	getScript *types.Script
	getErr    error

	completeScript *types.Script
	completeErr    error
	lastPayload    []byte

	resubmitScript *types.Script
	resubmitErr    error
}

func (f *fakeScriptService) Ingest(ctx context.Context, in services.IngestInput) (*types.Script, error) {
	f.lastIngest = in
	return f.ingestScript, f.ingestErr
}

func (f *fakeScriptService) Get(ctx context.Context, id uuid.UUID) (*types.Script, error) {
	return f.getScript, f.getErr
}

func (f *fakeScriptService) List(ctx context.Context, filter repos.ScriptListFilter) ([]*types.Script, int64, error) {
	return nil, 0, nil
}

func (f *fakeScriptService) Search(ctx context.Context, query string, page, limit int) ([]*types.Script, int64, error) {
	return nil, 0, nil
}

func (f *fakeScriptService) Stats(ctx context.Context) (*repos.ScriptStats, error) {
	return &repos.ScriptStats{}, nil
}

func (f *fakeScriptService) UpdateMetadata(ctx context.Context, id uuid.UUID, upd services.ScriptMetadataUpdate) (*types.Script, error) {
	return f.getScript, f.getErr
}

func (f *fakeScriptService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.getErr
}

func (f *fakeScriptService) Download(ctx context.Context, id uuid.UUID) (*types.Script, io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	return f.getScript, io.NopCloser(bytes.NewReader([]byte("body"))), nil
}

func (f *fakeScriptService) CompleteTraining(ctx context.Context, id uuid.UUID, payload []byte) (*types.Script, error) {
	f.lastPayload = payload
	return f.completeScript, f.completeErr
}

func (f *fakeScriptService) Resubmit(ctx context.Context, id uuid.UUID) (*types.Script, error) {
	return f.resubmitScript, f.resubmitErr
}

func newTrainRouter(t *testing.T, svc services.ScriptService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	h := NewTrainHandler(log, svc)
	r := gin.New()
	r.POST("/api/train", h.Upload)
	r.GET("/api/train/status/:id", h.Status)
	r.POST("/api/train/:id/complete", h.Complete)
	r.POST("/api/train/:id/resubmit", h.Resubmit)
	return r
}

func multipartUpload(t *testing.T, filename, body string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("script", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, w.FormDataContentType()
}

func TestUploadReturnsScriptSummaryOnSuccess(t *testing.T) {
	script := &types.Script{ID: uuid.New(), Title: "Heist", Status: types.ScriptStatusProcessing}
	svc := &fakeScriptService{ingestScript: script}
	router := newTrainRouter(t, svc)

	buf, contentType := multipartUpload(t, "heist.txt", "INT. VAULT", map[string]string{
		"title": "Heist",
		"genre": "Thriller",
		"year":  "1999",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/train", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Script struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"script"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Script.ID != script.ID || resp.Script.Status != types.ScriptStatusProcessing {
		t.Fatalf("summary: got=%+v", resp.Script)
	}
	if svc.lastIngest.OriginalName != "heist.txt" {
		t.Fatalf("ingest input name: want=%q got=%q", "heist.txt", svc.lastIngest.OriginalName)
	}
	if svc.lastIngest.Year == nil || *svc.lastIngest.Year != 1999 {
		t.Fatalf("ingest year: want=1999 got=%v", svc.lastIngest.Year)
	}
}

func TestUploadTrainingFailureIs502WithScriptInBody(t *testing.T) {
	script := &types.Script{ID: uuid.New(), Title: "Noir", Status: types.ScriptStatusError}
	svc := &fakeScriptService{
		ingestScript: script,
		ingestErr:    apierr.Service(fmt.Errorf("script uploaded but training failed")),
	}
	router := newTrainRouter(t, svc)

	buf, contentType := multipartUpload(t, "noir.txt", "FADE IN:", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/train", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: want=502 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Code   string `json:"code"`
		Script struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"script"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != apierr.CodeServiceFailed {
		t.Fatalf("code: want=%q got=%q", apierr.CodeServiceFailed, resp.Code)
	}
	if resp.Script.ID != script.ID || resp.Script.Status != types.ScriptStatusError {
		t.Fatalf("script in 502 body: got=%+v", resp.Script)
	}
}

func TestUploadValidationFailureIs400Envelope(t *testing.T) {
	svc := &fakeScriptService{
		ingestErr: apierr.Validation(fmt.Errorf("invalid file type")),
	}
	router := newTrainRouter(t, svc)

	buf, contentType := multipartUpload(t, "bad.exe", "MZ", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/train", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Code != apierr.CodeValidationFailed {
		t.Fatalf("code: want=%q got=%q", apierr.CodeValidationFailed, env.Error.Code)
	}
}

func TestUploadWithoutFileIs400(t *testing.T) {
	router := newTrainRouter(t, &fakeScriptService{})

	req := httptest.NewRequest(http.MethodPost, "/api/train", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
}

func TestStatusReturnsTrainingState(t *testing.T) {
	script := &types.Script{ID: uuid.New(), Title: "Heist", Status: types.ScriptStatusTrained}
	svc := &fakeScriptService{getScript: script}
	router := newTrainRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/train/status/"+script.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var resp struct {
		ScriptID uuid.UUID `json:"script_id"`
		Status   string    `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ScriptID != script.ID || resp.Status != types.ScriptStatusTrained {
		t.Fatalf("body: got=%+v", resp)
	}
}

func TestStatusUnknownScriptIs404(t *testing.T) {
	svc := &fakeScriptService{getErr: apierr.NotFound("script")}
	router := newTrainRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/train/status/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", rec.Code)
	}
}

func TestStatusMalformedIDIs400(t *testing.T) {
	router := newTrainRouter(t, &fakeScriptService{})

	req := httptest.NewRequest(http.MethodGet, "/api/train/status/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
}

func TestCompletePassesPayloadThrough(t *testing.T) {
	script := &types.Script{ID: uuid.New(), Status: types.ScriptStatusTrained}
	svc := &fakeScriptService{completeScript: script}
	router := newTrainRouter(t, svc)

	body := []byte(`{"epochs":3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/train/"+script.ID.String()+"/complete", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if string(svc.lastPayload) != string(body) {
		t.Fatalf("payload: want=%s got=%s", body, svc.lastPayload)
	}
}

func TestCompleteConflictIs409(t *testing.T) {
	svc := &fakeScriptService{completeErr: apierr.Conflict(fmt.Errorf("script is in error status"))}
	router := newTrainRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/train/"+uuid.NewString()+"/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: want=409 got=%d", rec.Code)
	}
}

func TestResubmitFailureIs502WithScript(t *testing.T) {
	script := &types.Script{ID: uuid.New(), Status: types.ScriptStatusError}
	svc := &fakeScriptService{
		resubmitScript: script,
		resubmitErr:    apierr.Service(fmt.Errorf("still down")),
	}
	router := newTrainRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/train/"+script.ID.String()+"/resubmit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: want=502 got=%d", rec.Code)
	}
}
