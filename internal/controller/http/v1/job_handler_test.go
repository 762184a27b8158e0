package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"workorder/internal/domain/entity"
	"workorder/internal/domain/ident"
	"workorder/internal/domain/usecase"
	"workorder/internal/repository/memory"
)

type fakeDecoder struct {
	info entity.VehicleInfo
	err  error
}

func (f fakeDecoder) Decode(ctx context.Context, vin string) (entity.VehicleInfo, error) {
	return f.info, f.err
}

type fakeStorage struct {
	keys []string
}

func (f *fakeStorage) Upload(ctx context.Context, obj entity.MediaObject) (string, error) {
	f.keys = append(f.keys, obj.Key)
	return "https://media.test/" + obj.Key, nil
}

type testAPI struct {
	router  *gin.Engine
	storage *fakeStorage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	vehicles := usecase.NewVehicleUseCase(fakeDecoder{info: entity.VehicleInfo{Make: "HONDA", Model: "Civic"}}, nil)
	jobs := usecase.NewJobUseCase(store, vehicles, nil, nil)
	storage := &fakeStorage{}
	media := usecase.NewMediaUseCase(storage, jobs)

	router := NewRouter(
		NewJobHandler(jobs, media),
		NewDirectoryHandler(usecase.NewCustomerUseCase(store), usecase.NewTechnicianUseCase(store), vehicles),
	)
	return &testAPI{router: router, storage: storage}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func (a *testAPI) createJob(t *testing.T) entity.Job {
	t.Helper()
	w := a.do(t, http.MethodPost, "/jobs", map[string]any{
		"customerId":  "C1",
		"vehicleInfo": map[string]string{"make": "Toyota"},
		"taskInfo":    map[string]string{"title": "Brake check", "technician": "T1"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create job: %d %s", w.Code, w.Body.String())
	}
	return decode[entity.Job](t, w)
}

func TestCreateJob(t *testing.T) {
	api := newTestAPI(t)
	job := api.createJob(t)

	if job.Status != entity.StatusPendingDiagnosis || job.VehicleInfo.Make != "Toyota" {
		t.Fatalf("unexpected job %+v", job)
	}
	if len(job.Tasks) != 1 || job.Tasks[0].Title != "Brake check" || job.Tasks[0].Technician != "T1" {
		t.Fatalf("unexpected tasks %+v", job.Tasks)
	}
	if job.Tasks[0].Steps == nil || len(job.Tasks[0].Steps) != 0 {
		t.Fatalf("initial task must have an empty step list")
	}
}

func TestCreateJob_DecodesVIN(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/jobs", map[string]any{"customerId": "C1", "vin": "1HGCM82633A004352"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create job: %d %s", w.Code, w.Body.String())
	}
	job := decode[entity.Job](t, w)
	if job.VehicleInfo.Make != "HONDA" || job.VehicleInfo.Model != "Civic" {
		t.Fatalf("vehicle info not decoded: %+v", job.VehicleInfo)
	}
}

func TestCreateJob_MissingCustomer(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/jobs", map[string]any{"vehicleInfo": map[string]string{"make": "Toyota"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["error"] == "" {
		t.Fatalf("expected an error message")
	}
}

func TestGetJob_StatusCodes(t *testing.T) {
	api := newTestAPI(t)

	if w := api.do(t, http.MethodGet, "/jobs/not-an-id", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: expected 400, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/jobs/"+ident.New(), nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing job: expected 404, got %d", w.Code)
	}

	job := api.createJob(t)
	w := api.do(t, http.MethodGet, "/jobs/"+job.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode[entity.Job](t, w); got.ID != job.ID {
		t.Fatalf("got job %s, want %s", got.ID, job.ID)
	}

	list := decode[[]entity.Job](t, api.do(t, http.MethodGet, "/jobs", nil))
	if len(list) != 1 {
		t.Fatalf("expected one job, got %d", len(list))
	}
}

func TestStepLifecycle(t *testing.T) {
	api := newTestAPI(t)
	job := api.createJob(t)
	taskID := job.Tasks[0].ID

	w := api.do(t, http.MethodPost, "/jobs/"+job.ID+"/tasks/"+taskID+"/steps", map[string]string{"description": "Inspect pads"})
	if w.Code != http.StatusCreated {
		t.Fatalf("append step: %d %s", w.Code, w.Body.String())
	}
	step := decode[entity.Step](t, w)

	stepPath := "/jobs/" + job.ID + "/tasks/" + taskID + "/steps/" + step.ID
	w = api.do(t, http.MethodPatch, stepPath, map[string]string{"field": "photoBefore", "value": "https://x/img.jpg"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch step: %d %s", w.Code, w.Body.String())
	}

	got := decode[entity.Job](t, api.do(t, http.MethodGet, "/jobs/"+job.ID, nil))
	s := got.Tasks[0].Steps[0]
	if s.PhotoBefore == nil || *s.PhotoBefore != "https://x/img.jpg" {
		t.Fatalf("photoBefore not set: %+v", s)
	}
	if s.PhotoAfter != nil || s.VideoURL != nil || s.Description != "Inspect pads" {
		t.Fatalf("sibling fields changed: %+v", s)
	}

	missing := "/jobs/" + job.ID + "/tasks/" + taskID + "/steps/" + ident.New()
	if w := api.do(t, http.MethodPatch, missing, map[string]string{"field": "photoAfter", "value": "x"}); w.Code != http.StatusNotFound {
		t.Fatalf("missing step: expected 404, got %d", w.Code)
	}
	if w := api.do(t, http.MethodPatch, stepPath, map[string]string{"field": "id", "value": "x"}); w.Code != http.StatusBadRequest {
		t.Fatalf("immutable field: expected 400, got %d", w.Code)
	}
}

func TestAppendTask_MissingJob(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/jobs/"+ident.New()+"/tasks", map[string]string{"title": "Oil change"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestReplaceAndStatus(t *testing.T) {
	api := newTestAPI(t)
	job := api.createJob(t)

	w := api.do(t, http.MethodPatch, "/jobs/"+job.ID+"/status", map[string]string{"status": "in_progress"})
	if w.Code != http.StatusOK {
		t.Fatalf("set status: %d %s", w.Code, w.Body.String())
	}
	if got := decode[entity.Job](t, w); got.Status != entity.StatusInProgress {
		t.Fatalf("status not applied: %s", got.Status)
	}

	w = api.do(t, http.MethodPut, "/jobs/"+job.ID, map[string]any{"vehicleInfo": map[string]string{"make": "Ford"}})
	if w.Code != http.StatusOK {
		t.Fatalf("replace: %d %s", w.Code, w.Body.String())
	}
	got := decode[entity.Job](t, w)
	if got.VehicleInfo.Make != "Ford" || len(got.Tasks) != 1 || got.CustomerID != "C1" {
		t.Fatalf("replace must merge top-level fields only: %+v", got)
	}
}

func TestDeleteJob(t *testing.T) {
	api := newTestAPI(t)
	job := api.createJob(t)

	if w := api.do(t, http.MethodDelete, "/jobs/"+job.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/jobs/"+job.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", w.Code)
	}
	if w := api.do(t, http.MethodDelete, "/jobs/"+job.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestUploadStepMedia(t *testing.T) {
	api := newTestAPI(t)
	job := api.createJob(t)
	taskID := job.Tasks[0].ID
	step := decode[entity.Step](t, api.do(t, http.MethodPost, "/jobs/"+job.ID+"/tasks/"+taskID+"/steps", map[string]string{"description": "Pads"}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("field", "photoAfter"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "after.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/jobs/"+job.ID+"/tasks/"+taskID+"/steps/"+step.ID+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	got := decode[entity.Step](t, w)
	if got.PhotoAfter == nil || len(api.storage.keys) != 1 || *got.PhotoAfter != "https://media.test/"+api.storage.keys[0] {
		t.Fatalf("photoAfter not set from upload: %+v", got)
	}
	if got.PhotoBefore != nil {
		t.Fatalf("photoBefore must stay null")
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK || decode[map[string]string](t, w)["status"] != "ok" {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}
