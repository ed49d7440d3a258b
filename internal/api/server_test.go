package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbti/internal/cache/memory"
	"mbti/internal/domain"
	"mbti/internal/encoder"
	"mbti/internal/forest"
	"mbti/internal/labels"
	"mbti/internal/mbti"
	"mbti/internal/service"
	storemem "mbti/internal/storage/memory"
	"mbti/internal/testutil"
)

var (
	svcOnce sync.Once
	realSvc *service.MBTIServiceImpl
	svcErr  error
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func trainedService(t *testing.T) *service.MBTIServiceImpl {
	t.Helper()
	svcOnce.Do(func() {
		cfg := service.TrainConfig{
			Encoder:  encoder.Config{MaxFeatures: 60, Normalize: true},
			Forest:   forest.Config{Trees: 10, Seed: 42},
			TestSize: 0.2,
			Seed:     42,
		}
		a, err := service.Train(context.Background(), testutil.Corpus(4), cfg, quietLogger())
		if err != nil {
			svcErr = err
			return
		}
		p, err := service.NewPredictor(a, 0)
		if err != nil {
			svcErr = err
			return
		}
		realSvc = service.NewMBTIService(p, memory.NewCache(0, 0), storemem.NewResultStore(), quietLogger())
	})
	require.NoError(t, svcErr)
	return realSvc
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error object: %v", body)
	return e["code"].(string)
}

func TestRoot(t *testing.T) {
	h := NewServer(trainedService(t), quietLogger()).Routes()
	rec, body := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["message"], "MBTI API is running")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, _ = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	svc := trainedService(t)
	h := NewServer(svc, quietLogger()).Routes()
	rec, body := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, svc.ModelID(), body["model_id"])
}

func TestPredictEndToEnd(t *testing.T) {
	h := NewServer(trainedService(t), quietLogger()).Routes()
	rec, body := do(t, h, http.MethodPost, "/predict",
		`{"text":"I love long philosophical discussions about the future of humanity and technology","user_id":"u-42"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	label, _ := body["mbti"].(string)
	assert.True(t, mbti.Valid(label), label)
	conf, _ := body["confidence"].(float64)
	assert.GreaterOrEqual(t, conf, 0.0)
	assert.LessOrEqual(t, conf, 1.0)
	assert.Len(t, body["probabilities"], 16)
	assert.Len(t, body["breakdown"], 4)

	rec, stored := do(t, h, http.MethodGet, "/users/u-42/mbti", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, label, stored["mbti"])
}

func TestPredictValidation(t *testing.T) {
	h := NewServer(trainedService(t), quietLogger()).Routes()
	cases := map[string]string{
		"short":   `{"text":"hi"}`,
		"empty":   `{"text":""}`,
		"missing": `{}`,
		"garbage": `{"text":`,
		"wrong":   `{"text":42}`,
	}
	for name, body := range cases {
		rec, out := do(t, h, http.MethodPost, "/predict", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.True(t, strings.HasPrefix(errorCode(t, out), "MBTI-API-400"), name)
	}
	_, out := do(t, h, http.MethodPost, "/predict", `{"text":"hi"}`)
	assert.Equal(t, "MBTI-API-4001", errorCode(t, out))
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewServer(trainedService(t), quietLogger()).Routes()
	rec, _ := do(t, h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	rec, _ = do(t, h, http.MethodPost, "/", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPreflight(t *testing.T) {
	h := NewServer(trainedService(t), quietLogger()).Routes()
	rec, _ := do(t, h, http.MethodOptions, "/predict", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUserLookupNotFound(t *testing.T) {
	h := NewServer(trainedService(t), quietLogger()).Routes()
	rec, out := do(t, h, http.MethodGet, "/users/ghost/mbti", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MBTI-API-4040", errorCode(t, out))

	rec, _ = do(t, h, http.MethodGet, "/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubService struct {
	pred    *domain.Prediction
	err     error
	userErr error
	calls   int
}

func (s *stubService) Classify(context.Context, domain.PredictRequest) (*domain.Prediction, error) {
	s.calls++
	return s.pred, s.err
}

func (s *stubService) UserResult(context.Context, string) (*domain.StoredResult, error) {
	return nil, s.userErr
}

func (s *stubService) ModelID() string { return "stub" }

func TestPredictDecodeFailureIs500(t *testing.T) {
	stub := &stubService{err: fmt.Errorf("decode: %w", labels.ErrInvalidIndex)}
	h := NewServer(stub, quietLogger()).Routes()
	rec, out := do(t, h, http.MethodPost, "/predict", `{"text":"this text is long enough to be classified"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "MBTI-API-5001", errorCode(t, out))
}

func TestMissingTextSkipsClassifier(t *testing.T) {
	stub := &stubService{}
	h := NewServer(stub, quietLogger()).Routes()
	rec, _ := do(t, h, http.MethodPost, "/predict", `{"user_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, stub.calls)
}

func TestUserLookupWithoutStore(t *testing.T) {
	stub := &stubService{userErr: service.ErrNoStore}
	h := NewServer(stub, quietLogger()).Routes()
	rec, out := do(t, h, http.MethodGet, "/users/a/mbti", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "MBTI-API-5030", errorCode(t, out))
}
