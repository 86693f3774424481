package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhaomeiling/kangyuan/backend/internal/mmse"
	assessmentService "github.com/zhaomeiling/kangyuan/backend/internal/service/assessment"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/session"
)

var fixedNow = time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (chi.Router, []mmse.Item) {
	t.Helper()
	items := mmse.Build(fixedNow, mmse.DefaultSiteAnswers())
	store := session.NewStore()
	driver := assessmentService.NewDriver(items, store, nil, time.Second, 6)

	r := chi.NewRouter()
	New(driver).RegisterRoutes(r)
	return r, items
}

func doJSON(t *testing.T, r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader([]byte("{}"))
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestStartAssessmentEndpoint(t *testing.T) {
	r, items := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/assessment/start", `{"sessionId":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope: %s", rec.Body.String())
	}

	var data struct {
		FirstQuestion  string `json:"firstQuestion"`
		WelcomeMessage string `json:"welcomeMessage"`
		CurrentIndex   int    `json:"currentIndex"`
		TotalQuestions int    `json:"totalQuestions"`
		SessionID      string `json:"sessionId"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if data.FirstQuestion != items[0].Prompt {
		t.Fatalf("unexpected first question: %q", data.FirstQuestion)
	}
	if data.CurrentIndex != 0 || data.TotalQuestions != len(items) {
		t.Fatalf("unexpected start data: %+v", data)
	}
	if data.SessionID != "s1" {
		t.Fatalf("expected session id to round-trip, got %q", data.SessionID)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/chat", `{"sessionId":"s1","message":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == "" {
		t.Fatalf("expected error envelope: %s", rec.Body.String())
	}
}

func TestChatAdvancesAssessment(t *testing.T) {
	r, items := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/assessment/start", `{"sessionId":"s1"}`)

	rec := doJSON(t, r, http.MethodPost, "/chat",
		`{"sessionId":"s1","message":"2026年","isAssessmentAnswer":true,"currentIndex":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var data turnData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if !data.AssessmentActive || data.CurrentIndex != 1 {
		t.Fatalf("expected advance to item 2, got %+v", data)
	}
	if data.Reply != items[1].Prompt {
		t.Fatalf("expected second prompt, got %q", data.Reply)
	}
}

// currentIndex 缺省时按自由聊天处理，没有模型则回兜底致歉语。
func TestChatIdleFallback(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/chat", `{"sessionId":"s1","message":"你好"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	var data turnData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if data.AssessmentActive || data.CurrentIndex != -1 {
		t.Fatalf("idle chat must not touch assessment state: %+v", data)
	}
	if !strings.Contains(data.Reply, "抱歉") {
		t.Fatalf("expected apology fallback, got %q", data.Reply)
	}
}

func TestReportNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/assessment/report?sessionId=s1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReportAfterCompletion(t *testing.T) {
	r, items := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/assessment/start", `{"sessionId":"s1"}`)
	for i := range items {
		body, _ := json.Marshal(map[string]any{
			"sessionId":          "s1",
			"message":            "随便答一句",
			"isAssessmentAnswer": true,
			"currentIndex":       i,
		})
		doJSON(t, r, http.MethodPost, "/chat", string(body))
	}

	req := httptest.NewRequest(http.MethodGet, "/assessment/report?sessionId=s1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var report mmse.Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalMax != 30 {
		t.Fatalf("expected total max 30, got %d", report.TotalMax)
	}
	if report.Classification == "" {
		t.Fatal("expected a classification")
	}
}

func TestAnalyzeWithoutReport(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/assessment/analyze", `{"sessionId":"s1"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}
