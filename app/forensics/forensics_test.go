package forensics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type stubAnalyzer struct {
	calls   atomic.Int32
	got     []byte
	verdict *Verdict
	err     error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, image []byte) (*Verdict, error) {
	s.calls.Add(1)
	s.got = image
	return s.verdict, s.err
}

func TestLabelForScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected Label
	}{
		{0, LabelFake},
		{0.349, LabelFake},
		{0.35, LabelProcessed},
		{0.70, LabelProcessed},
		{0.701, LabelReal},
		{1, LabelReal},
	}

	for _, tt := range tests {
		if got := LabelForScore(tt.score); got != tt.expected {
			t.Errorf("LabelForScore(%v): expected %q, got %q", tt.score, tt.expected, got)
		}
	}
}

func TestVerdictValidate(t *testing.T) {
	if err := (&Verdict{Label: LabelSynthetic, TrustScore: 0.3}).Validate(); err != nil {
		t.Errorf("Expected valid verdict, got: %v", err)
	}
	if err := (&Verdict{Label: "MAYBE", TrustScore: 0.5}).Validate(); err == nil {
		t.Error("Expected error for unknown label")
	}
	if err := (&Verdict{Label: LabelReal, TrustScore: 1.5}).Validate(); err == nil {
		t.Error("Expected error for out-of-range score")
	}
}

func TestRemoteAnalyzer(t *testing.T) {
	var body []byte
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]any{
			"prediction":  "REAL / ORIGINAL",
			"trust_score": 0.91,
			"metrics":     map[string]float64{"ela_mean": 1.5, "noise_inconsistency": 0.02},
		})
	}))
	defer server.Close()

	verdict, err := NewRemoteAnalyzer(server.Client(), server.URL).Analyze(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if string(body) != "jpeg-bytes" {
		t.Errorf("Expected image bytes as body, got %q", body)
	}
	if contentType != "application/octet-stream" {
		t.Errorf("Expected octet-stream content type, got %q", contentType)
	}
	if verdict.Label != LabelReal || verdict.TrustScore != 0.91 {
		t.Errorf("Unexpected verdict: %+v", verdict)
	}
	if verdict.Metrics["ela_mean"] != 1.5 {
		t.Errorf("Expected metrics to be decoded, got %v", verdict.Metrics)
	}
}

func TestRemoteAnalyzer_DerivesMissingLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trust_score": 0.2}`))
	}))
	defer server.Close()

	verdict, err := NewRemoteAnalyzer(server.Client(), server.URL).Analyze(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if verdict.Label != LabelFake {
		t.Errorf("Expected %q, got %q", LabelFake, verdict.Label)
	}
}

func TestRemoteAnalyzer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		errPart string
	}{
		{"upstream failure", http.StatusInternalServerError, "", "HTTP error: 500"},
		{"bad json", http.StatusOK, "{", "failed to decode verdict"},
		{"bad label", http.StatusOK, `{"prediction":"UNSURE","trust_score":0.5}`, "invalid verdict"},
		{"bad score", http.StatusOK, `{"prediction":"REAL / ORIGINAL","trust_score":7}`, "invalid verdict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.reply))
			}))
			defer server.Close()

			_, err := NewRemoteAnalyzer(server.Client(), server.URL).Analyze(context.Background(), []byte("x"))
			if err == nil || !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Expected error containing %q, got: %v", tt.errPart, err)
			}
		})
	}
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("fake-jpeg"))
		case "/page.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html></html>"))
		case "/huge.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(make([]byte, MaxImageSize+1))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInspector(t *testing.T) {
	server := newImageServer(t)
	analyzer := &stubAnalyzer{verdict: &Verdict{Label: LabelProcessed, TrustScore: 0.5}}
	inspector := NewInspector(analyzer, server.Client(), InspectorOptions{Rate: 100, Burst: 100})

	verdict, err := inspector.Run(context.Background(), server.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if verdict.Label != LabelProcessed {
		t.Errorf("Expected stub verdict, got %+v", verdict)
	}
	if string(analyzer.got) != "fake-jpeg" {
		t.Errorf("Expected downloaded bytes to reach the analyzer, got %q", analyzer.got)
	}
}

func TestInspector_Errors(t *testing.T) {
	server := newImageServer(t)

	tests := []struct {
		name   string
		url    string
		target error
	}{
		{"invalid url", "not a url", ErrInvalidURL},
		{"empty url", "", ErrInvalidURL},
		{"not an image", server.URL + "/page.html", ErrUnsupportedContent},
		{"too large", server.URL + "/huge.png", ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &stubAnalyzer{verdict: &Verdict{Label: LabelReal, TrustScore: 0.9}}
			inspector := NewInspector(analyzer, server.Client(), InspectorOptions{Rate: 100, Burst: 100})

			_, err := inspector.Run(context.Background(), tt.url)
			if !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got: %v", tt.target, err)
			}
			if analyzer.calls.Load() != 0 {
				t.Error("Expected analyzer not to be called")
			}
		})
	}

	analyzer := &stubAnalyzer{}
	inspector := NewInspector(analyzer, server.Client(), InspectorOptions{Rate: 100, Burst: 100})
	if _, err := inspector.Run(context.Background(), server.URL+"/missing.jpg"); err == nil || !strings.Contains(err.Error(), "HTTP error: 404") {
		t.Errorf("Expected upstream 404 error, got: %v", err)
	}

	analyzer = &stubAnalyzer{err: errors.New("model crashed")}
	inspector = NewInspector(analyzer, server.Client(), InspectorOptions{Rate: 100, Burst: 100})
	if _, err := inspector.Run(context.Background(), server.URL+"/photo.jpg"); err == nil || !strings.Contains(err.Error(), "failed to analyze image") {
		t.Errorf("Expected analyzer error, got: %v", err)
	}
}

func TestInspector_Throttled(t *testing.T) {
	server := newImageServer(t)
	analyzer := &stubAnalyzer{verdict: &Verdict{Label: LabelReal, TrustScore: 0.9}}
	inspector := NewInspector(analyzer, server.Client(), InspectorOptions{Rate: 0.001, Burst: 1})

	if _, err := inspector.Run(context.Background(), server.URL+"/photo.jpg"); err != nil {
		t.Fatalf("Expected first analysis to pass, got: %v", err)
	}
	if _, err := inspector.Run(context.Background(), server.URL+"/photo.jpg"); !errors.Is(err, ErrThrottled) {
		t.Errorf("Expected ErrThrottled, got: %v", err)
	}
	if analyzer.calls.Load() != 1 {
		t.Errorf("Expected 1 analyzer call, got %d", analyzer.calls.Load())
	}
}
