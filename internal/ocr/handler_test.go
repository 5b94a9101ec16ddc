package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/coverscan/internal/providers"
)

type fakeRecognizer struct {
	text  string
	err   error
	calls int
	image []byte
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	f.calls++
	f.image = image
	return f.text, f.err
}

func (f *fakeRecognizer) Close() error { return nil }

func TestHandler(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		recognizer  *fakeRecognizer
		wantStatus  int
		wantResp    Response
		wantDetails bool
		wantCalls   int
	}{
		{
			name:       "preflight",
			method:     http.MethodOptions,
			recognizer: &fakeRecognizer{},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "get not allowed",
			method:     http.MethodGet,
			recognizer: &fakeRecognizer{},
			wantStatus: http.StatusMethodNotAllowed,
			wantResp:   Response{Success: false, Error: "Method not allowed"},
		},
		{
			name:        "malformed body",
			method:      http.MethodPost,
			body:        `{"image":`,
			recognizer:  &fakeRecognizer{},
			wantStatus:  http.StatusInternalServerError,
			wantResp:    Response{Success: false, Error: "Invalid request"},
			wantDetails: true,
		},
		{
			name:        "missing image",
			method:      http.MethodPost,
			body:        `{}`,
			recognizer:  &fakeRecognizer{},
			wantStatus:  http.StatusInternalServerError,
			wantResp:    Response{Success: false, Error: "Invalid request"},
			wantDetails: true,
		},
		{
			name:       "recognized",
			method:     http.MethodPost,
			body:       `{"image":"aGVsbG8="}`,
			recognizer: &fakeRecognizer{text: "יהודה עמיחי\nשירי אהבה"},
			wantStatus: http.StatusOK,
			wantResp:   Response{Success: true, Text: "יהודה עמיחי\nשירי אהבה"},
			wantCalls:  1,
		},
		{
			name:       "data url",
			method:     http.MethodPost,
			body:       `{"image":"data:image/jpeg;base64,aGVsbG8="}`,
			recognizer: &fakeRecognizer{text: "x y"},
			wantStatus: http.StatusOK,
			wantResp:   Response{Success: true, Text: "x y"},
			wantCalls:  1,
		},
		{
			name:       "no text",
			method:     http.MethodPost,
			body:       `{"image":"aGVsbG8="}`,
			recognizer: &fakeRecognizer{},
			wantStatus: http.StatusOK,
			wantResp:   Response{Success: true},
			wantCalls:  1,
		},
		{
			name:       "recognizer failure",
			method:     http.MethodPost,
			body:       `{"image":"aGVsbG8="}`,
			recognizer: &fakeRecognizer{err: errors.New("quota exceeded")},
			wantStatus: http.StatusOK,
			wantResp:   Response{Success: false, Message: "quota exceeded"},
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			NewHandler(tt.recognizer).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Expected CORS header, got %q", got)
			}
			if tt.recognizer.calls != tt.wantCalls {
				t.Errorf("Expected %d recognizer calls, got %d", tt.wantCalls, tt.recognizer.calls)
			}
			if tt.wantStatus == http.StatusNoContent {
				if rr.Body.Len() != 0 {
					t.Errorf("Expected empty body, got %q", rr.Body.String())
				}
				return
			}

			var resp Response
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("bad response body: %v", err)
			}
			if tt.wantDetails && resp.Details == "" {
				t.Error("Expected details with the error")
			}
			if !tt.wantDetails && resp.Details != "" {
				t.Errorf("Expected no details, got %q", resp.Details)
			}
			resp.Details = ""
			if resp != tt.wantResp {
				t.Errorf("Expected %+v, got %+v", tt.wantResp, resp)
			}
		})
	}
}

func TestHandlerForwardsDecodedImage(t *testing.T) {
	recognizer := &fakeRecognizer{text: "x"}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"image":"aGVsbG8="}`))
	NewHandler(recognizer).ServeHTTP(httptest.NewRecorder(), req)

	if string(recognizer.image) != "hello" {
		t.Errorf("Expected decoded image bytes, got %q", recognizer.image)
	}
}

type stubProvider struct {
	reply string
	err   error
	got   providers.Request
}

func (s *stubProvider) Generate(ctx context.Context, req providers.Request) (string, error) {
	s.got = req
	return s.reply, s.err
}

func TestLLMRecognizer(t *testing.T) {
	provider := &stubProvider{reply: "  יהודה עמיחי\nשירי אהבה\n"}
	text, err := NewLLMRecognizer(provider, "gpt-4o").Recognize(context.Background(), []byte("hello"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "יהודה עמיחי\nשירי אהבה" {
		t.Errorf("Unexpected text %q", text)
	}
	if len(provider.got.Images) != 1 || provider.got.Images[0] != "aGVsbG8=" {
		t.Errorf("Expected base64 image, got %v", provider.got.Images)
	}
	if provider.got.Temperature != 0 || provider.got.Model != "gpt-4o" {
		t.Errorf("Unexpected request %+v", provider.got)
	}

	empty, err := NewLLMRecognizer(&stubProvider{reply: "NO_TEXT"}, "m").Recognize(context.Background(), []byte("x"))
	if err != nil || empty != "" {
		t.Errorf("Expected no text, got %q, %v", empty, err)
	}

	_, err = NewLLMRecognizer(&stubProvider{err: errors.New("down")}, "m").Recognize(context.Background(), []byte("x"))
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Errorf("Expected ErrRecognitionFailed, got %v", err)
	}
}
