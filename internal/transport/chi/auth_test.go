package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name    string
		keys    []string
		headers map[string]string
		want    int
	}{
		{"no keys configured", nil, nil, http.StatusOK},
		{"only empty keys", []string{"", ""}, nil, http.StatusOK},
		{"missing credentials", []string{"secret"}, nil, http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, http.StatusUnauthorized},
		{"empty bearer", []string{"secret"}, map[string]string{"Authorization": "Bearer  "}, http.StatusUnauthorized},
		{"wrong bearer", []string{"secret"}, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"bearer", []string{"secret"}, map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"lowercase scheme", []string{"secret"}, map[string]string{"Authorization": "bearer secret"}, http.StatusOK},
		{"second key", []string{"k1", "k2"}, map[string]string{"Authorization": "Bearer k2"}, http.StatusOK},
		{"api key header", []string{"secret"}, map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"api key header wins", []string{"secret"}, map[string]string{"X-API-Key": "nope", "Authorization": "Bearer secret"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/search", http.NoBody)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			requireAPIKey(tt.keys)(ok).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want != http.StatusUnauthorized {
				return
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate challenge")
			}
			var resp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != codeUnauthorized {
				t.Errorf("code = %s, want %s", resp.Code, codeUnauthorized)
			}
		})
	}
}
