package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dynaform/dynaform/app"
	"github.com/dynaform/dynaform/config"
	"github.com/dynaform/dynaform/database"
	"github.com/dynaform/dynaform/model"
)

const testToken = "test-admin-token"

func newTestApp(t *testing.T) app.App {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "forms.sqlite"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return app.App{
		DB: db,
		Config: config.Config{
			Addr:          "127.0.0.1:0",
			AdminUsername: "admin",
			AdminPassword: "hunter2",
			AdminToken:    testToken,
			MaxBodyBytes:  10 << 20,
		},
	}
}

func request(t *testing.T, h http.Handler, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "203.0.113.7:51000"
	req.Header.Set("User-Agent", "routes-test")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("x-admin-token", testToken)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) (v T) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return
}

// mustCreateForm posts a form through the API and returns it as stored.
func mustCreateForm(t *testing.T, h http.Handler, body map[string]any) model.Form {
	t.Helper()
	rec := request(t, h, http.MethodPost, "/admin/forms", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create form: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[model.Form](t, rec)
}

func simpleTextField(name, label string, required bool) map[string]any {
	return map[string]any{
		"label":    label,
		"type":     "text",
		"name":     name,
		"required": required,
	}
}
