package httpapi

import (
	"bytes"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/griffi-gh/awfuldb/internal/engine"
)

func TestBatchEndpointCreatesAndQueries(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "awfuldb-*.db")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	db, err := engine.Create(f)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mux := NewServeMux(db)

	body := []byte(`[
		{"type":"TableCreate","name":"t","columns":[{"name":"id","type":"Unsigned8"}]},
		{"type":"TableInsert","name":"t","columns":[9]},
		{"type":"TableQuery","name":"t","columns":["id"],"_rowid":0}
	]`)
	req := httptest.NewRequest("POST", "/batch", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); !bytes.Contains([]byte(got), []byte(`"TableQuery":[[9]]`)) {
		t.Errorf("unexpected response body: %s", got)
	}
}

func TestBatchEndpointReportsErrorsAt500(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "awfuldb-*.db")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	db, err := engine.Create(f)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mux := NewServeMux(db)
	body := []byte(`[{"type":"TableQuery","name":"missing","columns":["id"],"_rowid":0}]`)
	req := httptest.NewRequest("POST", "/batch", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500 regardless of error kind (body = %s)", rec.Code, rec.Body.String())
	}
}

func TestBatchEndpointRejectsWrongMethod(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "awfuldb-*.db")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	db, err := engine.Create(f)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mux := NewServeMux(db)
	req := httptest.NewRequest("GET", "/batch", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != 405 {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
