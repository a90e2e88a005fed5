package bank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

const sampleDocument = `{"questions":[{"difficulty":"easy","data":"eyJxdWVzdGlvbiI6InEiLCJvcHRpb25zIjpbeyJ0ZXh0IjoiQSIsImNvcnJlY3QiOnRydWV9XX0="}]}`

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := NewFileLoader(path)
	if l.Source() != "file:"+path {
		t.Errorf("source = %q", l.Source())
	}
	raw, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := Parse(raw); err != nil {
		t.Errorf("parse loaded document: %v", err)
	}

	if _, err := NewFileLoader(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background()); err == nil {
		t.Error("missing file loaded without error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled load: err = %v", err)
	}
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/questions.json":
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("accept = %q", r.Header.Get("Accept"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(sampleDocument))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.URL+"/questions.json", nil)
	if !strings.HasPrefix(l.Source(), "http:") {
		t.Errorf("source = %q", l.Source())
	}
	raw, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(raw) != sampleDocument {
		t.Errorf("body = %s", raw)
	}

	if _, err := NewHTTPLoader(srv.URL+"/missing.json", srv.Client()).Load(context.Background()); err == nil {
		t.Error("404 loaded without error")
	}
}

func TestHTTPLoader_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewHTTPLoader(srv.URL, nil).Load(ctx); err == nil {
		t.Error("slow source loaded without error")
	}
}

type fakeLister struct {
	records []model.QuestionRecord
	err     error
}

func (f fakeLister) ListRecords(context.Context) ([]model.QuestionRecord, error) {
	return f.records, f.err
}

func TestStoreLoader(t *testing.T) {
	valid := rawRecord(model.DifficultyMedium, `{"question":"q","options":[{"text":"A","correct":true}]}`, nil)

	l := NewStoreLoader("psm", fakeLister{records: []model.QuestionRecord{valid}})
	if l.Source() != "store:psm" {
		t.Errorf("source = %q", l.Source())
	}
	raw, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Parse(raw)
	if err != nil || len(b.Records) != 1 {
		t.Fatalf("parse: %+v, %v", b, err)
	}

	boom := errors.New("db down")
	if _, err := NewStoreLoader("psm", fakeLister{err: boom}).Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}
