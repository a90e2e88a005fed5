package bank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

// maxDocumentBytes bounds a bank document fetched from a file or URL.
const maxDocumentBytes = 32 << 20

// Loader fetches the raw bank document from its source.
type Loader interface {
	Load(ctx context.Context) ([]byte, error)
	// Source identifies the bank; it is used as part of the cache key.
	Source() string
}

// FileLoader reads the bank from a JSON file on disk.
type FileLoader struct {
	path string
}

// NewFileLoader creates a FileLoader for path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) Source() string { return "file:" + l.path }

func (l *FileLoader) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open bank file: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	return raw, nil
}

// HTTPLoader fetches the bank from a URL.
type HTTPLoader struct {
	url    string
	client *http.Client
}

// NewHTTPLoader creates an HTTPLoader. A nil client gets a 10s timeout.
func NewHTTPLoader(url string, client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPLoader{url: url, client: client}
}

func (l *HTTPLoader) Source() string { return "http:" + l.url }

func (l *HTTPLoader) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bank: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch bank: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read bank body: %w", err)
	}
	return raw, nil
}

// RecordLister is the storage side of StoreLoader.
type RecordLister interface {
	ListRecords(ctx context.Context) ([]model.QuestionRecord, error)
}

// StoreLoader builds the bank document from records held in a database.
type StoreLoader struct {
	name  string
	store RecordLister
}

// NewStoreLoader creates a StoreLoader; name distinguishes cache entries.
func NewStoreLoader(name string, store RecordLister) *StoreLoader {
	return &StoreLoader{name: name, store: store}
}

func (l *StoreLoader) Source() string { return "store:" + l.name }

func (l *StoreLoader) Load(ctx context.Context) ([]byte, error) {
	records, err := l.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return Marshal(records)
}
