package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/filmx/internal/formatter"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/paging"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/shared"
	tu "github.com/desertthunder/filmx/internal/testing"
	"golang.org/x/oauth2"
)

// memFetcher serves films in pages and records concurrency.
type memFetcher struct {
	films    []models.Film
	failPage int // -1 disables
	delay    time.Duration

	mu       sync.Mutex
	searches []string
	calls    atomic.Int32
	active   atomic.Int32
	peak     atomic.Int32
}

func newMemFetcher(n int) *memFetcher {
	f := &memFetcher{failPage: -1}
	for i := range n {
		f.films = append(f.films, models.Film{ID: int64(i + 1), Title: fmt.Sprintf("Film %03d", i+1)})
	}
	return f
}

func (m *memFetcher) serve(ctx context.Context, page, size int) (paging.Result[models.Film], error) {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return paging.Result[models.Film]{}, ctx.Err()
		}
	}
	if page == m.failPage {
		return paging.Result[models.Film]{}, errors.New("backend exploded")
	}

	total := len(m.films)
	start := min(page*size, total)
	end := min(start+size, total)
	return paging.Result[models.Film]{
		Items:         m.films[start:end],
		TotalPages:    (total + size - 1) / size,
		TotalElements: total,
	}, nil
}

func (m *memFetcher) FetchPage(ctx context.Context, page, size int, _ paging.SortDirection) (paging.Result[models.Film], error) {
	return m.serve(ctx, page, size)
}

func (m *memFetcher) FetchSearch(ctx context.Context, term string, page, size int, _ paging.SortDirection) (paging.Result[models.Film], error) {
	m.mu.Lock()
	m.searches = append(m.searches, term)
	m.mu.Unlock()
	return m.serve(ctx, page, size)
}

func TestExporter(t *testing.T) {
	t.Run("collects every page in order", func(t *testing.T) {
		tests := []struct {
			name      string
			films     int
			pageSize  int
			wantPages int
		}{
			{"empty collection", 0, 10, 1},
			{"single partial page", 3, 10, 1},
			{"exact pages", 20, 10, 2},
			{"many pages", 47, 5, 10},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fetcher := newMemFetcher(tt.films)
				e := NewExporter(fetcher, nil)

				res, err := e.Run(context.Background(), nil, ExportOpts{PageSize: tt.pageSize, NumWorkers: 3, RateLimit: 1000})
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if res.Pages != tt.wantPages {
					t.Errorf("expected %d pages, got %d", tt.wantPages, res.Pages)
				}
				if int(fetcher.calls.Load()) != tt.wantPages {
					t.Errorf("expected %d requests, got %d", tt.wantPages, fetcher.calls.Load())
				}
				if len(res.Export.Films) != tt.films {
					t.Fatalf("expected %d films, got %d", tt.films, len(res.Export.Films))
				}
				for i, f := range res.Export.Films {
					if f.ID != int64(i+1) {
						t.Fatalf("film %d out of order: got id %d", i, f.ID)
					}
				}
				if res.Export.Films == nil {
					t.Error("expected non-nil films slice")
				}
			})
		}
	})

	t.Run("worker limit", func(t *testing.T) {
		fetcher := newMemFetcher(100)
		fetcher.delay = 10 * time.Millisecond
		e := NewExporter(fetcher, nil)

		if _, err := e.Run(context.Background(), nil, ExportOpts{PageSize: 5, NumWorkers: 2, RateLimit: 1000}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if peak := fetcher.peak.Load(); peak > 2 {
			t.Errorf("expected at most 2 concurrent requests, got %d", peak)
		}
	})

	t.Run("search term", func(t *testing.T) {
		fetcher := newMemFetcher(12)
		e := NewExporter(fetcher, nil)

		res, err := e.Run(context.Background(), nil, ExportOpts{Search: "  film ", PageSize: 5, RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Export.Search != "film" {
			t.Errorf("expected trimmed search in export, got %q", res.Export.Search)
		}
		if len(fetcher.searches) != 3 {
			t.Fatalf("expected 3 search requests, got %d", len(fetcher.searches))
		}
		for _, term := range fetcher.searches {
			if term != "film" {
				t.Errorf("expected term 'film', got %q", term)
			}
		}
	})

	t.Run("short search exports everything", func(t *testing.T) {
		fetcher := newMemFetcher(3)
		e := NewExporter(fetcher, nil)

		res, err := e.Run(context.Background(), nil, ExportOpts{Search: "f", RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(fetcher.searches) != 0 {
			t.Errorf("expected unfiltered requests, got searches %v", fetcher.searches)
		}
		if res.Export.Search != "" {
			t.Errorf("expected no search recorded, got %q", res.Export.Search)
		}
	})

	t.Run("first page failure", func(t *testing.T) {
		fetcher := newMemFetcher(10)
		fetcher.failPage = 0
		e := NewExporter(fetcher, nil)

		_, err := e.Run(context.Background(), nil, ExportOpts{PageSize: 5, RateLimit: 1000})
		if err == nil || !strings.Contains(err.Error(), "failed to fetch page 1") {
			t.Errorf("expected page 1 error, got %v", err)
		}
	})

	t.Run("later page failure", func(t *testing.T) {
		fetcher := newMemFetcher(50)
		fetcher.failPage = 3
		e := NewExporter(fetcher, nil)

		_, err := e.Run(context.Background(), nil, ExportOpts{PageSize: 5, NumWorkers: 2, RateLimit: 1000})
		if err == nil || !strings.Contains(err.Error(), "failed to fetch page 4") {
			t.Errorf("expected page 4 error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		fetcher := newMemFetcher(10)
		e := NewExporter(fetcher, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := e.Run(ctx, nil, ExportOpts{RateLimit: 1})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("nil fetcher", func(t *testing.T) {
		_, err := NewExporter(nil, nil).Run(context.Background(), nil, ExportOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("progress", func(t *testing.T) {
		fetcher := newMemFetcher(15)
		e := NewExporter(fetcher, nil)
		prog := make(chan ProgressUpdate, 32)

		res, err := e.Run(context.Background(), prog, ExportOpts{PageSize: 5, RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(prog)

		var phases []Phase
		for u := range prog {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 5 {
			t.Fatalf("expected 5 updates, got %d: %v", len(phases), phases)
		}
		if phases[0] != FetchFirstPage || phases[len(phases)-1] != Done {
			t.Errorf("unexpected phase order %v", phases)
		}
		if res.Pages != 3 {
			t.Errorf("expected 3 pages, got %d", res.Pages)
		}
	})

	t.Run("full progress channel does not block", func(t *testing.T) {
		fetcher := newMemFetcher(30)
		e := NewExporter(fetcher, nil)
		prog := make(chan ProgressUpdate)

		done := make(chan error, 1)
		go func() {
			_, err := e.Run(context.Background(), prog, ExportOpts{PageSize: 5, RateLimit: 1000})
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("export blocked on progress channel")
		}
	})
}

func TestExporterWrite(t *testing.T) {
	t.Run("formats", func(t *testing.T) {
		tests := []struct {
			format formatter.Format
			check  func(t *testing.T, data string)
		}{
			{formatter.FormatJSON, func(t *testing.T, data string) {
				var export models.CollectionExport
				if err := json.Unmarshal([]byte(data), &export); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if len(export.Films) != 7 {
					t.Errorf("expected 7 films, got %d", len(export.Films))
				}
			}},
			{formatter.FormatCSV, func(t *testing.T, data string) {
				if lines := strings.Count(data, "\n"); lines != 8 {
					t.Errorf("expected 8 CSV lines, got %d", lines)
				}
			}},
			{formatter.FormatText, func(t *testing.T, data string) {
				if !strings.Contains(data, "7. Film 007") {
					t.Errorf("expected last film listed, got %s", data)
				}
			}},
		}

		for _, tt := range tests {
			t.Run(string(tt.format), func(t *testing.T) {
				dest := filepath.Join(t.TempDir(), "films"+tt.format.Extension())
				e := NewExporter(newMemFetcher(7), nil)

				res, err := e.Run(context.Background(), nil, ExportOpts{PageSize: 5, RateLimit: 1000, Format: tt.format, Output: dest})
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if len(res.Files) != 1 || res.Files[0] != dest {
					t.Errorf("expected files [%s], got %v", dest, res.Files)
				}
				tt.check(t, tu.MustReadFile(t, dest))
			})
		}
	})

	t.Run("markdown directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "md")
		e := NewExporter(newMemFetcher(2), nil)

		res, err := e.Run(context.Background(), nil, ExportOpts{RateLimit: 1000, Format: formatter.FormatMarkdown, Output: dir})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "README.md"))
		if len(res.Files) != 1 {
			t.Errorf("expected README only, got %v", res.Files)
		}
	})

	t.Run("write failure keeps collected films", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		e := NewExporter(newMemFetcher(2), nil)

		res, err := e.Run(context.Background(), nil, ExportOpts{RateLimit: 1000, Format: formatter.FormatCSV, Output: filepath.Join(blocker, "out.csv")})
		if err == nil {
			t.Fatal("expected write error")
		}
		if res == nil || len(res.Export.Films) != 2 {
			t.Error("expected collected films alongside the error")
		}
	})
}

func TestExporterAgainstBackend(t *testing.T) {
	var films []models.Film
	for i := range 23 {
		films = append(films, models.Film{Title: fmt.Sprintf("Movie %02d", i), Seen: i%2 == 0})
	}
	backend := tu.NewFilmBackend(t, films...)

	srv, err := services.NewFilmService(services.Options{
		BaseURL: backend.URL(),
		Tokens:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tu.BackendToken}),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	res, err := NewExporter(srv, nil).Run(context.Background(), nil, ExportOpts{PageSize: 5, Sort: paging.Desc, RateLimit: 1000})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(res.Export.Films) != 23 || res.Pages != 5 {
		t.Fatalf("expected 23 films over 5 pages, got %d over %d", len(res.Export.Films), res.Pages)
	}
	if res.Export.Films[0].Title != "Movie 22" || res.Export.Films[22].Title != "Movie 00" {
		t.Errorf("expected descending title order, got %s..%s", res.Export.Films[0].Title, res.Export.Films[22].Title)
	}
	if res.Export.SeenCount() != 12 {
		t.Errorf("expected 12 seen, got %d", res.Export.SeenCount())
	}
	if backend.Hits("/api/films") != 5 {
		t.Errorf("expected 5 list requests, got %d", backend.Hits("/api/films"))
	}
}
