package tasks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/formatter"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/paging"
	"github.com/desertthunder/filmx/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultExportPageSize = 50
	DefaultExportWorkers  = 4
	MaxExportWorkers      = 10
	DefaultExportRate     = 5.0
)

// ExportOpts contains configuration for a collection export.
type ExportOpts struct {
	Search          string               // Committed search term; empty exports everything
	MinSearchLength int                  // Shorter terms export everything (default: paging.DefaultMinSearchLength)
	PageSize        int                  // Films per request (default: 50)
	Sort            paging.SortDirection // Title order (default: asc)
	NumWorkers      int                  // Concurrent page requests (default: 4, max: 10)
	RateLimit       float64              // Requests per second (default: 5)

	Format  formatter.Format // Output encoding
	Output  string           // File or, for markdown, directory; empty skips writing
	Posters bool             // Markdown only: download posters next to the README
	Client  *http.Client     // Used for poster downloads
}

// ExportResult is what an export collected and wrote.
type ExportResult struct {
	Export *models.CollectionExport
	Pages  int
	Files  []string
}

// Exporter walks every page of the film collection through a [paging.Fetcher].
type Exporter struct {
	fetcher paging.Fetcher[models.Film]
	logger  *log.Logger
	now     func() time.Time
}

// NewExporter creates an Exporter. A nil logger discards output.
func NewExporter(fetcher paging.Fetcher[models.Film], logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Exporter{fetcher: fetcher, logger: logger, now: time.Now}
}

func (o *ExportOpts) defaults() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultExportPageSize
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = DefaultExportWorkers
	}
	if o.NumWorkers > MaxExportWorkers {
		o.NumWorkers = MaxExportWorkers
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultExportRate
	}
	if o.MinSearchLength <= 0 {
		o.MinSearchLength = paging.DefaultMinSearchLength
	}
	if o.Sort == "" {
		o.Sort = paging.Asc
	}
	o.Search = strings.TrimSpace(o.Search)
}

// Run collects the collection and, when opts.Output is set, writes it in opts.Format.
//
// The first page is fetched alone to learn the page count. The remaining pages are fetched concurrently
// by a bounded pool sharing one rate limiter, and reassembled in page order. The first failure cancels
// the pages still in flight.
func (e *Exporter) Run(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: film service not initialized", shared.ErrServiceUnavailable)
	}
	opts.defaults()

	query := paging.Query{PageSize: opts.PageSize, Sort: opts.Sort, Search: opts.Search}
	searching := query.UsesSearch(opts.MinSearchLength)
	if !searching {
		query.Search = ""
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	fetch := func(ctx context.Context, page int) (paging.Result[models.Film], error) {
		if err := limiter.Wait(ctx); err != nil {
			return paging.Result[models.Film]{}, err
		}
		if searching {
			return e.fetcher.FetchSearch(ctx, query.Search, page, query.PageSize, query.Sort)
		}
		return e.fetcher.FetchPage(ctx, page, query.PageSize, query.Sort)
	}

	sendProgress(prog, firstPageUpdate(query.Search))
	first, err := fetch(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page 1: %w", err)
	}

	totalPages := max(first.TotalPages, 1)
	pages := make([][]models.Film, totalPages)
	pages[0] = first.Items
	sendProgress(prog, pageFetchedUpdate(1, totalPages, len(first.Items)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.NumWorkers)

	for page := 1; page < totalPages; page++ {
		g.Go(func() error {
			res, err := fetch(gctx, page)
			if err != nil {
				return fmt.Errorf("failed to fetch page %d: %w", page+1, err)
			}
			pages[page] = res.Items
			e.logger.Debug("export page fetched", "page", page, "items", len(res.Items))
			sendProgress(prog, pageFetchedUpdate(page+1, totalPages, len(res.Items)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	export := &models.CollectionExport{Search: query.Search, ExportedAt: e.now(), Films: []models.Film{}}
	for _, items := range pages {
		export.Films = append(export.Films, items...)
	}

	result := &ExportResult{Export: export, Pages: totalPages, Files: []string{}}

	if opts.Output != "" {
		sendProgress(prog, writingUpdate(opts.Output))
		files, err := e.write(ctx, export, opts)
		if err != nil {
			return result, err
		}
		result.Files = files
	}

	e.logger.Info("export complete", "films", len(export.Films), "pages", totalPages, "search", query.Search)
	sendProgress(prog, doneUpdate(result))
	return result, nil
}

func (e *Exporter) write(ctx context.Context, export *models.CollectionExport, opts ExportOpts) ([]string, error) {
	if opts.Format == formatter.FormatMarkdown {
		res, err := formatter.WriteMarkdownExport(ctx, export, opts.Output, opts.Posters, opts.Client, e.logger)
		if err != nil {
			return nil, err
		}
		return res.Files, nil
	}

	if err := formatter.WriteExport(export, opts.Format, opts.Output); err != nil {
		return nil, err
	}
	return []string{opts.Output}, nil
}
