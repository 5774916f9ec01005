package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/filmx/internal/formatter"
	"github.com/desertthunder/filmx/internal/paging"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/desertthunder/filmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export walks every page of the collection and writes it in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	sort, err := paging.ParseSortDirection(cmd.String("sort"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	if cmd.Bool("posters") && format != formatter.FormatMarkdown {
		r.logger.Warn("--posters only applies to markdown exports, ignoring")
	}

	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Search:          cmd.String("search"),
		MinSearchLength: r.config.UI.MinSearchLength,
		PageSize:        cmd.Int("size"),
		Sort:            sort,
		NumWorkers:      cmd.Int("workers"),
		RateLimit:       r.config.API.RateLimit,
		Format:          format,
		Output:          cmd.String("output"),
		Posters:         cmd.Bool("posters"),
		Client:          r.httpClient,
	}

	r.logger.Info("starting export", "format", format, "output", opts.Output, "search", opts.Search)
	r.writePlain("Exporting collection...\n\n")

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchFirstPage:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchPages:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteExport:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.NewExporter(films, r.logger).Run(ctx, progressCh, opts)
	close(progressCh)
	wg.Wait()

	if err != nil {
		return err
	}

	seen := result.Export.SeenCount()
	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("Export Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	if result.Export.Search != "" {
		r.writePlain("Search: %q\n", result.Export.Search)
	}
	r.writePlain("Films: %d (%d seen, %d to watch)\n", len(result.Export.Films), seen, len(result.Export.Films)-seen)
	r.writePlain("Pages: %d\n", result.Pages)
	for _, f := range result.Files {
		r.writePlain("Wrote: %s\n", f)
	}
	return nil
}
