// package formatter renders a film collection export as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists the accepted names, for help text.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts the format names plus the aliases "md" and "text".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension for f, with the leading dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// Render encodes export in the given format.
func Render(export *models.CollectionExport, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, nil)
	case FormatText:
		return ExportToText(export)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
}

// ExportToJSON renders the export envelope as indented JSON.
func ExportToJSON(export *models.CollectionExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ExportToCSV converts an export to CSV with columns: ID, Title, Year, Director, Duration, Genre, Seen, Poster
func ExportToCSV(export *models.CollectionExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Director", "Duration", "Genre", "Seen", "Poster"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, film := range export.Films {
		year := ""
		if film.Year > 0 {
			year = strconv.Itoa(film.Year)
		}
		record := []string{
			strconv.FormatInt(film.ID, 10),
			film.Title,
			year,
			film.Director,
			film.Duration,
			film.Genre,
			strconv.FormatBool(film.Seen),
			film.Poster,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func exportHeading(export *models.CollectionExport) string {
	if export.Search != "" {
		return fmt.Sprintf("Films matching %q", export.Search)
	}
	return "Film collection"
}

func filmDetails(film models.Film) string {
	var parts []string
	for _, p := range []string{film.Director, film.Genre, film.Duration} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " - " + strings.Join(parts, ", ")
}

// ExportToMarkdown renders a checklist, seen films checked. posters maps film IDs to local poster files;
// films without an entry are listed without an image.
func ExportToMarkdown(export *models.CollectionExport, posters map[int64]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", exportHeading(export)))
	if !export.ExportedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.ExportedAt.Format(time.DateTime)))
	}
	buf.WriteString(fmt.Sprintf("**Films**: %d\n", len(export.Films)))
	buf.WriteString(fmt.Sprintf("**Seen**: %d\n\n", export.SeenCount()))

	buf.WriteString("## Films\n\n")
	for _, film := range export.Films {
		check := " "
		if film.Seen {
			check = "x"
		}
		buf.WriteString(fmt.Sprintf("- [%s] %s%s\n", check, film.Label(), filmDetails(film)))
		if poster, ok := posters[film.ID]; ok {
			buf.WriteString(fmt.Sprintf("  ![%s](%s)\n", film.Title, poster))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an export to plain text format
func ExportToText(export *models.CollectionExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(exportHeading(export) + "\n")
	buf.WriteString(fmt.Sprintf("Films: %d (seen %d)\n\n", len(export.Films), export.SeenCount()))

	for i, film := range export.Films {
		mark := ""
		if film.Seen {
			mark = " [seen]"
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, film.Label(), mark))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteExport renders export and writes it to dest, creating parent directories.
func WriteExport(export *models.CollectionExport, f Format, dest string) error {
	data, err := Render(export, f)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", f, err)
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
}

// WriteMarkdownExport writes {dir}/README.md and, when withPosters is set, downloads each poster to
// {dir}/posters/{id}{ext}. A poster that cannot be fetched is logged and skipped.
func WriteMarkdownExport(ctx context.Context, export *models.CollectionExport, outputDir string, withPosters bool, client *http.Client, logger *log.Logger) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "films"
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}
	posters := map[int64]string{}

	if withPosters {
		posterDir := filepath.Join(outputDir, "posters")
		if err := os.MkdirAll(posterDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}

		for _, film := range export.Films {
			if film.Poster == "" || film.ID == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			data, err := DownloadImage(ctx, client, film.Poster)
			if err != nil {
				logger.Warn("failed to download poster", "film", film.Title, "error", err)
				continue
			}

			name := strconv.FormatInt(film.ID, 10) + posterExt(film.Poster)
			if err := os.WriteFile(filepath.Join(posterDir, name), data, 0644); err != nil {
				logger.Warn("failed to save poster", "film", film.Title, "error", err)
				continue
			}
			posters[film.ID] = "posters/" + name
			result.Files = append(result.Files, filepath.Join(posterDir, name))
			result.Posters++
		}
	}

	mdData, err := ExportToMarkdown(export, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

func posterExt(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	switch ext := strings.ToLower(path.Ext(url)); ext {
	case ".png", ".webp", ".gif", ".jpeg":
		return ext
	default:
		return ".jpg"
	}
}
