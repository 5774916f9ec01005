package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
	th "github.com/desertthunder/filmx/internal/testing"
)

func sampleExport() *models.CollectionExport {
	return &models.CollectionExport{
		ExportedAt: time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC),
		Films: []models.Film{
			{ID: 1, Title: "Alien", Year: 1979, Director: "Ridley Scott", Duration: "117 min", Genre: "Horror", Seen: true},
			{ID: 2, Title: "Brazil, the director's cut", Year: 1985, Director: "Terry Gilliam"},
			{ID: 3, Title: "Untitled"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" text ", FormatText},
		{"txt", FormatText},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}

	if FormatMarkdown.Extension() != ".md" || FormatCSV.Extension() != ".csv" {
		t.Error("unexpected extensions")
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(lines))
		}
		if lines[0] != "ID,Title,Year,Director,Duration,Genre,Seen,Poster" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,Alien,1979,Ridley Scott,117 min,Horror,true," {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if !strings.Contains(lines[2], `"Brazil, the director's cut"`) {
			t.Errorf("expected quoted title, got %s", lines[2])
		}
		if lines[3] != "3,Untitled,,,,,false," {
			t.Errorf("expected empty year for unknown, got %s", lines[3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without posters", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), nil)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Film collection",
				"**Exported**: 2024-03-09 18:30:00",
				"**Films**: 3",
				"**Seen**: 1",
				"## Films",
				"- [x] Alien (1979) - Ridley Scott, Horror, 117 min",
				"- [ ] Brazil, the director's cut (1985) - Terry Gilliam",
				"- [ ] Untitled\n",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got: %s", want, output)
				}
			}
			if strings.Contains(output, "![") {
				t.Error("expected no images")
			}
		})

		t.Run("with posters", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), map[int64]string{1: "posters/1.jpg"})
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "  ![Alien](posters/1.jpg)") {
				t.Errorf("Markdown missing poster reference")
			}
		})

		t.Run("search heading", func(t *testing.T) {
			export := sampleExport()
			export.Search = "ali"
			data, _ := ExportToMarkdown(export, nil)
			if !strings.Contains(string(data), `# Films matching "ali"`) {
				t.Errorf("expected search heading, got: %s", data)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Film collection\n",
			"Films: 3 (seen 1)",
			"1. Alien (1979) [seen]",
			"3. Untitled\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.CollectionExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Films) != 3 || decoded.Films[0].Title != "Alien" {
			t.Errorf("unexpected films %+v", decoded.Films)
		}
		if !strings.Contains(string(data), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("Render Unknown", func(t *testing.T) {
		if _, err := Render(sampleExport(), Format("xml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("Creates Parent Directory", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out", "films.csv")

		if err := WriteExport(sampleExport(), FormatCSV, dest); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, dest)
		if !strings.HasPrefix(th.MustReadFile(t, dest), "ID,Title") {
			t.Error("expected CSV content")
		}
	})

	t.Run("Unwritable Path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := WriteExport(sampleExport(), FormatText, filepath.Join(blocker, "films.txt")); err == nil {
			t.Error("expected error writing below a regular file")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("image-bytes"))
		}))
		defer server.Close()

		data, err := DownloadImage(context.Background(), server.Client(), server.URL+"/p.jpg")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("unexpected data %q", data)
		}
	})

	t.Run("Empty URL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("Bad Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := DownloadImage(context.Background(), nil, server.URL)
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}

		_, err := DownloadImage(context.Background(), client, "http://example.com/p.jpg")
		if err == nil || !strings.Contains(err.Error(), "failed to read image data") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}

func TestWriteMarkdownExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("poster"))
	}))
	defer server.Close()

	export := sampleExport()
	export.Films[0].Poster = server.URL + "/alien.png?size=large"
	export.Films[1].Poster = server.URL + "/missing.png"

	t.Run("With Posters", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "md")

		result, err := WriteMarkdownExport(context.Background(), export, dir, true, server.Client(), nil)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.Posters != 1 {
			t.Errorf("expected 1 poster, got %d", result.Posters)
		}
		th.AssertFileExists(t, filepath.Join(dir, "posters", "1.png"))
		th.AssertFileExists(t, filepath.Join(dir, "README.md"))

		readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Alien](posters/1.png)") {
			t.Errorf("README missing poster link: %s", readme)
		}
		if strings.Contains(readme, "![Brazil") {
			t.Error("failed poster should not be linked")
		}
	})

	t.Run("Without Posters", func(t *testing.T) {
		dir := t.TempDir()

		result, err := WriteMarkdownExport(context.Background(), export, dir, false, nil, nil)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(result.Files) != 1 || result.Posters != 0 {
			t.Errorf("expected only README, got %v", result.Files)
		}
		if _, err := os.Stat(filepath.Join(dir, "posters")); !os.IsNotExist(err) {
			t.Error("poster directory should not be created")
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := WriteMarkdownExport(ctx, export, t.TempDir(), true, server.Client(), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
