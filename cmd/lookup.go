package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Lookup queries the external film database and optionally adds the result.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(cmd.StringArg("title"))
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}
	year := cmd.Int("year")
	if year < 0 {
		return fmt.Errorf("%w: --year %d", shared.ErrInvalidFlag, year)
	}

	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("external lookup", "title", title, "year", year)
	film, err := films.LookupExternal(ctx, title, year)
	r.recordLookup(title, year, err == nil)

	if errors.Is(err, shared.ErrFilmNotFound) {
		r.writePlain("Film not found in the external database\n")
		return r.writePlain("Add it manually with 'filmx films add --title %q'\n", title)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(film, true); err != nil {
			return err
		}
	} else {
		r.writePlain("✓ Film %q found\n", film.Title)
		r.writeFilmCard(*film)
	}

	if !cmd.Bool("add") {
		return nil
	}

	added, err := films.InsertFilm(ctx, *film)
	if errors.Is(err, shared.ErrFilmExists) {
		return r.writePlain("Film already present\n")
	}
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s added to the collection (#%d)\n", added.Label(), added.ID)
}

// recordLookup keeps the lookup in the history. A broken history never fails the lookup.
func (r *Runner) recordLookup(title string, year int, found bool) {
	history, err := r.lookupHistory()
	if err != nil {
		r.logger.Warn("lookup history unavailable", "error", err)
		return
	}
	entry := &models.Lookup{Profile: r.config.Session.Profile, Title: title, Year: year, Found: found}
	if err := history.Record(entry); err != nil {
		r.logger.Warn("failed to record lookup", "title", title, "error", err)
	}
}

// History lists or clears the lookups of the configured profile.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}
	history, err := r.lookupHistory()
	if err != nil {
		return err
	}
	profile := r.config.Session.Profile

	if cmd.Bool("clear") {
		n, err := history.Clear(profile)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Cleared %d lookups for profile %s\n", n, profile)
	}

	lookups, err := history.Recent(profile, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lookups, true)
	}

	r.writePlainHeader("Recent lookups")
	if len(lookups) == 0 {
		return r.writePlain("No lookups yet\n")
	}
	for _, l := range lookups {
		mark := "✗"
		if l.Found {
			mark = "✓"
		}
		label := l.Title
		if l.Year > 0 {
			label = fmt.Sprintf("%s (%d)", l.Title, l.Year)
		}
		r.writePlain("%s  %s %s\n", l.LookedUpAt.Local().Format("2006-01-02 15:04"), mark, label)
	}
	return nil
}

func (r *Runner) writeFilmCard(f models.Film) {
	r.writePlain("  %s\n", f.Label())
	for _, field := range []struct{ name, value string }{
		{"Director", f.Director},
		{"Genre", f.Genre},
		{"Duration", f.Duration},
		{"Poster", f.Poster},
	} {
		if field.value != "" {
			r.writePlain("  %-9s %s\n", field.name+":", field.value)
		}
	}
}
