package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/paging"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// filmPage is the JSON shape of `films list --json`.
type filmPage struct {
	Query         paging.Query  `json:"query"`
	Searching     bool          `json:"searching"`
	TotalPages    int           `json:"totalPages"`
	TotalElements int           `json:"totalElements"`
	Films         []models.Film `json:"films"`
}

// FilmsList prints one page of the collection through a [paging.Controller], the same way the TUI loads it.
func (r *Runner) FilmsList(ctx context.Context, cmd *cli.Command) error {
	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	sort, err := paging.ParseSortDirection(cmd.String("sort"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	size := cmd.Int("size")
	if size == 0 {
		size = r.config.UI.PageSize
	}
	page := cmd.Int("page")
	if page < 1 {
		return fmt.Errorf("%w: --page starts at 1", shared.ErrInvalidFlag)
	}

	ctrl, err := paging.New[models.Film](films,
		paging.WithPageSizes(shared.PageSizes...),
		paging.WithPageSize(size),
		paging.WithSort(sort),
		paging.WithMinSearchLength(r.config.UI.MinSearchLength),
		paging.WithLogger(r.logger),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	defer ctrl.Close()

	fetch := ctrl.Reload()
	if term := cmd.String("search"); term != "" {
		ctrl.SetSearchTerm(term)
		if f := ctrl.CommitSearch(); f != nil {
			fetch = f
		}
	}
	if err := fetch.Run(ctx); err != nil {
		return err
	}

	if page > 1 {
		f := ctrl.SetPage(page - 1)
		if f == nil {
			return fmt.Errorf("%w: page %d of %d", shared.ErrInvalidFlag, page, ctrl.Snapshot().Result.TotalPages)
		}
		if err := f.Run(ctx); err != nil {
			return err
		}
	}

	view := ctrl.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(filmPage{
			Query:         view.Query,
			Searching:     view.Searching,
			TotalPages:    view.Result.TotalPages,
			TotalElements: view.Result.TotalElements,
			Films:         view.Result.Items,
		}, true)
	}

	heading := "Films"
	if view.Searching {
		heading = fmt.Sprintf("Films matching %q", view.Query.Search)
	}
	r.writePlainHeader(heading)
	if len(view.Result.Items) == 0 {
		return r.writePlain("No films found\n")
	}
	r.writeFilms(view.Result.Items)

	order := "A→Z"
	if view.Query.Sort == paging.Desc {
		order = "Z→A"
	}
	return r.writePlainln("Page %d/%d · %d per page · %s · %d films",
		view.Query.Page+1, max(view.Result.TotalPages, 1), view.Query.PageSize, order, view.Result.TotalElements)
}

// FilmsAll prints the whole collection in one request.
func (r *Runner) FilmsAll(ctx context.Context, cmd *cli.Command) error {
	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	all, err := films.AllFilms(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("unseen") {
		unseen := make([]models.Film, 0, len(all))
		for _, f := range all {
			if !f.Seen {
				unseen = append(unseen, f)
			}
		}
		all = unseen
	}

	if cmd.Bool("json") {
		return r.writeJSON(all, true)
	}

	r.writePlainHeader("Collection")
	if len(all) == 0 {
		return r.writePlain("No films found\n")
	}
	r.writeFilms(all)

	seen := (&models.CollectionExport{Films: all}).SeenCount()
	return r.writePlainln("%d films · %d seen · %d to watch", len(all), seen, len(all)-seen)
}

// FilmsAdd inserts a film typed on the command line.
func (r *Runner) FilmsAdd(ctx context.Context, cmd *cli.Command) error {
	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	film := models.Film{}
	applyFilmFlags(cmd, &film)

	added, err := films.InsertFilm(ctx, film)
	if errors.Is(err, shared.ErrFilmExists) {
		r.logger.Warn("film already present", "title", film.Title, "year", film.Year)
		return fmt.Errorf("%w: %s", shared.ErrFilmExists, film.Label())
	}
	if err != nil {
		return err
	}

	r.logger.Info("film added", "id", added.ID, "title", added.Title)
	return r.writePlain("✓ Added %s (#%d)\n", added.Label(), added.ID)
}

// FilmsEdit changes only the fields given as flags.
func (r *Runner) FilmsEdit(ctx context.Context, cmd *cli.Command) error {
	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	film, err := films.FindFilm(ctx, cmd.Int64("id"))
	if err != nil {
		return err
	}

	before := *film
	applyFilmFlags(cmd, film)
	if *film == before {
		return r.writePlain("Nothing to change for %s\n", film.Label())
	}

	updated, err := films.UpdateFilm(ctx, *film)
	if err != nil {
		return explainChange("edit", before, err)
	}
	return r.writePlain("✓ Updated %s\n", updated.Label())
}

// FilmsDelete removes a film after confirmation.
func (r *Runner) FilmsDelete(ctx context.Context, cmd *cli.Command) error {
	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	film, err := films.FindFilm(ctx, cmd.Int64("id"))
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		ok, err := r.confirm(ctx, fmt.Sprintf("Delete %q?", film.Label()))
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlain("Cancelled\n")
		}
	}

	if err := films.DeleteFilm(ctx, *film); err != nil {
		return explainChange("delete", *film, err)
	}
	r.logger.Info("film deleted", "id", film.ID, "title", film.Title)
	return r.writePlain("✓ Deleted %s\n", film.Label())
}

// FilmsSeen sets or clears the seen flag.
func (r *Runner) FilmsSeen(ctx context.Context, cmd *cli.Command) error {
	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	film, err := films.FindFilm(ctx, cmd.Int64("id"))
	if err != nil {
		return err
	}

	seen := !cmd.Bool("unset")
	updated, err := films.SetSeen(ctx, *film, seen)
	if err != nil {
		return explainChange("update", *film, err)
	}

	if updated.Seen {
		return r.writePlain("✓ %q marked seen\n", updated.Title)
	}
	return r.writePlain("✓ %q marked to watch\n", updated.Title)
}

// applyFilmFlags copies every film flag that was set onto f.
func applyFilmFlags(cmd *cli.Command, f *models.Film) {
	if cmd.IsSet("title") {
		f.Title = cmd.String("title")
	}
	if cmd.IsSet("year") {
		f.Year = cmd.Int("year")
	}
	if cmd.IsSet("director") {
		f.Director = cmd.String("director")
	}
	if cmd.IsSet("duration") {
		f.Duration = cmd.String("duration")
	}
	if cmd.IsSet("genre") {
		f.Genre = cmd.String("genre")
	}
	if cmd.IsSet("poster") {
		f.Poster = cmd.String("poster")
	}
	if cmd.IsSet("seen") {
		f.Seen = cmd.Bool("seen")
	}
}

// explainChange surfaces the backend message of a rejected change. The backend answers 400 when the film
// belongs to another user.
func explainChange(action string, film models.Film, err error) error {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		return fmt.Errorf("%w: cannot %s %s: %s", shared.ErrInvalidInput, action, film.Label(), apiErr.Message)
	}
	return fmt.Errorf("failed to %s %s: %w", action, film.Label(), err)
}

func (r *Runner) writeFilms(films []models.Film) {
	width := 0
	for _, f := range films {
		width = max(width, len(f.Label()))
	}

	for _, f := range films {
		mark := "[ ]"
		if f.Seen {
			mark = "[x]"
		}
		details := strings.Join(nonEmpty(f.Director, f.Genre, f.Duration), " • ")
		r.writePlain("%5s  %s %-*s  %s\n", fmt.Sprintf("#%d", f.ID), mark, width, f.Label(), details)
	}
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
