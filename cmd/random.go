package main

import (
	"context"
	"errors"

	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Random draws an unseen film and, with --mark-seen, marks it seen.
func (r *Runner) Random(ctx context.Context, cmd *cli.Command) error {
	films, err := r.authed(cmd)
	if err != nil {
		return err
	}

	film, err := films.RandomFilm(ctx)
	if errors.Is(err, shared.ErrFilmNotFound) {
		return r.writePlain("No unseen films left, time to look some up\n")
	}
	if err != nil {
		return err
	}

	if cmd.Bool("mark-seen") {
		if film, err = films.SetSeen(ctx, *film, true); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(film, true)
	}

	r.writePlainHeader("Tonight's film")
	r.writeFilmCard(*film)
	if film.Seen {
		return r.writePlainln("%q marked seen. Enjoy the film!", film.Title)
	}
	return nil
}
