package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/credential"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/repositories"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies that need the configuration (database, session store, film service) are opened on first use,
// after the global --config flag has been read.
type Runner struct {
	config     *shared.Config
	configPath string
	resolved   bool

	db       *sql.DB
	ownsDB   bool
	store    models.SessionStore
	provider *credential.Provider
	films    *services.FilmService
	lookups  *repositories.LookupRepository

	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // skips config file resolution when set
	ConfigPath string
	DB         *sql.DB             // owned by the caller
	Store      models.SessionStore // overrides session.backend
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	resolved := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		resolved:   resolved,
		db:         opts.DB,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, filmsCommand, lookupCommand, historyCommand, randomCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and anything it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database opened by the runner.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// prepare resolves the configuration from the global flags and applies the log level.
func (r *Runner) prepare(cmd *cli.Command) error {
	if !r.resolved {
		path := r.configPath
		if path == "" {
			path = cmd.String("config")
		}
		config, err := shared.ResolveConfig(path)
		if err != nil {
			return err
		}
		r.config = config
		r.configPath = path
		r.resolved = true
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		r.logger.Warn("unknown log level, keeping info", "level", r.config.Log.Level)
		level = log.InfoLevel
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return nil
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	r.logger.Debug("opening database", "path", r.config.Database.Path)
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.ownsDB = true
	return db, nil
}

func (r *Runner) sessionStore() (models.SessionStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	profile := r.config.Session.Profile
	switch r.config.Session.Backend {
	case shared.SessionBackendKeyring:
		ring, err := credential.OpenKeyring()
		if err != nil {
			return nil, err
		}
		r.store = credential.NewKeyringStore(ring, profile)
	default:
		db, err := r.database()
		if err != nil {
			return nil, err
		}
		r.store = repositories.NewSessionRepository(db, profile)
	}
	r.logger.Debug("session store ready", "backend", r.config.Session.Backend, "profile", profile)
	return r.store, nil
}

// connect builds the film service on top of the session store.
func (r *Runner) connect(cmd *cli.Command) (*services.FilmService, error) {
	if err := r.prepare(cmd); err != nil {
		return nil, err
	}
	if r.films != nil {
		return r.films, nil
	}

	store, err := r.sessionStore()
	if err != nil {
		return nil, err
	}
	r.provider = credential.NewProvider(store, r.logger)

	films, err := services.NewFilmService(services.Options{
		BaseURL:        r.config.API.BaseURL,
		Timeout:        r.config.API.Timeout(),
		RateLimit:      r.config.API.RateLimit,
		Tokens:         r.provider,
		OnUnauthorized: r.provider.Invalidate,
		Logger:         r.logger,
	})
	if err != nil {
		return nil, err
	}
	r.films = films
	return films, nil
}

// authed is connect for commands that need a signed-in session.
func (r *Runner) authed(cmd *cli.Command) (*services.FilmService, error) {
	films, err := r.connect(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := r.provider.Session(); err != nil {
		return nil, err
	}
	return films, nil
}

func (r *Runner) lookupHistory() (*repositories.LookupRepository, error) {
	if r.lookups != nil {
		return r.lookups, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.lookups = repositories.NewLookupRepository(db)
	return r.lookups, nil
}

// prompt writes label and reads one trimmed line from the input.
func (r *Runner) prompt(label string) (string, error) {
	if err := r.writePlain("%s", label); err != nil {
		return "", err
	}
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (r *Runner) confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	answer, err := r.prompt(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
