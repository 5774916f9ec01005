// Film collection REST client
//
// Speaks the JSON API of the collection backend. Authenticated calls carry the session token as a
// bearer credential supplied by an [oauth2.TokenSource].
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/paging"
	"github.com/desertthunder/filmx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 15 * time.Second
)

var _ paging.Fetcher[models.Film] = (*FilmService)(nil)

// Options configures a [FilmService]. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting

	// Tokens supplies the bearer credential for every call except sign-in and sign-up.
	Tokens oauth2.TokenSource

	// OnUnauthorized runs whenever the backend answers 401, before the error is returned.
	OnUnauthorized func()

	Logger *log.Logger
}

// FilmService is the client for the film collection backend.
type FilmService struct {
	baseURL        string
	public         *http.Client
	authed         *http.Client
	limiter        *rate.Limiter
	onUnauthorized func()
	logger         *log.Logger
}

// NewFilmService validates the base URL and builds the public and authenticated HTTP clients.
func NewFilmService(opts Options) (*FilmService, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", shared.ErrInvalidConfig, base)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	public := opts.HTTPClient
	if public == nil {
		public = &http.Client{Timeout: timeout}
	}

	authed := public
	if opts.Tokens != nil {
		baseTransport := public.Transport
		if baseTransport == nil {
			baseTransport = http.DefaultTransport
		}
		authed = &http.Client{
			Timeout:       public.Timeout,
			Jar:           public.Jar,
			CheckRedirect: public.CheckRedirect,
			Transport:     &oauth2.Transport{Source: opts.Tokens, Base: baseTransport},
		}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &FilmService{
		baseURL:        strings.TrimRight(u.String(), "/"),
		public:         public,
		authed:         authed,
		limiter:        rate.NewLimiter(limit, 1),
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger,
	}, nil
}

// Name returns the service name.
func (s *FilmService) Name() string { return "film collection" }

// BaseURL returns the normalised API root.
func (s *FilmService) BaseURL() string { return s.baseURL }

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

// StatusCode returns the HTTP status.
func (e *APIError) StatusCode() int { return e.Status }

// Unwrap maps the status onto the shared sentinels so callers can use [errors.Is].
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return shared.ErrNotAuthenticated
	case http.StatusNotFound:
		return shared.ErrFilmNotFound
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// IsStatus reports whether err is an [APIError] with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// newAPIError reads {message, code} from a JSON error body. Anything else gets the generic message.
func newAPIError(resp *http.Response, body []byte, fallback string) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	if isJSON(resp.Header) {
		var payload struct {
			Message string          `json:"message"`
			Code    json.RawMessage `json:"code"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			apiErr.Message = payload.Message
			apiErr.Code = rawString(payload.Code)
		}
	}

	if apiErr.Message == "" {
		if fallback != "" {
			apiErr.Message = fallback
		} else {
			apiErr.Message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		}
	}
	return apiErr
}

func isJSON(h http.Header) bool {
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// rawString renders a JSON scalar without quotes. Backends send ids and codes as either numbers or strings.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type request struct {
	method   string
	path     string
	query    url.Values
	body     any
	public   bool
	fallback string // error message when the body carries none
}

// do sends req and decodes a JSON success body into out.
// Reports whether anything was decoded: 204 and non-JSON bodies decode to nothing.
func (s *FilmService) do(ctx context.Context, req request, out any) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := s.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return false, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", shared.GenerateID())

	client := s.authed
	if req.public {
		client = s.public
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		s.logger.Debug("request failed", "method", req.method, "path", req.path, "error", err)
		return false, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.Debug("request", "method", req.method, "path", req.path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp, data, req.fallback)
		if resp.StatusCode == http.StatusUnauthorized && !req.public && s.onUnauthorized != nil {
			s.logger.Warn("session rejected by backend", "path", req.path)
			s.onUnauthorized()
		}
		return false, apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || !isJSON(resp.Header) || len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}

// SignIn exchanges credentials for a session. The token is taken from the first non-empty of
// token, accessToken, jwt or access_token.
func (s *FilmService) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var payload struct {
		Token       string          `json:"token"`
		AccessToken string          `json:"accessToken"`
		JWT         string          `json:"jwt"`
		Access      string          `json:"access_token"`
		ID          json.RawMessage `json:"id"`
		Username    string          `json:"username"`
		Email       string          `json:"email"`
	}
	_, err := s.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/signin",
		body:     map[string]string{"username": creds.Username, "password": creds.Password},
		public:   true,
		fallback: "Login failed",
	}, &payload)
	if err != nil {
		return nil, err
	}

	token := firstNonEmpty(payload.Token, payload.AccessToken, payload.JWT, payload.Access)
	if token == "" {
		return nil, fmt.Errorf("%w: no token in login response", shared.ErrAuthFailed)
	}

	user := models.User{ID: rawString(payload.ID), Username: payload.Username, Email: payload.Email}
	if user.Username == "" {
		user.Username = creds.Username
	}
	return models.NewSession("", token, user), nil
}

// SignUp registers a new account. The backend answer is returned as the created user when it has one.
func (s *FilmService) SignUp(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if creds.Email == "" {
		return nil, &models.ValidationError{Field: "email", Reason: "required"}
	}

	var payload struct {
		ID       json.RawMessage `json:"id"`
		Username string          `json:"username"`
		Email    string          `json:"email"`
	}
	_, err := s.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/signup",
		body:     creds,
		public:   true,
		fallback: "Signup failed",
	}, &payload)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: rawString(payload.ID), Username: payload.Username, Email: payload.Email}
	if user.Username == "" {
		user.Username = creds.Username
		user.Email = creds.Email
	}
	return user, nil
}

func pageQuery(page, size int, sort paging.SortDirection) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	q.Set("sortDir", string(sort))
	return q
}

// Films returns one page of the collection sorted by title.
func (s *FilmService) Films(ctx context.Context, page, size int, sort paging.SortDirection) (*models.FilmPage, error) {
	var out models.FilmPage
	if _, err := s.do(ctx, request{method: http.MethodGet, path: "/films", query: pageQuery(page, size, sort)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchFilms returns one page of films whose title matches term.
func (s *FilmService) SearchFilms(ctx context.Context, term string, page, size int, sort paging.SortDirection) (*models.FilmPage, error) {
	q := pageQuery(page, size, sort)
	q.Set("title", strings.TrimSpace(term))

	var out models.FilmPage
	if _, err := s.do(ctx, request{method: http.MethodGet, path: "/films/search", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchPage implements [paging.Fetcher].
func (s *FilmService) FetchPage(ctx context.Context, page, size int, sort paging.SortDirection) (paging.Result[models.Film], error) {
	p, err := s.Films(ctx, page, size, sort)
	if err != nil {
		return paging.Result[models.Film]{}, err
	}
	return toResult(p), nil
}

// FetchSearch implements [paging.Fetcher].
func (s *FilmService) FetchSearch(ctx context.Context, term string, page, size int, sort paging.SortDirection) (paging.Result[models.Film], error) {
	p, err := s.SearchFilms(ctx, term, page, size, sort)
	if err != nil {
		return paging.Result[models.Film]{}, err
	}
	return toResult(p), nil
}

func toResult(p *models.FilmPage) paging.Result[models.Film] {
	items := p.Content
	if items == nil {
		items = []models.Film{}
	}
	return paging.Result[models.Film]{Items: items, TotalPages: p.TotalPages, TotalElements: p.TotalElements}
}

// AllFilms returns the whole collection in one call.
func (s *FilmService) AllFilms(ctx context.Context) ([]models.Film, error) {
	var out []models.Film
	if _, err := s.do(ctx, request{method: http.MethodGet, path: "/films/all"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LookupExternal queries the external film database by title and optional year.
// An empty answer is reported as [shared.ErrFilmNotFound].
func (s *FilmService) LookupExternal(ctx context.Context, title string, year int) (*models.Film, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &models.ValidationError{Field: "title", Reason: "required"}
	}

	var q url.Values
	if year > 0 {
		q = url.Values{"year": {strconv.Itoa(year)}}
	}

	var film models.Film
	ok, err := s.do(ctx, request{method: http.MethodGet, path: "/external/" + url.PathEscape(title), query: q}, &film)
	if err != nil {
		return nil, err
	}
	if !ok || film.Title == "" {
		return nil, fmt.Errorf("%w: %q", shared.ErrFilmNotFound, title)
	}
	return &film, nil
}

// InsertFilm adds a film to the collection. The backend answers 400 when the film is already present,
// which is reported as [shared.ErrFilmExists] alongside the backend message.
func (s *FilmService) InsertFilm(ctx context.Context, film models.Film) (*models.Film, error) {
	if err := film.Validate(); err != nil {
		return nil, err
	}

	var out models.Film
	ok, err := s.do(ctx, request{method: http.MethodPut, path: "/film", body: film}, &out)
	if err != nil {
		if IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", shared.ErrFilmExists, err)
		}
		return nil, err
	}
	if !ok {
		return &film, nil
	}
	return &out, nil
}

// UpdateFilm replaces a film's fields. Only the owner may edit; others get a 400 from the backend.
func (s *FilmService) UpdateFilm(ctx context.Context, film models.Film) (*models.Film, error) {
	if film.ID == 0 {
		return nil, &models.ValidationError{Field: "id", Reason: "required"}
	}
	if err := film.Validate(); err != nil {
		return nil, err
	}

	var out models.Film
	ok, err := s.do(ctx, request{method: http.MethodPatch, path: "/film/" + strconv.FormatInt(film.ID, 10), body: film}, &out)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &film, nil
	}
	return &out, nil
}

// SetSeen sends the whole film with its seen flag set to seen and returns the updated film.
func (s *FilmService) SetSeen(ctx context.Context, film models.Film, seen bool) (*models.Film, error) {
	if film.ID == 0 {
		return nil, &models.ValidationError{Field: "id", Reason: "required"}
	}
	film.Seen = seen

	var out models.Film
	ok, err := s.do(ctx, request{method: http.MethodPatch, path: "/filmseen/" + strconv.FormatInt(film.ID, 10), body: film}, &out)
	if err != nil {
		return nil, err
	}
	if !ok || out.ID == 0 {
		return &film, nil
	}
	return &out, nil
}

// DeleteFilm removes a film. The backend identifies it from the JSON body.
func (s *FilmService) DeleteFilm(ctx context.Context, film models.Film) error {
	if film.ID == 0 {
		return &models.ValidationError{Field: "id", Reason: "required"}
	}
	_, err := s.do(ctx, request{method: http.MethodDelete, path: "/film", body: film}, nil)
	return err
}

// RandomFilm draws a random unseen film from the collection.
func (s *FilmService) RandomFilm(ctx context.Context) (*models.Film, error) {
	var film models.Film
	ok, err := s.do(ctx, request{method: http.MethodGet, path: "/getrandomfilm"}, &film)
	if err != nil {
		return nil, err
	}
	if !ok || (film.ID == 0 && film.Title == "") {
		return nil, fmt.Errorf("%w: no unseen film available", shared.ErrFilmNotFound)
	}
	return &film, nil
}

// FindFilm scans the collection for id. The backend has no single-film read.
func (s *FilmService) FindFilm(ctx context.Context, id int64) (*models.Film, error) {
	films, err := s.AllFilms(ctx)
	if err != nil {
		return nil, err
	}
	for i := range films {
		if films[i].ID == id {
			return &films[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", shared.ErrFilmNotFound, id)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
