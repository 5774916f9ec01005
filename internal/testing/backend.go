package testing

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/filmx/internal/models"
)

// FilmBackend is an in-memory stand-in for the collection API, served under /api.
type FilmBackend struct {
	mu       sync.Mutex
	server   *httptest.Server
	films    []models.Film
	nextID   int64
	catalog  map[string]models.Film
	users    map[string]string
	token    string
	failures map[string]failure
	hits     map[string]int
}

type failure struct {
	status  int
	message string
}

// BackendToken is the bearer token handed out by the fake sign-in.
const BackendToken = "test-token"

// NewFilmBackend starts a backend seeded with films, closed when the test ends.
// Films without an id are numbered from 1.
func NewFilmBackend(t *testing.T, films ...models.Film) *FilmBackend {
	t.Helper()
	b := &FilmBackend{
		catalog:  map[string]models.Film{},
		users:    map[string]string{"alice": "secret"},
		token:    BackendToken,
		failures: map[string]failure{},
		hits:     map[string]int{},
	}
	for _, f := range films {
		b.nextID++
		if f.ID == 0 {
			f.ID = b.nextID
		}
		b.nextID = max(b.nextID, f.ID)
		b.films = append(b.films, f)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", b.signIn)
	mux.HandleFunc("POST /api/auth/signup", b.signUp)
	mux.HandleFunc("GET /api/films", b.authed(b.list))
	mux.HandleFunc("GET /api/films/search", b.authed(b.search))
	mux.HandleFunc("GET /api/films/all", b.authed(b.all))
	mux.HandleFunc("GET /api/external/{title}", b.authed(b.external))
	mux.HandleFunc("PUT /api/film", b.authed(b.insert))
	mux.HandleFunc("PATCH /api/film/{id}", b.authed(b.update))
	mux.HandleFunc("PATCH /api/filmseen/{id}", b.authed(b.seen))
	mux.HandleFunc("DELETE /api/film", b.authed(b.remove))
	mux.HandleFunc("GET /api/getrandomfilm", b.authed(b.random))

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

// URL is the API root to configure a client with.
func (b *FilmBackend) URL() string { return b.server.URL + "/api" }

// Films returns the stored collection.
func (b *FilmBackend) Films() []models.Film {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.films)
}

// AddCatalog makes a film discoverable through the external lookup.
func (b *FilmBackend) AddCatalog(f models.Film) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalog[strings.ToLower(f.Title)] = f
}

// FailNext makes the next request to path answer status with a JSON message.
func (b *FilmBackend) FailNext(path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = failure{status: status, message: message}
}

// Hits counts requests per URL path, including failed ones.
func (b *FilmBackend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *FilmBackend) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *FilmBackend) writeError(w http.ResponseWriter, status int, message string) {
	b.writeJSON(w, status, map[string]any{"message": message, "code": strconv.Itoa(status)})
}

// failed records the hit and reports whether an injected failure was written.
func (b *FilmBackend) failed(w http.ResponseWriter, r *http.Request) bool {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	f, ok := b.failures[r.URL.Path]
	delete(b.failures, r.URL.Path)
	b.mu.Unlock()

	if ok {
		b.writeError(w, f.status, f.message)
	}
	return ok
}

func (b *FilmBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if b.failed(w, r) {
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			b.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func (b *FilmBackend) signIn(w http.ResponseWriter, r *http.Request) {
	if b.failed(w, r) {
		return
	}
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	b.mu.Lock()
	pw, ok := b.users[body.Username]
	b.mu.Unlock()
	if !ok || pw != body.Password {
		b.writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	b.writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": b.token,
		"id":          1,
		"username":    body.Username,
		"email":       body.Username + "@example.com",
	})
}

func (b *FilmBackend) signUp(w http.ResponseWriter, r *http.Request) {
	if b.failed(w, r) {
		return
	}
	var body models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[body.Username]; ok {
		b.writeError(w, http.StatusBadRequest, "Username is already taken!")
		return
	}
	b.users[body.Username] = body.Password
	b.writeJSON(w, http.StatusOK, map[string]any{"message": "User registered successfully!"})
}

func pageParams(r *http.Request) (page, size int, desc bool) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	return page, size, r.URL.Query().Get("sortDir") == "desc"
}

func (b *FilmBackend) page(w http.ResponseWriter, r *http.Request, match func(models.Film) bool) {
	page, size, desc := pageParams(r)

	b.mu.Lock()
	var films []models.Film
	for _, f := range b.films {
		if match(f) {
			films = append(films, f)
		}
	}
	b.mu.Unlock()

	slices.SortStableFunc(films, func(x, y models.Film) int {
		if desc {
			return cmp.Compare(y.Title, x.Title)
		}
		return cmp.Compare(x.Title, y.Title)
	})

	total := len(films)
	start := min(page*size, total)
	end := min(start+size, total)
	content := films[start:end]
	if content == nil {
		content = []models.Film{}
	}

	b.writeJSON(w, http.StatusOK, models.FilmPage{
		Content:       content,
		TotalPages:    (total + size - 1) / size,
		TotalElements: total,
		Number:        page,
		Size:          size,
	})
}

func (b *FilmBackend) list(w http.ResponseWriter, r *http.Request) {
	b.page(w, r, func(models.Film) bool { return true })
}

func (b *FilmBackend) search(w http.ResponseWriter, r *http.Request) {
	term := strings.ToLower(r.URL.Query().Get("title"))
	b.page(w, r, func(f models.Film) bool { return strings.Contains(strings.ToLower(f.Title), term) })
}

func (b *FilmBackend) all(w http.ResponseWriter, _ *http.Request) {
	b.writeJSON(w, http.StatusOK, b.Films())
}

func (b *FilmBackend) external(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	f, ok := b.catalog[strings.ToLower(r.PathValue("title"))]
	b.mu.Unlock()

	if year := r.URL.Query().Get("year"); ok && year != "" && year != strconv.Itoa(f.Year) {
		ok = false
	}
	if !ok {
		b.writeError(w, http.StatusNotFound, "Film not found")
		return
	}
	b.writeJSON(w, http.StatusOK, f)
}

func (b *FilmBackend) insert(w http.ResponseWriter, r *http.Request) {
	var f models.Film
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.films {
		if strings.EqualFold(existing.Title, f.Title) && existing.Year == f.Year {
			b.writeError(w, http.StatusBadRequest, fmt.Sprintf("Film %q already present", f.Title))
			return
		}
	}
	b.nextID++
	f.ID = b.nextID
	b.films = append(b.films, f)
	b.writeJSON(w, http.StatusOK, f)
}

func (b *FilmBackend) replace(w http.ResponseWriter, r *http.Request, apply func(stored *models.Film, body models.Film)) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		b.writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	var body models.Film
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.films, func(f models.Film) bool { return f.ID == id })
	if i < 0 {
		b.writeError(w, http.StatusNotFound, "Film not found")
		return
	}
	apply(&b.films[i], body)
	b.writeJSON(w, http.StatusOK, b.films[i])
}

func (b *FilmBackend) update(w http.ResponseWriter, r *http.Request) {
	b.replace(w, r, func(stored *models.Film, body models.Film) {
		body.ID = stored.ID
		*stored = body
	})
}

func (b *FilmBackend) seen(w http.ResponseWriter, r *http.Request) {
	b.replace(w, r, func(stored *models.Film, body models.Film) { stored.Seen = body.Seen })
}

func (b *FilmBackend) remove(w http.ResponseWriter, r *http.Request) {
	var f models.Film
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.films, func(x models.Film) bool { return x.ID == f.ID })
	if i < 0 {
		b.writeError(w, http.StatusNotFound, "Film not found")
		return
	}
	b.films = slices.Delete(b.films, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

// random answers the first unseen film in insertion order.
func (b *FilmBackend) random(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.films {
		if !f.Seen {
			b.writeJSON(w, http.StatusOK, f)
			return
		}
	}
	b.writeError(w, http.StatusNotFound, "No unseen films")
}
