package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application/analysis"
	appusers "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application/users"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/auth"
	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	domusers "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/middleware"
)

type Router struct {
	analyses *appanalysis.Service
	users    *appusers.Service
}

type Options struct {
	Tokens  *auth.Manager
	Limiter *middleware.RateLimiter
	Health  map[string]middleware.HealthChecker
}

func NewRouter(analyses *appanalysis.Service, users *appusers.Service, opts Options) http.Handler {
	r := &Router{analyses: analyses, users: users}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/auth/register", r.wrap(r.handleRegister))
		rt.Post("/auth/login", r.wrap(r.handleLogin))

		rt.Group(func(protected chi.Router) {
			protected.Use(middleware.SessionAuth(opts.Tokens))

			protected.Post("/auth/logout", r.wrap(r.handleLogout))
			protected.Get("/me", r.wrap(r.handleMe))

			protected.Get("/analyses", r.wrap(r.handleHistory))
			protected.Get("/analyses/{id}", r.wrap(r.handleGet))
			protected.Get("/preferences/language", r.wrap(r.handleGetLanguage))
			protected.Put("/preferences/language", r.wrap(r.handleSetLanguage))

			protected.Group(func(metered chi.Router) {
				if opts.Limiter != nil {
					metered.Use(opts.Limiter.Limit)
				}
				metered.Post("/analyses", r.wrap(r.handleAnalyze))
			})
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			http.Error(w, err.Error(), statusFor(err))
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domusers.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domusers.ErrIdentityExists):
		return http.StatusConflict
	case errors.Is(err, domusers.ErrWeakSecret), errors.Is(err, domusers.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPDFParse):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrExtractionService),
		errors.Is(err, domain.ErrExtractionParse),
		errors.Is(err, domain.ErrExtractionSchema):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

type authResponse struct {
	Token string         `json:"token"`
	User  *domusers.User `json:"user"`
}

// POST /v1/auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return domusers.ErrMissingFields
	}
	if err := middleware.ValidateEmail(body.Email); err != nil {
		return domusers.ErrMissingFields
	}

	user, token, err := r.users.Register(req.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// POST /v1/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return domusers.ErrInvalidCredentials
	}

	user, token, err := r.users.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// POST /v1/auth/logout. The session lives in the bearer token; logout is the
// client discarding it. The endpoint exists so the flow has a server hook.
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, middleware.UserFromContext(req.Context()))
}

// POST /v1/analyses accepts multipart: file + optional language (falls back
// to the user's stored preference)
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	user := middleware.UserFromContext(req.Context())

	if err := req.ParseMultipartForm(middleware.MaxUploadBytes); err != nil {
		return fmt.Errorf("parse upload: %w", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("file field is required")
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if err := middleware.ValidateUploadType(mimeType); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, mimeType)
	}

	data, err := io.ReadAll(io.LimitReader(file, middleware.MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) > middleware.MaxUploadBytes {
		return fmt.Errorf("upload exceeds %d bytes", middleware.MaxUploadBytes)
	}

	lang := domain.Language(req.FormValue("language"))
	if lang == "" {
		lang, _ = r.users.Language(req.Context(), user.ID)
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	rec, err := r.analyses.Analyze(req.Context(), appanalysis.AnalyzeCommand{
		UserID:   user.ID,
		FileName: header.Filename,
		MIMEType: mimeType,
		Data:     data,
		Language: lang,
	})
	if err != nil {
		// extraction can succeed while the history write fails; the client
		// still gets the record it paid for, flagged as unsaved
		if rec != nil && errors.Is(err, domain.ErrStorage) {
			log.Printf("analysis %s extracted but not persisted: %v", rec.ID, err)
			w.Header().Set("X-History-Saved", "false")
			return writeJSON(w, http.StatusCreated, rec)
		}
		middleware.IncrementAnalysesFailed()
		return err
	}
	return writeJSON(w, http.StatusCreated, rec)
}

// GET /v1/analyses?q=&limit=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	user := middleware.UserFromContext(req.Context())
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analyses.History(req.Context(), user.ID, req.URL.Query().Get("q"), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	user := middleware.UserFromContext(req.Context())
	id := chi.URLParam(req, "id")

	rec, err := r.analyses.Get(req.Context(), user.ID, domain.RecordID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// GET /v1/preferences/language
func (r *Router) handleGetLanguage(w http.ResponseWriter, req *http.Request) error {
	user := middleware.UserFromContext(req.Context())
	lang, err := r.users.Language(req.Context(), user.ID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]domain.Language{"language": lang})
}

// PUT /v1/preferences/language
func (r *Router) handleSetLanguage(w http.ResponseWriter, req *http.Request) error {
	user := middleware.UserFromContext(req.Context())
	var body struct {
		Language domain.Language `json:"language"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid body")
	}
	if err := r.users.SetLanguage(req.Context(), user.ID, body.Language); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]domain.Language{"language": body.Language})
}
