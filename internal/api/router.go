package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ModelPath is where the pose classifier files are served from.
const ModelPath = "/my_model/"

// NewRouter wires the API, the websocket play endpoint, the game page, and the
// pose model files. play may be nil when only the REST endpoints are wanted;
// an empty modelDir serves no model.
func NewRouter(h *Handler, play http.Handler, page []byte, modelDir string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Route("/api", func(rr chi.Router) {
		rr.Post("/signup", h.Signup)
		rr.Post("/login", h.Login)
		rr.Post("/score", h.Score)
		rr.Get("/ranking", h.Ranking)
	})

	if play != nil {
		r.Handle("/ws/play", play)
	}

	if modelDir != "" {
		r.Handle(ModelPath+"*", http.StripPrefix(ModelPath, http.FileServer(http.Dir(modelDir))))
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
			)
		})
	}
}
