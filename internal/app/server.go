package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "tush00nka/bbbab_conversations/docs"
	"tush00nka/bbbab_conversations/internal/handler"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/logger"
	"tush00nka/bbbab_conversations/internal/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Handlers groups the API handlers. Attachment is nil when no object
// storage is configured.
type Handlers struct {
	User         *handler.UserHandler
	Conversation *handler.ConversationHandler
	Attachment   *handler.AttachmentHandler
	Stream       *handler.StreamHandler
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	log     logrus.FieldLogger
}

func NewServer(
	h Handlers,
	tokens *auth.TokenManager,
	m *metrics.Metrics,
	storagePing func(ctx context.Context) error,
	origins []string,
	log logrus.FieldLogger,
) *Server {
	router := mux.NewRouter()
	router.Use(logger.Middleware(log), m.Middleware)

	router.HandleFunc("/ping", handler.Serve(handler.Ping(storagePing))).Methods("GET")
	router.Handle("/metrics", m.Handler()).Methods("GET")

	// Настройка Swagger
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Важно: относительный путь
	))

	// Routes
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(tokens, log))
	h.User.RegisterRoutes(api)
	h.Conversation.RegisterRoutes(api)
	if h.Attachment != nil {
		h.Attachment.RegisterRoutes(api)
	}
	if h.Stream != nil {
		h.Stream.RegisterRoutes(api)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)

	return &Server{router: router, handler: cors(router), log: log}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, port string) error {
	srv := &http.Server{
		Handler:      s.handler,
		Addr:         ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("port", port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
