package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/events"
	"github.com/neurondb/NeuronFlow/internal/injector"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/metrics"
	"github.com/neurondb/NeuronFlow/internal/middleware"
	"github.com/neurondb/NeuronFlow/internal/response"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

// RouterDeps collects everything the HTTP surface is built from
type RouterDeps struct {
	Logger       *logging.Logger
	Validator    *validation.Validator
	NodePaths    NodePathService
	Participants ParticipantService
	Container    *injector.Container
	Hub          *events.Hub
	DB           HealthChecker

	/* Auth may be nil to leave /api/v1 open */
	Auth        func(http.Handler) http.Handler
	RateLimiter *middleware.RateLimiter
	CORS        config.CORSConfig

	TempDir        string
	MaxUploadBytes int64
	MaxBodyBytes   int64
	DiskPath       string
}

// NewRouter builds the full HTTP handler
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	validator := d.Validator
	if validator == nil {
		validator = validation.New()
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteFailure(w, r, http.StatusNotFound, response.CodeNotFound, "route not found", nil)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteFailure(w, r, http.StatusMethodNotAllowed, response.CodeMethodNotAllowed, "method not allowed", nil)
	})

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.TracingMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	health := NewHealthHandlers(d.DB, d.Container, d.DiskPath)
	router.HandleFunc("/health", handle(logger, health.Health)).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	if d.Auth != nil {
		api.Use(d.Auth)
	}
	if d.RateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(d.RateLimiter))
	}
	if d.MaxBodyBytes > 0 {
		api.Use(middleware.RequestSizeMiddleware(d.MaxBodyBytes))
	}

	if d.NodePaths != nil {
		nodePaths := NewNodePathHandlers(validator, d.NodePaths)

		/* Literal segments must be registered before {id} */
		api.HandleFunc("/node-paths/search", handle(logger, nodePaths.Search)).Methods(http.MethodGet)
		if d.Hub != nil {
			streams := NewStreamHandlers(d.Hub, func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.AllowedOrigin(d.CORS.AllowedOrigins, origin) != ""
			}, logger)
			api.HandleFunc("/node-paths/ws", handle(logger, streams.NodePathEvents)).Methods(http.MethodGet)
		}
		api.HandleFunc("/node-paths", handle(logger, nodePaths.Create)).Methods(http.MethodPost)
		api.HandleFunc("/node-paths/{id}", handle(logger, nodePaths.GetByID)).Methods(http.MethodGet)
		api.HandleFunc("/node-paths/{id}", handle(logger, nodePaths.Update)).Methods(http.MethodPut, http.MethodPatch)
		api.HandleFunc("/node-paths/{id}", handle(logger, nodePaths.Delete)).Methods(http.MethodDelete)
		api.HandleFunc("/node-paths/{id}/next-node/{nextNodeId}", handle(logger, nodePaths.SetNextNode)).Methods(http.MethodPut)
		api.HandleFunc("/nodes/{nodeId}/paths", handle(logger, nodePaths.ListByParent)).Methods(http.MethodGet)
	}

	if d.Participants != nil {
		participants := NewParticipantHandlers(validator, d.Participants)
		api.HandleFunc("/participants", handle(logger, participants.Create)).Methods(http.MethodPost)
		api.HandleFunc("/participants/{id}", handle(logger, participants.GetByID)).Methods(http.MethodGet)
		api.HandleFunc("/clients/{clientId}/participants", handle(logger, participants.ListByClient)).Methods(http.MethodGet)
	}

	files := NewFileHandlers(d.Container, d.TempDir, d.MaxUploadBytes, logger)
	api.HandleFunc("/files", handle(logger, files.Upload)).Methods(http.MethodPost)
	api.HandleFunc("/files/{key:.+}", handle(logger, files.Download)).Methods(http.MethodGet)
	api.HandleFunc("/files/{key:.+}", handle(logger, files.Delete)).Methods(http.MethodDelete)

	return middleware.CORSMiddleware(d.CORS)(router)
}
