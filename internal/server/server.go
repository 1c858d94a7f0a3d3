package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"bank-ledger/internal/config"
	"bank-ledger/internal/events"
	eventskafka "bank-ledger/internal/events/kafka"
	"bank-ledger/internal/handler"
	"bank-ledger/internal/middleware"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router    *mux.Router
	server    *http.Server
	db        *sql.DB
	publisher events.Publisher
	logger    *slog.Logger
	port      string

	Ledger    *service.LedgerService
	Accounts  *service.AccountService
	Reporting *service.ReportingService
}

// NewServer creates a new server instance. logger must be non-nil.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// Initialize database connection
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test database connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Successfully connected to database")

	// Event publisher is optional; ledger operations work without a broker.
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = eventskafka.NewPublisher(cfg.KafkaBrokers)
		logger.Info("Kafka event publishing enabled", "brokers", cfg.KafkaBrokers)
	}

	// Initialize store (Unit of Work)
	store := repository.NewStore(db, logger)

	// Initialize services
	ledgerService := service.NewLedgerService(store, service.UUIDRefID, publisher, logger)
	accountService := service.NewAccountService(store, service.UUIDRefID, logger)
	beneficiaryService := service.NewBeneficiaryService(store, logger)
	reportingService := service.NewReportingService(store, logger)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService)
	beneficiaryHandler := handler.NewBeneficiaryHandler(beneficiaryService)
	transactionHandler := handler.NewTransactionHandler(ledgerService, reportingService)

	// Setup router
	router := mux.NewRouter()

	// Add middleware for logging
	router.Use(loggingMiddleware(logger))

	// Idempotency protection is optional and lives entirely outside the
	// ledger engine.
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		router.Use(middleware.Idempotency(rdb, logger))
		logger.Info("Idempotency middleware enabled", "redis_addr", cfg.RedisAddr)
	}

	// Account routes
	router.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	router.HandleFunc("/accounts", accountHandler.ListAccounts).Methods("GET")
	router.HandleFunc("/accounts/{account_number}", accountHandler.GetAccount).Methods("GET")
	router.HandleFunc("/accounts/{account_number}", accountHandler.UpdateAccount).Methods("PUT")
	router.HandleFunc("/accounts/{account_number}/status", accountHandler.UpdateAccountStatus).Methods("PUT")
	router.HandleFunc("/accounts/{account_number}", accountHandler.CloseAccount).Methods("DELETE")
	router.HandleFunc("/accounts/{account_number}/transactions", transactionHandler.ListTransactions).Methods("GET")

	// Beneficiary routes
	router.HandleFunc("/accounts/{account_number}/beneficiaries", beneficiaryHandler.ListBeneficiaries).Methods("GET")
	router.HandleFunc("/accounts/{account_number}/beneficiaries", beneficiaryHandler.AddBeneficiary).Methods("POST")
	router.HandleFunc("/accounts/{account_number}/beneficiaries/{id:[0-9]+}", beneficiaryHandler.GetBeneficiary).Methods("GET")
	router.HandleFunc("/accounts/{account_number}/beneficiaries/{id:[0-9]+}", beneficiaryHandler.RemoveBeneficiary).Methods("DELETE")

	// Ledger operation routes
	router.HandleFunc("/transactions/deposit", transactionHandler.Deposit).Methods("POST")
	router.HandleFunc("/transactions/withdraw", transactionHandler.Withdraw).Methods("POST")
	router.HandleFunc("/transactions/transfer", transactionHandler.Transfer).Methods("POST")
	router.HandleFunc("/transactions/{id:[0-9]+}", transactionHandler.GetTransaction).Methods("GET")

	// Reporting routes
	router.HandleFunc("/reports/daily-summary", transactionHandler.DailySummary).Methods("GET")
	router.HandleFunc("/reports/transactions", transactionHandler.TransactionReport).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check database connectivity in health check
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router:    router,
		db:        db,
		publisher: publisher,
		logger:    logger,
		Ledger:    ledgerService,
		Accounts:  accountService,
		Reporting: reportingService,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	// Create HTTP server
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	// Start server in background
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", "error", err)
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if s.publisher != nil {
		s.publisher.Close()
	}

	// Close database connection
	if s.db != nil {
		s.db.Close()
	}

	// Shutdown HTTP server
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Initialize logger - use io.Discard for tests to avoid noise
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - use discard logger
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		// Production environment - use stdout
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	// Start the server and get the actual port
	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
