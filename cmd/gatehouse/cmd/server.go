package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jmcleod/gatehouse/api"
	"github.com/jmcleod/gatehouse/auth"
	"github.com/jmcleod/gatehouse/session"
	"github.com/jmcleod/gatehouse/store"
	bboltstore "github.com/jmcleod/gatehouse/store/bbolt"
	memstore "github.com/jmcleod/gatehouse/store/memory"
	pgstore "github.com/jmcleod/gatehouse/store/postgres"
	redisstore "github.com/jmcleod/gatehouse/store/redis"
)

var (
	port            int
	dataDir         string
	authType        string
	cookieName      string
	sessionDuration int
	hashCost        int
	excludedPaths   []string
	storeBackend    string
	sessionBackend  string
	redisAddr       string
	postgresDSN     string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the authentication service server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authType == "session" && cookieName == "" {
			return fmt.Errorf("session auth requires --session-cookie-name (or SESSION_NAME)")
		}

		hasher, err := auth.NewHasher(hashCost)
		if err != nil {
			return err
		}

		var (
			users    store.UserStore
			sessions store.SessionStore
		)
		switch storeBackend {
		case "bbolt":
			if err := os.MkdirAll(dataDir, 0o700); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			s, err := bboltstore.NewStoreFromFile(dataDir+"/gatehouse.db", nil)
			if err != nil {
				return fmt.Errorf("failed to open credential storage: %w", err)
			}
			defer s.Close()
			users, sessions = s, s
		case "postgres":
			s, err := pgstore.NewStoreFromDSN(cmd.Context(), postgresDSN)
			if err != nil {
				return fmt.Errorf("failed to open credential storage: %w", err)
			}
			defer s.Close()
			users, sessions = s, s
		case "memory":
			m := memstore.NewStore()
			users, sessions = m, m
		default:
			return fmt.Errorf("unknown store backend %q", storeBackend)
		}

		ttl := time.Duration(sessionDuration) * time.Second
		var registry session.Registry
		switch sessionBackend {
		case "memory":
			registry = session.NewExpiringRegistry(session.NewMemoryRegistry(), ttl)
		case "persistent":
			r := session.NewPersistentRegistry(sessions, ttl)
			defer r.Close()
			registry = r
		case "redis":
			client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
			r := session.NewPersistentRegistry(redisstore.NewStore(client, ttl), ttl)
			defer r.Close()
			registry = r
		default:
			return fmt.Errorf("unknown session backend %q", sessionBackend)
		}

		var guardOpts []auth.GuardOption
		switch authType {
		case "none":
		case "basic":
			guardOpts = append(guardOpts, auth.WithBasicAuth(users, hasher))
		case "session":
			guardOpts = append(guardOpts, auth.WithSessionAuth(registry, users, cookieName))
		default:
			return fmt.Errorf("unknown auth type %q", authType)
		}
		guard := auth.NewGuard(excludedPaths, guardOpts...)

		svc := auth.NewService(users, registry, hasher)
		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		a := api.New(svc, guard, cookieName, ttl, api.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(api.SecurityHeaders)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api/v1", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on port %d (auth: %s, sessions: %s)...\n", port, authType, sessionBackend)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// envString returns the environment value for key, or fallback if unset.
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt returns the integer environment value for key, or fallback when
// unset or unparseable (matching the original environment handling).
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
	serverCmd.Flags().StringVar(&authType, "auth-type", envString("AUTH_TYPE", "session"), "Authentication strategy: none, basic, or session")
	serverCmd.Flags().StringVar(&cookieName, "session-cookie-name", envString("SESSION_NAME", ""), "Name of the session cookie (required for session auth)")
	serverCmd.Flags().IntVar(&sessionDuration, "session-duration", envInt("SESSION_DURATION", 0), "Session time-to-live in seconds (0 = never expires)")
	serverCmd.Flags().IntVar(&hashCost, "hash-cost", 0, "bcrypt cost for password hashing (0 = library default)")
	serverCmd.Flags().StringSliceVar(&excludedPaths, "excluded-paths", nil, "Paths exempt from authentication (exact or trailing-* prefix rules)")
	serverCmd.Flags().StringVar(&storeBackend, "store", "bbolt", "Credential store backend: memory, bbolt, or postgres")
	serverCmd.Flags().StringVar(&postgresDSN, "postgres-dsn", envString("POSTGRES_DSN", ""), "PostgreSQL DSN for the postgres store backend")
	serverCmd.Flags().StringVar(&sessionBackend, "session-backend", "memory", "Session registry backend: memory, persistent, or redis")
	serverCmd.Flags().StringVar(&redisAddr, "redis-addr", envString("REDIS_ADDR", "localhost:6379"), "Redis address for the redis session backend")
}
