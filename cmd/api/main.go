package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crewbase.org/internal/directory"
	"crewbase.org/internal/httpapi"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/store/pg"
	"crewbase.org/internal/token"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	hasher := directory.Argon2Hasher{}

	// Postgres when a DSN is configured, in-memory otherwise. The memory
	// repository is for local development only.
	var (
		repo directory.Repository
		db   *sql.DB
	)
	if dsn := os.Getenv("CREWBASE_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn, hasher)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		repo = store
		db = store.DB()
	} else {
		log.Println("CREWBASE_PG_DSN not set, using in-memory repository")
		repo = directory.NewMemoryRepository(hasher)
	}

	var opts []directory.ServiceOption
	if os.Getenv("CREWBASE_BOOTSTRAP") == "1" {
		opts = append(opts, directory.WithBootstrapRegistration())
	}
	svc, err := directory.NewService(repo, opts...)
	if err != nil {
		log.Fatalf("directory service: %v", err)
	}

	secret := os.Getenv("CREWBASE_AUTH_SECRET")
	if secret == "" {
		log.Fatal("missing CREWBASE_AUTH_SECRET")
	}
	ttl := token.DefaultTTL
	if raw := os.Getenv("CREWBASE_TOKEN_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse CREWBASE_TOKEN_TTL: %v", err)
		}
		ttl = d
	}
	issuer, err := token.NewIssuer([]byte(secret), "crewbase", ttl)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	api := httpapi.New(svc, issuer, httpapi.ReadyProbe{DB: db}, version)

	handler := api.Handler()
	handler = httpapi.RateLimit(handler, 20, 10)
	handler = httpapi.MaxBodyBytes(handler, 1<<20)
	handler = httpapi.CORS(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.LoggingJSON(handler)
	handler = httpapi.RequestID(handler)

	addr := os.Getenv("CREWBASE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting crewbase-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
