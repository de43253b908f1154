package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"crewbase.org/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("CREWBASE_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "migrations/seeds", "Path to SQL seeds")
		timeout        = flag.Duration("timeout", 30*time.Second, "Overall command timeout")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or CREWBASE_PG_DSN")
	}
	cmd := flag.Arg(0)
	if cmd == "" {
		log.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)
	if err := run(ctx, mgr, cmd); err != nil {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
}

func run(ctx context.Context, mgr *migrate.Manager, cmd string) error {
	switch cmd {
	case "up":
		return mgr.Up(ctx)
	case "down":
		return mgr.Down(ctx)
	case "seed":
		return mgr.Seed(ctx)
	case "status":
		applied, err := mgr.Status(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("directory schema: no migrations applied")
			return nil
		}
		fmt.Printf("directory schema: %d migration(s) applied\n", len(applied))
		for i, name := range applied {
			fmt.Printf("%3d  %s\n", i+1, name)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
