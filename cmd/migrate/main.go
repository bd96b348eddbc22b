// Schema migration runner for the section and submission tables.
//
//	migrate up            apply all pending migrations
//	migrate down          roll everything back
//	migrate steps <n>     apply n migrations (negative rolls back)
//	migrate version       print current version and dirty flag
//	migrate force <v>     override a dirty version marker
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/prepline/examroom/internal/config"
)

func main() {
	var dir string
	flag.StringVar(&dir, "path", "migrations", "Path to migration files")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Migration init: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "up":
		report(m.Up(), "migrated up")
	case "down":
		report(m.Down(), "migrated down")
	case "steps":
		n := argInt(args, 1, "steps requires a count")
		report(m.Steps(n), fmt.Sprintf("stepped %d", n))
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("Version: %v", err)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	case "force":
		v := argInt(args, 1, "force requires a version")
		if err := m.Force(v); err != nil {
			log.Fatalf("Force: %v", err)
		}
		fmt.Printf("forced version to %d\n", v)
	default:
		usage()
	}
}

func report(err error, ok string) {
	switch {
	case err == nil:
		fmt.Println(ok)
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("no change")
	default:
		log.Fatalf("Migration: %v", err)
	}
}

func argInt(args []string, i int, missing string) int {
	if len(args) <= i {
		log.Fatal(missing)
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		log.Fatalf("Invalid number %q: %v", args[i], err)
	}
	return v
}

func usage() {
	fmt.Println("Usage: migrate [flags] <up|down|steps <n>|version|force <v>>")
	flag.PrintDefaults()
}
