// Command migrate applies goose migrations. It prefers the direct
// (non-pooled) connection for DDL; see dbmigrate.SelectDatabaseURL.
package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fitmenu/mealplanner/internal/config"
	"github.com/fitmenu/mealplanner/internal/dbmigrate"
)

var allowedCommands = map[string]bool{
	"up":     true,
	"down":   true,
	"status": true,
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: go run ./cmd/migrate [up|status|down]")
	}

	command := os.Args[1]
	if !allowedCommands[command] {
		log.Fatalf("unsupported command %q (allowed: up, status, down)", command)
	}

	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(config.Load(), false)
	if err != nil {
		log.Fatal(err)
	}
	if warning != "" {
		log.Printf("WARN migrate: %s", warning)
	}

	log.Printf("migrate: command=%s using=%s", command, source)
	if err := dbmigrate.Run(command, dbURL, dbmigrate.DefaultMigrationsDir); err != nil {
		log.Fatal(err)
	}
	log.Printf("migrate: %s completed successfully", command)
}
