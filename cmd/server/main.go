/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the PERM deadline engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the rule set (defaults, or defaults merged with -rules)
  3. Build the engine on the system clock
  4. Initialize SQLite store
  5. Create API handler, router and deadline scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -db             SQLite database path (default: perm.db)
                  Use ":memory:" for in-memory database
  -rules          Rule-set override file, JSON or YAML (default: none)
  -scan-interval  Deadline scheduler period (default: 1h)
  -alert-days     Alert horizon in days (default: 30)
  -scheduler      Run the deadline scheduler (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/perm.db"

  # Run with in-memory database and a regulation override
  ./server -db=":memory:" -rules=./rules.yaml

  # Scan every 10 minutes, alert a week ahead
  ./server -scan-interval=10m -alert-days=7

ENVIRONMENT:
  No environment variables currently. All config via flags.

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Deadline scheduler
  - factory/rules.go: Rule-set override documents
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/perm-engine/api"
	"github.com/warp/perm-engine/factory"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
	"github.com/warp/perm-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "perm.db", "SQLite database path")
	rulesPath := flag.String("rules", "", "Rule-set override file (JSON or YAML)")
	scanInterval := flag.Duration("scan-interval", time.Hour, "Deadline scheduler period")
	alertDays := flag.Int("alert-days", 30, "Alert horizon in days")
	runScheduler := flag.Bool("scheduler", true, "Run the deadline scheduler")
	flag.Parse()

	// Rule set
	rules := perm.DefaultRuleSet()
	if *rulesPath != "" {
		loaded, err := factory.NewRuleSetFactory().LoadFile(*rulesPath)
		if err != nil {
			log.Fatalf("Failed to load rule set: %v", err)
		}
		rules = loaded
		log.Printf("[Rules] Loaded overrides from %s", *rulesPath)
	}

	engine, err := perm.NewEngine(rules, generic.SystemClock{})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, engine)

	// Create router
	router := api.NewRouter(handler)

	// Deadline scheduler
	scheduler := api.NewDeadlineScheduler(store, engine)
	scheduler.CheckInterval = *scanInterval
	scheduler.AlertDays = *alertDays
	scheduler.Enabled = *runScheduler
	handler.Scheduler = scheduler
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
