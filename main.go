package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/api"
	"github.com/aliveriver/ConvertAgent/internal/core"
	"github.com/aliveriver/ConvertAgent/internal/jobs"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
)

var version = "dev"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New(version)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	// The backend may not be up yet; a failed check here is a warning,
	// not a startup error. The UI reflects the live status.
	checkCtx, cancelCheck := context.WithTimeout(context.Background(), 5*time.Second)
	if err := app.Agent().CheckCompatibility(checkCtx, app.Config().Backend.MinVersion); err != nil {
		log.Printf("Warning: backend check failed: %v", err)
	}
	cancelCheck()

	// Watch the uploads directory so externally added or removed files
	// show up in the UI without a manual refresh.
	watcher := uploads.NewWatcher(app.Uploads(), func() {
		app.WsHub().BroadcastJSON(map[string]string{"event": "uploads_changed"})
	})
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: failed to start uploads watcher: %v", err)
	} else {
		defer watcher.Stop()
	}

	// Start the periodic uploads cleanup
	scheduler := jobs.StartScheduler(app)
	defer scheduler.Stop()

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
