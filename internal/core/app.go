package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/aliveriver/ConvertAgent/internal/agent"
	"github.com/aliveriver/ConvertAgent/internal/assets"
	"github.com/aliveriver/ConvertAgent/internal/config"
	"github.com/aliveriver/ConvertAgent/internal/db"
	"github.com/aliveriver/ConvertAgent/internal/jobs"
	"github.com/aliveriver/ConvertAgent/internal/progress"
	"github.com/aliveriver/ConvertAgent/internal/store"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
	"github.com/aliveriver/ConvertAgent/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	cfg        *config.Config
	database   *sql.DB
	st         *store.Store
	hub        *websocket.Hub
	ups        *uploads.Service
	agentCli   *agent.Client
	consumer   *progress.Consumer
	jobManager *jobs.Manager
	version    string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running
// migrations.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg, version)
}

// NewWithConfig wires an App from an already-loaded config. Tests use it
// to inject fake backend origins and temp directories.
func NewWithConfig(cfg *config.Config, version string) (*App, error) {
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	ups, err := uploads.New(cfg.Uploads.Path)
	if err != nil {
		database.Close()
		return nil, err
	}

	hub := websocket.NewHub()
	go hub.Run()

	consumer := progress.New(cfg.Backend.Origin)
	consumer.SetOnChange(func(snap progress.Snapshot) {
		hub.BroadcastJSON(snap.View(cfg.Backend.Origin))
	})

	jobManager := jobs.NewManager()
	jobs.RegisterAll(jobManager)

	app := &App{
		cfg:        cfg,
		database:   database,
		st:         store.New(database),
		hub:        hub,
		ups:        ups,
		agentCli:   agent.New(cfg.Backend.Origin),
		consumer:   consumer,
		jobManager: jobManager,
		version:    version,
	}

	log.Println("Core application setup complete.")
	return app, nil
}

func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) DB() *sql.DB                  { return a.database }
func (a *App) Store() *store.Store          { return a.st }
func (a *App) WsHub() *websocket.Hub        { return a.hub }
func (a *App) Uploads() *uploads.Service    { return a.ups }
func (a *App) Agent() *agent.Client         { return a.agentCli }
func (a *App) Progress() *progress.Consumer { return a.consumer }
func (a *App) JobManager() *jobs.Manager    { return a.jobManager }
func (a *App) Version() string              { return a.version }

// Close gracefully closes the application's resources, like the DB
// connection and the progress stream.
func (a *App) Close() {
	if a.consumer != nil {
		a.consumer.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}
