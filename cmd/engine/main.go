package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/beehive/membership/cmd/engine/container"
	"github.com/beehive/membership/cmd/engine/routes"
	"github.com/beehive/membership/common/bootstrap"
	"github.com/beehive/membership/common/db"
	"github.com/beehive/membership/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, Redis, telemetry)
	// and run migrations before anything touches the schema.
	components, err := bootstrap.Setup(ctx, "engine",
		bootstrap.WithDBInitHook(func(c *bootstrap.Components) error {
			return db.MigrateUp(c.Config, c.Logger)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap engine: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	routes.Register(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// startServer serves echo behind the graceful-shutdown wrapper.
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New(
		components.Config.Service.Name,
		components.Config.Service.Port,
		e,
		components.Logger,
	)

	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
