// Package main provides the entry point for the Bloomery admin server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/di"
	"github.com/bloomeryapp/bloomery-admin/internal/di/providers"
	"github.com/bloomeryapp/bloomery-admin/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The store and the search index use wrapper handles; close them
	// explicitly so pending writes land before exit.
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}
	if searchHandle, err := do.Invoke[*providers.SearchIndexHandle](injector); err == nil {
		if err := searchHandle.Shutdown(); err != nil {
			log.Error("Failed to close search index", "error", err)
		}
	}

	log.Info("Goodbye")
}
