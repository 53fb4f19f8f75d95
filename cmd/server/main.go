// CampusSwap API server.
//
// @title CampusSwap API
// @version 1.0
// @description Campus marketplace: listings, item feed, and buyer-seller chat.
// @BasePath /
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavk09/campusswap/internal/api"
	"github.com/arnavk09/campusswap/internal/api/handlers"
	"github.com/arnavk09/campusswap/internal/api/services"
	"github.com/arnavk09/campusswap/internal/auth"
	"github.com/arnavk09/campusswap/internal/catalog"
	"github.com/arnavk09/campusswap/internal/config"
	"github.com/arnavk09/campusswap/internal/messaging"
	"github.com/arnavk09/campusswap/internal/repositories"
)

func main() {
	cfg := config.Envs

	auth.InitJWTKey([]byte(cfg.JWTSecret))

	db, err := repositories.ConnectDatabase(cfg.DB_URL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	log.Println("Successfully connected to database")

	images := repositories.NewImageStore(cfg.Storage)
	identity := services.NewGoogleIdentity(cfg.Google)
	users := repositories.NewUserRepo(db)

	router := api.SetupRouter(api.Handlers{
		Auth:     handlers.NewAuthHandler(users, identity, cfg.FrontendURL),
		Items:    handlers.NewItemsHandler(catalog.NewService(db, images)),
		Messages: handlers.NewMessagesHandler(messaging.NewService(db)),
		Users:    handlers.NewUsersHandler(users),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting CampusSwap server on port: %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on port %s: %v", cfg.Port, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := repositories.CloseDatabase(db); err != nil {
		log.Printf("closing database: %v", err)
	}

	log.Println("Server exited properly")
}
