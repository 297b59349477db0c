// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"doudizhu/internal/auth"
	"doudizhu/internal/cache"
	"doudizhu/internal/database"
	"doudizhu/internal/handlers"
	"doudizhu/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Postgres and Redis are optional; the service plays fine in memory only.
	if err := database.ConnectDB(); err != nil {
		logger.Warnf("running without persistence: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("running without historian queue: %v", err)
	}

	srv := handlers.NewRoomServer(logger)

	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(logger))

	r.Post("/room/create", handlers.CreateRoomHandler(srv))
	r.Get("/room/list", handlers.ListRoomsHandler(srv))
	r.Post("/room/{code}/bot", handlers.AddBotHandler(srv))
	r.Get("/room/{code}/advise", handlers.AdviseHandler(srv))

	r.Get("/room/ws/{code}", handlers.RoomWSHandler(logger, srv))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
