package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/skhumalo/airline-reservation/internal/config"
	"github.com/skhumalo/airline-reservation/internal/database"
	"github.com/skhumalo/airline-reservation/internal/handler"
	"github.com/skhumalo/airline-reservation/internal/queue"
	"github.com/skhumalo/airline-reservation/internal/repository"
	"github.com/skhumalo/airline-reservation/internal/router"
	"github.com/skhumalo/airline-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if cfg.SeedDemoData {
		if err := database.SeedDemoData(ctx, db, cfg.BcryptCost); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	flights := repository.NewFlightRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)

	bookingSvc := service.NewBookingService(db, flights, seats, bookings)
	events := queue.Publisher{}

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, tokens),
		Flights:       handler.NewFlightHandler(flights, seats),
		Bookings:      handler.NewBookingHandler(bookingSvc, events),
		AdminFlights:  handler.NewAdminFlightHandler(flights, seats),
		AdminBookings: handler.NewAdminBookingHandler(bookingSvc, events),
	}

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.Register(e, db, rdb, cfg, h)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
