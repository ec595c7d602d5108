// Package router wires handlers and middleware onto the Echo
// instance.  Route groups: public catalogue browsing, authenticated
// customer bookings and the ADMIN back office.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/skhumalo/airline-reservation/internal/config"
	"github.com/skhumalo/airline-reservation/internal/handler"
	"github.com/skhumalo/airline-reservation/internal/middleware"
	"github.com/skhumalo/airline-reservation/internal/model"
)

// Handlers collects everything the route table needs.
type Handlers struct {
	Auth          *handler.AuthHandler
	Flights       *handler.FlightHandler
	Bookings      *handler.BookingHandler
	AdminFlights  *handler.AdminFlightHandler
	AdminBookings *handler.AdminBookingHandler
}

// Register sets up the full route table.  rdb may be nil, in which
// case rate limiting and response caching are disabled.
func Register(e *echo.Echo, db *sql.DB, rdb *redis.Client, cfg config.Config, h Handlers) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	e.GET("/healthz", handler.Health(db))

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	auth.POST("/logout", h.Auth.Logout)

	// Public catalogue browsing, cached since it is read-heavy and
	// tolerates slightly stale availability.
	public := v1.Group("")
	public.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	public.GET("/flights", h.Flights.List)
	public.GET("/flights/:id", h.Flights.Get)
	public.GET("/flights/:id/seats", h.Flights.Seats)

	// Authenticated customer surface.
	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(cfg.JWTSecret))
	authed.GET("/me", h.Auth.Me)
	authed.POST("/bookings", h.Bookings.Create)
	authed.GET("/bookings", h.Bookings.ListMine)
	authed.GET("/bookings/:id", h.Bookings.Get)
	authed.GET("/bookings/ref/:ref", h.Bookings.GetByReference)
	authed.DELETE("/bookings/:id", h.Bookings.Cancel)

	// Back office.
	admin := v1.Group("/admin")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/flights", h.AdminFlights.List)
	admin.POST("/flights", h.AdminFlights.Create)
	admin.PUT("/flights/:id", h.AdminFlights.Update)
	admin.DELETE("/flights/:id", h.AdminFlights.Deactivate)
	admin.GET("/bookings", h.AdminBookings.List)
	admin.PATCH("/bookings/:id/status", h.AdminBookings.UpdateStatus)
}
