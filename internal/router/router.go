package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/ashroots/table-reservation/internal/handler"
	"github.com/ashroots/table-reservation/internal/middleware"
	"github.com/ashroots/table-reservation/internal/model"
)

// Deps is everything the route table needs.
type Deps struct {
	Reservations *handler.ReservationHandler
	Users        *handler.UserHandler
	Auth         *handler.AuthHandler
	Menu         *handler.MenuHandler
	Orders       *handler.OrderHandler
	Reviews      *handler.ReviewHandler
	DB           handler.Pinger
	JWTSecret    string
	Cache        echo.MiddlewareFunc // reference-data cache
	RateLimit    echo.MiddlewareFunc // guards writes
}

// RegisterRoutes registers the health checks and the whole API on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.DB))

	RegisterAuth(e, d)
	RegisterReservations(e, d)
	RegisterAdmin(e, d)
	RegisterMenu(e, d)
	RegisterOrders(e, d)
	RegisterReviews(e, d)
}

// RegisterAuth exposes login. Admin routes need the token it issues.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/api/auth")
	g.POST("/login", d.Auth.Login, orPass(d.RateLimit))
}

// RegisterReservations registers the public booking surface.
func RegisterReservations(e *echo.Echo, d Deps) {
	r, u := d.Reservations, d.Users
	g := e.Group("/api/reservations")

	g.GET("/available-tables", r.AvailableTables)
	g.GET("/check-availability", r.CheckAvailability)
	g.POST("", r.Create, orPass(d.RateLimit))
	g.GET("/by-email/:email", r.ByEmail)
	g.GET("/tables", r.Tables, orPass(d.Cache))

	g.POST("/users", u.Signup, orPass(d.RateLimit))
	g.GET("/users/:email", u.GetByEmail)
}

// RegisterAdmin registers routes that need a token with the admin role:
// listings and every mutation of an existing reservation.
func RegisterAdmin(e *echo.Echo, d Deps) {
	r, u := d.Reservations, d.Users
	// per-route so unknown paths under the prefix still 404 instead of 401
	guard := adminGuard(d)
	admin := e.Group("/api/reservations")

	admin.GET("", r.List, guard...)
	admin.GET("/:id", r.Get, guard...)
	admin.PUT("/:id/status", r.UpdateStatus, guard...)
	admin.DELETE("/:id", r.Delete, guard...)
	admin.GET("/users", u.List, guard...)
}

// RegisterMenu exposes the menu. Only the ratings listing is cached: it
// carries no stock, and stock must never be served stale.
func RegisterMenu(e *echo.Echo, d Deps) {
	m := d.Menu
	g := e.Group("/api/menu")

	g.GET("", m.List)
	g.GET("/with-ratings", m.WithRatings, orPass(d.Cache))
	g.GET("/category/:category", m.ByCategory)
	g.GET("/stock", m.InStock)
	g.GET("/stock/:menu_id", m.Stock)
	g.PUT("/stock", m.SetStock, adminGuard(d)...)
}

// RegisterOrders exposes ordering. Listing every order is admin only.
func RegisterOrders(e *echo.Echo, d Deps) {
	o := d.Orders
	g := e.Group("/api/orders")

	g.GET("", o.List, adminGuard(d)...)
	g.GET("/items", o.Items, adminGuard(d)...)
	g.POST("", o.Create, orPass(d.RateLimit))
	g.POST("/items", o.AddItem, orPass(d.RateLimit))
	g.GET("/user/:user_id", o.ByUser)
	g.GET("/:order_id", o.Get)
}

// RegisterReviews exposes dish reviews and staff ratings.
func RegisterReviews(e *echo.Echo, d Deps) {
	r := d.Reviews
	dish := e.Group("/api/dish-reviews")
	dish.GET("", r.DishReviews)
	dish.GET("/detailed", r.DishReviewsDetailed)
	dish.POST("", r.AddDishReview, orPass(d.RateLimit))

	staff := e.Group("/api/staff-ratings")
	staff.GET("", r.StaffRatings)
	staff.POST("", r.AddStaffRating, orPass(d.RateLimit))
}

func adminGuard(d Deps) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(string(model.RoleAdmin)),
	}
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
