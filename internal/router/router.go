package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/altenshop/backend/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Product *apiHandler.ProductHandler
	Health  *apiHandler.HealthHandler
}

// New builds the route table. Authentication is enforced by the global gate
// wrapping this router plus the per-handler identity checks, so routes are
// registered bare.
func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.POST("/auth/authenticate", handlers.Auth.Authenticate)
	r.POST("/auth/register", handlers.Auth.Register)
	r.GET("/auth/activate-account", handlers.Auth.ActivateAccount)
	r.POST("/auth/reset-password", handlers.Auth.ResetPassword)
	r.POST("/auth/change-password", handlers.Auth.ChangePassword)

	r.GET("/products", handlers.Product.List)
	r.POST("/products", handlers.Product.Create)
	r.GET("/products/{id}", handlers.Product.Get)
	r.PUT("/products/{id}", handlers.Product.Update)
	r.DELETE("/products/{id}", handlers.Product.Delete)

	return r
}
