package httpserver

import (
	"context"
	"errors"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/session"
)

// BackendAPI is the slice of the backend client the routes use directly
// (everything else goes through each session's cart store).
type BackendAPI interface {
	Login(ctx context.Context, email, password string) (string, domain.Customer, error)
	ListProducts(ctx context.Context, page, size int) (*domain.ProductPage, error)
	Ping(ctx context.Context) error
}

// Deps carries the collaborators the router needs.
type Deps struct {
	Sessions        *session.Manager
	Backend         BackendAPI
	AllowedOrigins  []string
	DisplayCurrency string
}

// buildRouter wires the storefront routes.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session manager required")
	}
	if deps.Backend == nil {
		return nil, errors.New("backend client required")
	}
	if deps.DisplayCurrency == "" {
		deps.DisplayCurrency = "USD"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(deps.AllowedOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = deps.AllowedOrigins
		cfg.AllowCredentials = true
		router.Use(cors.New(cfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Backend))

	router.GET("/products", listProductsHandler(deps.Backend))

	authed := router.Group("/")
	authed.Use(sessionMiddleware(deps.Sessions))
	{
		authed.POST("/session/login", loginHandler(deps.Backend))
		authed.POST("/session/logout", logoutHandler(deps.Sessions))

		authed.GET("/cart", getCartHandler(deps.DisplayCurrency))
		authed.POST("/cart/items", addCartItemHandler(deps.DisplayCurrency))
		authed.PUT("/cart/items/:variantId", updateCartItemHandler(deps.DisplayCurrency))
		authed.DELETE("/cart/items/:variantId", removeCartItemHandler(deps.DisplayCurrency))
		authed.POST("/cart/selection", cartSelectionHandler(deps.DisplayCurrency))
		authed.DELETE("/cart", clearCartHandler(deps.DisplayCurrency))
		authed.GET("/cart/badge", cartBadgeHandler)
	}

	return router, nil
}
