package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/session"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// loginHandler exchanges credentials with the backend and stores the
// session. The cart store picks up the transition through its auth
// subscription, so the cart is already fetched by the time we respond.
func loginHandler(api BackendAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
			return
		}

		token, customer, err := api.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": backend.UserMessage(err)})
			return
		}

		entry.Auth.SetSession(token, customer)
		c.JSON(http.StatusOK, gin.H{
			"customer":  customer,
			"cartItems": entry.Cart.TotalItemsInCart(),
		})
	}
}

// logoutHandler clears the auth state (the cart resets through the
// subscription, with no backend call) and drops the session.
func logoutHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		m.Drop(entry.ID)
		c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
