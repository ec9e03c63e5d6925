package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/backend"
)

// listProductsHandler proxies the catalog listing. Browsing needs no
// session; the backend owns search, filtering and pagination.
func listProductsHandler(api BackendAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := intQuery(c, "page", 1)
		size := intQuery(c, "size", 20)
		if size > 100 {
			size = 100
		}

		products, err := api.ListProducts(c.Request.Context(), page, size)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"message": backend.UserMessage(err)})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
