package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/session"
)

type cartView struct {
	Lines         []domain.CartLine `json:"lines"`
	IsLoaded      bool              `json:"isLoaded"`
	IsMutating    bool              `json:"isMutating"`
	TotalPrice    decimal.Decimal   `json:"totalPrice"`
	TotalDisplay  string            `json:"totalDisplay"`
	SelectedCount int               `json:"selectedCount"`
	TotalItems    int               `json:"totalItems"`
	Notices       []session.Notice  `json:"notices"`
}

// toCartView renders one session's cart for the storefront, draining the
// pending notices into the response.
func toCartView(e *session.Entry, currencyCode string) cartView {
	snap := e.Cart.Snapshot()
	total := e.Cart.TotalPrice()
	return cartView{
		Lines:         snap.Lines,
		IsLoaded:      snap.IsLoaded,
		IsMutating:    snap.IsMutating,
		TotalPrice:    total,
		TotalDisplay:  domain.FormatAmount(total, currencyCode),
		SelectedCount: e.Cart.SelectedCount(),
		TotalItems:    e.Cart.TotalItemsInCart(),
		Notices:       e.Flash.Drain(),
	}
}

func getCartHandler(currencyCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		// First page view after a cold start may race the eager fetch;
		// an unauthenticated session resolves locally either way.
		if !entry.Cart.Snapshot().IsLoaded {
			entry.Cart.FetchCart(c.Request.Context())
		}
		c.JSON(http.StatusOK, toCartView(entry, currencyCode))
	}
}

type addItemRequest struct {
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

func addCartItemHandler(currencyCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "variantId and a positive quantity are required"})
			return
		}
		entry.Cart.AddToCart(c.Request.Context(), req.VariantID, req.Quantity)
		c.JSON(http.StatusOK, toCartView(entry, currencyCode))
	}
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func updateCartItemHandler(currencyCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "quantity is required"})
			return
		}
		// Zero and below route to removal inside the store.
		entry.Cart.UpdateQuantity(c.Request.Context(), c.Param("variantId"), *req.Quantity)
		c.JSON(http.StatusOK, toCartView(entry, currencyCode))
	}
}

func removeCartItemHandler(currencyCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		entry.Cart.RemoveFromCart(c.Request.Context(), c.Param("variantId"))
		c.JSON(http.StatusOK, toCartView(entry, currencyCode))
	}
}

type selectionRequest struct {
	Action    string `json:"action" binding:"required,oneof=toggle all none"`
	VariantID string `json:"variantId"`
}

func cartSelectionHandler(currencyCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		var req selectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "action must be toggle, all or none"})
			return
		}
		switch req.Action {
		case "toggle":
			if req.VariantID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"message": "variantId required for toggle"})
				return
			}
			entry.Cart.ToggleSelected(req.VariantID)
		case "all":
			entry.Cart.SelectAll()
		case "none":
			entry.Cart.DeselectAll()
		}
		c.JSON(http.StatusOK, toCartView(entry, currencyCode))
	}
}

func clearCartHandler(currencyCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := sessionEntry(c)
		if entry == nil {
			return
		}
		entry.Cart.ClearCart()
		c.JSON(http.StatusOK, toCartView(entry, currencyCode))
	}
}

func cartBadgeHandler(c *gin.Context) {
	entry := sessionEntry(c)
	if entry == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": entry.Cart.TotalItemsInCart()})
}
