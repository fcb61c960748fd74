package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Get cart with totals
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.CartSummary
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	sum, err := s.carts.Summary(c.Request.Context(), currentSession(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

type addItemReq struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  *int64 `json:"quantity"`
}

// @Summary Add product to cart
// @Description Quantity defaults to 1 and merges into an existing line.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addItemReq true "Item"
// @Success 200 {object} domain.CartSummary
// @Failure 400 {object} errorResp
// @Failure 404 {object} errorResp
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if limit := s.opts.MaxQuantityPerRequest; limit > 0 && quantity > limit {
		badRequest(c, fmt.Sprintf("quantity must be at most %d", limit))
		return
	}

	ctx := c.Request.Context()
	p, err := s.catalog.ProductByID(ctx, req.ProductID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	sum, err := s.carts.AddItem(ctx, currentSession(c), *p, quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cartMutated("add")
	c.JSON(http.StatusOK, sum)
}

type setQuantityReq struct {
	Quantity *int64 `json:"quantity" binding:"required"`
}

// @Summary Set line quantity
// @Description Zero or a negative quantity removes the line.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product_id path int true "Product ID"
// @Param input body setQuantityReq true "Quantity"
// @Success 200 {object} domain.CartSummary
// @Failure 400 {object} errorResp
// @Router /cart/items/{product_id} [put]
func (s *Server) setCartItem(c *gin.Context) {
	id, err := parseID(c.Param("product_id"))
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	var req setQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if limit := s.opts.MaxQuantityPerRequest; limit > 0 && *req.Quantity > limit {
		badRequest(c, fmt.Sprintf("quantity must be at most %d", limit))
		return
	}
	sum, err := s.carts.SetQuantity(c.Request.Context(), currentSession(c), id, *req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cartMutated("set")
	c.JSON(http.StatusOK, sum)
}

// @Summary Remove line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param product_id path int true "Product ID"
// @Success 200 {object} domain.CartSummary
// @Failure 400 {object} errorResp
// @Router /cart/items/{product_id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	id, err := parseID(c.Param("product_id"))
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	sum, err := s.carts.RemoveItem(c.Request.Context(), currentSession(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cartMutated("remove")
	c.JSON(http.StatusOK, sum)
}

// @Summary Empty the cart
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.carts.Clear(c.Request.Context(), currentSession(c)); err != nil {
		s.writeError(c, err)
		return
	}
	s.cartMutated("clear")
	c.Status(http.StatusNoContent)
}

func (s *Server) cartMutated(op string) {
	if s.metrics != nil {
		s.metrics.CartMutation(op)
	}
}
