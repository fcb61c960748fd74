package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Checkout
// @Description Records the cart as a confirmed order and empties the cart.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 201 {object} domain.Order
// @Failure 400 {object} errorResp
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	o, err := s.orders.Checkout(c.Request.Context(), currentSession(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if s.metrics != nil {
		s.metrics.OrderCreated()
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary Get order by number
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param number path string true "Order number"
// @Success 200 {object} domain.Order
// @Failure 404 {object} errorResp
// @Router /orders/{number} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Last order of this session
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Order
// @Failure 404 {object} errorResp
// @Router /orders/last [get]
func (s *Server) getLastOrder(c *gin.Context) {
	o, err := s.orders.GetLastOrder(c.Request.Context(), currentSession(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
