package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"boardshop/internal/service"
)

// @Summary List products
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param category query string false "Category id or slug"
// @Param min_price query int false "Min price"
// @Param max_price query int false "Max price"
// @Success 200 {array} domain.Product
// @Failure 400 {object} errorResp
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := service.ProductFilter{NameSubstring: c.Query("q")}
	if v := c.Query("category"); v != "" {
		if id, err := parseID(v); err == nil {
			f.CategoryID = &id
		} else {
			f.CategorySlug = v
		}
	}
	if v := c.Query("min_price"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid min_price")
			return
		}
		f.MinPrice = &x
	}
	if v := c.Query("max_price"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid max_price")
			return
		}
		f.MaxPrice = &x
	}

	list, err := s.catalog.Products(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 400 {object} errorResp
// @Failure 404 {object} errorResp
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	p, err := s.catalog.ProductByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.catalog.Categories(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}
