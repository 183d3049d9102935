package main

import (
	"net/http"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts     repository.CartRepository
	wishlists repository.WishlistRepository
	log       *zap.Logger
}

func NewCartHandler(carts repository.CartRepository, wishlists repository.WishlistRepository, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, wishlists: wishlists, log: log}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	h.writeCart(c, http.StatusOK)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req model.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.carts.AddItem(c.Request.Context(), currentUserID(c), req.BookID, req.Quantity); err != nil {
		respondError(c, h.log, err, "Failed to add item to cart")
		return
	}
	h.writeCart(c, http.StatusCreated)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req model.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.carts.SetQuantity(c.Request.Context(), currentUserID(c), c.Param("bookId"), req.Quantity); err != nil {
		respondError(c, h.log, err, "Failed to update cart item")
		return
	}
	h.writeCart(c, http.StatusOK)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.carts.RemoveItem(c.Request.Context(), currentUserID(c), c.Param("bookId")); err != nil {
		respondError(c, h.log, err, "Failed to remove cart item")
		return
	}
	h.writeCart(c, http.StatusOK)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, h.log, err, "Failed to clear cart")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) writeCart(c *gin.Context, status int) {
	items, err := h.carts.GetCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve cart")
		return
	}
	c.JSON(status, model.NewCartResponse(items))
}

func (h *CartHandler) GetWishlist(c *gin.Context) {
	items, err := h.wishlists.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve wishlist")
		return
	}

	response := model.WishlistResponse{Books: make([]model.BookResponse, 0, len(items))}
	for i := range items {
		response.Books = append(response.Books, *items[i].Book.ToBookResponse())
	}
	c.JSON(http.StatusOK, response)
}

func (h *CartHandler) ToggleWishlist(c *gin.Context) {
	bookID := c.Param("bookId")
	added, err := h.wishlists.Toggle(c.Request.Context(), currentUserID(c), bookID)
	if err != nil {
		respondError(c, h.log, err, "Failed to update wishlist")
		return
	}
	c.JSON(http.StatusOK, model.WishlistToggleResponse{BookID: bookID, Added: added})
}
