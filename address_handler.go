package main

import (
	"net/http"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AddressHandler struct {
	repo repository.AddressRepository
	log  *zap.Logger
}

func NewAddressHandler(repo repository.AddressRepository, log *zap.Logger) *AddressHandler {
	return &AddressHandler{repo: repo, log: log}
}

func (h *AddressHandler) ListAddresses(c *gin.Context) {
	addresses, err := h.repo.ListAddresses(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve addresses")
		return
	}

	response := make([]model.AddressResponse, 0, len(addresses))
	for i := range addresses {
		response = append(response, addresses[i].ToAddressResponse())
	}
	c.JSON(http.StatusOK, gin.H{"addresses": response})
}

func (h *AddressHandler) CreateAddress(c *gin.Context) {
	var req model.AddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address := &model.Address{}
	req.ApplyTo(address, currentUserID(c))
	if err := h.repo.CreateAddress(c.Request.Context(), address); err != nil {
		respondError(c, h.log, err, "Failed to create address")
		return
	}
	c.JSON(http.StatusCreated, address.ToAddressResponse())
}

func (h *AddressHandler) GetAddress(c *gin.Context) {
	address, err := h.repo.GetAddress(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve address")
		return
	}
	c.JSON(http.StatusOK, address.ToAddressResponse())
}

func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	var req model.AddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.repo.GetAddress(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve address")
		return
	}

	req.ApplyTo(address, address.UserID)
	if err := h.repo.UpdateAddress(c.Request.Context(), address); err != nil {
		respondError(c, h.log, err, "Failed to update address")
		return
	}
	c.JSON(http.StatusOK, address.ToAddressResponse())
}

func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	if err := h.repo.DeleteAddress(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, h.log, err, "Failed to delete address")
		return
	}
	c.Status(http.StatusNoContent)
}
