package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/response"
)

// AdminHandler manages the dashboard admin allow-list. All routes require
// the super admin role.
type AdminHandler struct {
	admins *services.AdminService
}

func NewAdminHandler(admins *services.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

type addAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.admins.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, admins, &response.Meta{Total: len(admins)})
}

func (h *AdminHandler) Add(c *gin.Context) {
	var req addAdminRequest
	if !bindAndValidate(c, &req) {
		return
	}

	admin, err := h.admins.Add(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, admin)
}

func (h *AdminHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	admin, err := h.admins.SetActive(requestContext(c), c.Param("id"), *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, admin)
}

func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.admins.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
