package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/internal/service"
	"ucampus.dev/reserve/pkg/response"
)

type AdminHandler struct {
	userRepo repository.UserRepository
	cascade  service.CascadeService
}

func NewAdminHandler(userRepo repository.UserRepository, cascade service.CascadeService) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, cascade: cascade}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.ListActive(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// DeleteUser cascades the deletion. A non-empty warning means the deletion
// committed but the identity-provider suspension needs manual follow-up.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, warning, err := h.cascade.DeleteUser(c.Request.Context(), actorID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	body := gin.H{"user": user}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusOK, body)
}

func (h *AdminHandler) RestoreUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, warning, err := h.cascade.RestoreUser(c.Request.Context(), actorID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	body := gin.H{"user": user}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusOK, body)
}
