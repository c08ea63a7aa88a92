package handler

import (
	"context"
	"net/http"

	model "auction-lifecycle/internal/models"
	"auction-lifecycle/services/auction/helpers"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=user_handler.go -destination=mock_user_handler.go -package=handler

type IdentityServiceInterface interface {
	Register(ctx context.Context, email, name, password string) (model.User, error)
	Login(ctx context.Context, email, password string) (string, model.User, error)
	ChangeRole(ctx context.Context, caller model.Caller, userID string, role model.Role) (model.User, error)
	SearchUsers(ctx context.Context, caller model.Caller, query string) ([]model.User, error)
}

type UserHandler struct {
	service IdentityServiceInterface
}

func NewUserHandler(service IdentityServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterHandler handles POST /auth/register
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "RegisterHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewUserResponse(user), "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{"user_id": user.UserID})
}

// LoginHandler handles POST /auth/login
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "LoginHandler", err, nil)
		return
	}

	resp := helpers.LoginResponse{
		Token: token,
		User:  helpers.NewUserResponse(user),
	}
	utils.JSONResponse(c, http.StatusOK, resp, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": user.UserID})
}

// SearchUsersHandler handles GET /users?q=
func (h *UserHandler) SearchUsersHandler(c *gin.Context) {
	caller, _ := helpers.CallerFromContext(c)
	users, err := h.service.SearchUsers(c.Request.Context(), caller, c.Query("q"))
	if err != nil {
		helpers.HandleServiceError(c, "SearchUsersHandler", err, map[string]any{"user_id": caller.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewUserResponses(users), "users retrieved successfully")
}

// ChangeRoleHandler handles PUT /users/:user_id/role
func (h *UserHandler) ChangeRoleHandler(c *gin.Context) {
	var req helpers.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "ChangeRoleHandler", err)
		return
	}

	userID := c.Param("user_id")
	caller, _ := helpers.CallerFromContext(c)
	user, err := h.service.ChangeRole(c.Request.Context(), caller, userID, req.Role)
	if err != nil {
		helpers.HandleServiceError(c, "ChangeRoleHandler", err, map[string]any{"target_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewUserResponse(user), "role updated successfully")
	helpers.LogSuccess("ChangeRoleHandler", "role updated successfully", map[string]any{
		"target_id": userID,
		"role":      user.Role,
	})
}
