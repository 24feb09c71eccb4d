package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"compliflow/internal/common"
	"compliflow/internal/models"
	"compliflow/internal/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// UserHandlers handles admin HTTP requests for user management
type UserHandlers struct {
	userRepo repositories.UserRepository
}

func NewUserHandlers(userRepo repositories.UserRepository) *UserHandlers {
	return &UserHandlers{userRepo: userRepo}
}

// GetUser handles GET /users/:id
func (h *UserHandlers) GetUser(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "user")
		}
		return common.SendServerError(c, "Failed to retrieve user")
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /users/:id
// Admin-only role and outlet assignment.
func (h *UserHandlers) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "user")
		}
		return common.SendServerError(c, "Failed to retrieve user")
	}

	var req struct {
		Name     *string `json:"name"`
		Role     *string `json:"role"`
		OutletID *string `json:"outlet_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if req.Name != nil {
		if err := common.ValidateRequiredString(*req.Name, "name"); err != nil {
			return common.SendClientError(c, err.Error())
		}
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			return common.SendValidationError(c, "role", "invalid role")
		}
		user.Role = *req.Role
	}
	if req.OutletID != nil {
		if *req.OutletID == "" {
			user.OutletID = nil
		} else {
			outletID, err := common.ValidateUUID(*req.OutletID, "outlet_id")
			if err != nil {
				return common.SendClientError(c, err.Error())
			}
			user.OutletID = &outletID
		}
	}

	if err := h.userRepo.Update(ctx, user); err != nil {
		return common.SendServerError(c, "Failed to update user")
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandlers) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.userRepo.Delete(ctx, userID); err != nil {
		return common.SendServerError(c, "Failed to delete user")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "User deleted"})
}

// ListUsers handles GET /users
func (h *UserHandlers) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	users, err := h.userRepo.List(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list users")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}
