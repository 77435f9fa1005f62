package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"user-registration-service/internal/usecase/user"
	pkgerrors "user-registration-service/pkg/errors"
	"user-registration-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Messages produced by the handler itself rather than the use case.
const (
	MsgIDMismatch      = "ID mismatch."
	MsgInvalidBody     = "Invalid request body."
	MsgInternalFailure = "An internal error occurred."
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserPayload is the JSON shape of a user in request and response bodies.
// Password is always empty in responses.
type UserPayload struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	Success bool        `json:"success"`
	Data    UserPayload `json:"data"`
}

// CreatedResponse is returned by a successful create.
type CreatedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// MessageResponse carries an outcome message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toPayload(u user.User) UserPayload {
	return UserPayload{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
	}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, "ListUsers", err)
		return
	}

	out := make([]UserPayload, len(users))
	for i, u := range users {
		out[i] = toPayload(u)
	}
	c.JSON(http.StatusOK, out)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.handleError(c, "GetUser", err)
		return
	}

	u, found, err := h.uc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "GetUser", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, MessageResponse{Success: false, Message: user.MsgUserNotFound})
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{Success: true, Data: toPayload(u)})
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var body UserPayload
	if err := bindBody(c, &body); err != nil {
		h.handleError(c, "CreateUser", err)
		return
	}

	res, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		FullName: body.FullName,
		Email:    body.Email,
		Phone:    body.Phone,
		Password: body.Password,
	})
	if err != nil {
		h.handleError(c, "CreateUser", err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusBadRequest, MessageResponse{Success: false, Message: res.Message})
		return
	}

	c.Header("Location", fmt.Sprintf("/users/%d", res.UserID))
	c.JSON(http.StatusCreated, CreatedResponse{Success: true, Message: res.Message, UserID: res.UserID})
}

// UpdateUser handles PUT /users/:id. The body id must match the path id.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.handleError(c, "UpdateUser", err)
		return
	}

	var body UserPayload
	if err := bindBody(c, &body); err != nil {
		h.handleError(c, "UpdateUser", err)
		return
	}
	if body.ID != id {
		err := fmt.Errorf("path id %d, body id %d", id, body.ID)
		h.handleError(c, "UpdateUser", pkgerrors.NewValidationError("id", MsgIDMismatch, err))
		return
	}

	res, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:        body.ID,
		FullName:  body.FullName,
		Email:     body.Email,
		Phone:     body.Phone,
		Password:  body.Password,
		CreatedAt: body.CreatedAt,
	})
	if err != nil {
		h.handleError(c, "UpdateUser", err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusNotFound, MessageResponse{Success: false, Message: res.Message})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: res.Message})
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.handleError(c, "DeleteUser", err)
		return
	}

	res, err := h.uc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "DeleteUser", err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusNotFound, MessageResponse{Success: false, Message: res.Message})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: res.Message})
}

// pathID parses the :id parameter.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, pkgerrors.NewValidationError("id", user.MsgInvalidUserID, err)
	}
	return id, nil
}

func bindBody(c *gin.Context, dst *UserPayload) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return pkgerrors.NewValidationError("body", MsgInvalidBody, err)
	}
	return nil
}

// handleError converts errors to HTTP responses. Only validation messages
// reach the client; internal details stay in the log.
func (h *UserHandler) handleError(c *gin.Context, op string, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	status := pkgerrors.StatusCode(err)
	if status < http.StatusInternalServerError {
		log.Warn("request rejected", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	} else {
		log.Error("request failed", zap.String("op", op), zap.Error(err))
	}

	c.JSON(status, MessageResponse{Success: false, Message: pkgerrors.PublicMessage(err, MsgInternalFailure)})
}
