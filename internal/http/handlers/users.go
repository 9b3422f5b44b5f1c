package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bscott89/taskhub/internal/auth"
	"github.com/bscott89/taskhub/internal/config"
	"github.com/bscott89/taskhub/internal/domain/user"
	"github.com/bscott89/taskhub/internal/http/middlewares"
	"github.com/bscott89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	Create(ctx context.Context, params user.CreateParams) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, params user.UpdateParams) (user.User, error)
	Delete(ctx context.Context, id string) (user.User, error)
}

type TokensStore interface {
	Add(ctx context.Context, userID, tokenHash string) error
	Remove(ctx context.Context, userID, tokenHash string) error
	RemoveAll(ctx context.Context, userID string) error
}

// Mailer is the fire-and-forget side of signup/deletion. Both calls
// return immediately; delivery is the worker's problem.
type Mailer interface {
	WelcomeAsync(email, name string)
	FarewellAsync(email, name string)
}

type UsersHandler struct {
	users  UsersStore
	tokens TokensStore
	jwt    *auth.Manager
	mail   Mailer
}

func NewUsersHandler(users UsersStore, tokens TokensStore, jwt *auth.Manager, mail Mailer) *UsersHandler {
	return &UsersHandler{
		users:  users,
		tokens: tokens,
		jwt:    jwt,
		mail:   mail,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UsersHandler) SignUp(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := user.ValidatePassword(req.Password); err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.users.Create(cctx, user.CreateParams{
		Name:         user.NormalizeName(req.Name),
		Email:        user.NormalizeEmail(req.Email),
		Age:          req.Age,
		PasswordHash: hash,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "Email is already in use.", nil)
			return
		}

		RespondInternal(ctx)
		return
	}

	token, err := h.issueToken(cctx, u.ID)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	h.mail.WelcomeAsync(u.Email, u.Name)

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  u,
		"token": token,
	})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		RespondBadRequest(ctx, "Unable to login", nil)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondBadRequest(ctx, "Unable to login", nil)
		return
	}

	token, err := h.issueToken(cctx, foundUser.ID)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":  foundUser,
		"token": token,
	})
}

// Logout revokes exactly the presented token; any other sessions the
// user holds stay valid.
func (h *UsersHandler) Logout(ctx *gin.Context) {
	principal, token, ok := principalAndToken(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.tokens.Remove(cctx, principal.ID, h.jwt.HashToken(token))

	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.Status(http.StatusOK)
}

func (h *UsersHandler) LogoutAll(ctx *gin.Context) {
	principal, _, ok := principalAndToken(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.tokens.RemoveAll(cctx, principal.ID)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.Status(http.StatusOK)
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, principal)
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	keys, ok := PatchKeys(ctx)

	if !ok {
		return
	}

	if !RejectDisallowed(ctx, keys, user.IsAllowedUpdate) {
		return
	}

	var req user.UpdateUserRequest

	if !BindJSONBody(ctx, &req) {
		return
	}

	params := user.UpdateParams{
		Age: req.Age,
	}

	if req.Name != nil {
		name := user.NormalizeName(*req.Name)
		params.Name = &name
	}

	if req.Email != nil {
		email := user.NormalizeEmail(*req.Email)
		params.Email = &email
	}

	if req.Password != nil {
		if err := user.ValidatePassword(*req.Password); err != nil {
			RespondBadRequest(ctx, err.Error(), nil)
			return
		}

		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			RespondInternal(ctx)
			return
		}

		params.PasswordHash = &hash
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.users.Update(cctx, principal.ID, params)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondBadRequest(ctx, "Email is already in use.", nil)
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx)
		default:
			RespondInternal(ctx)
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// DeleteMe removes the account and, in the same transaction, every
// task the user owns. The farewell mail goes out after the commit.
func (h *UsersHandler) DeleteMe(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	deleted, err := h.users.Delete(cctx, principal.ID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}

		RespondInternal(ctx)
		return
	}

	h.mail.FarewellAsync(deleted.Email, deleted.Name)

	ctx.JSON(http.StatusOK, deleted)
}

// Helper functions

func (h *UsersHandler) issueToken(ctx context.Context, userID string) (string, error) {
	token, err := h.jwt.GenerateToken(userID)

	if err != nil {
		return "", err
	}

	// a token is live only while its hash stays in the stored set
	err = h.tokens.Add(ctx, userID, h.jwt.HashToken(token))

	if err != nil {
		return "", err
	}

	return token, nil
}

func principalAndToken(ctx *gin.Context) (user.User, string, bool) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		return user.User{}, "", false
	}

	token, ok := middlewares.TokenFromContext(ctx)

	if !ok {
		return user.User{}, "", false
	}

	return principal, token, true
}
