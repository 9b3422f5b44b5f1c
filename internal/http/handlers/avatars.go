package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bscott89/taskhub/internal/avatar"
	"github.com/bscott89/taskhub/internal/cache"
	"github.com/bscott89/taskhub/internal/config"
	"github.com/bscott89/taskhub/internal/domain/user"
	"github.com/bscott89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AvatarStore interface {
	GetAvatar(ctx context.Context, id string) ([]byte, error)
	SetAvatar(ctx context.Context, id string, data []byte) error
	ClearAvatar(ctx context.Context, id string) error
}

type AvatarsHandler struct {
	store AvatarStore
	cache *cache.Cache
}

func NewAvatarsHandler(store AvatarStore, c *cache.Cache) *AvatarsHandler {
	return &AvatarsHandler{store: store, cache: c}
}

func avatarCacheKey(userID string) string {
	return "avatar:v1:" + userID
}

func (h *AvatarsHandler) Upload(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("avatar")

	if err != nil {
		RespondBadRequest(ctx, "avatar file is required", nil)
		return
	}

	if !avatar.AllowedFilename(file.Filename) {
		RespondBadRequest(ctx, avatar.ErrUnsupportedFormat.Error(), nil)
		return
	}

	if file.Size > avatar.MaxUploadBytes {
		RespondBadRequest(ctx, avatar.ErrTooLarge.Error(), nil)
		return
	}

	src, err := file.Open()

	if err != nil {
		RespondInternal(ctx)
		return
	}

	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, avatar.MaxUploadBytes+1))

	if err != nil {
		RespondInternal(ctx)
		return
	}

	if len(data) > avatar.MaxUploadBytes {
		RespondBadRequest(ctx, avatar.ErrTooLarge.Error(), nil)
		return
	}

	normalized, err := avatar.Normalize(data)

	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	err = h.store.SetAvatar(cctx, principal.ID, normalized)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	h.cache.Delete(avatarCacheKey(principal.ID))

	ctx.Status(http.StatusOK)
}

// Get serves the stored avatar publicly as PNG bytes.
func (h *AvatarsHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	if data, ok := h.cache.Get(avatarCacheKey(id)); ok {
		if png, ok := data.([]byte); ok {
			ctx.Data(http.StatusOK, "image/png", png)
			return
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	png, err := h.store.GetAvatar(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}

		RespondInternal(ctx)
		return
	}

	h.cache.Set(avatarCacheKey(id), png)

	ctx.Data(http.StatusOK, "image/png", png)
}

func (h *AvatarsHandler) Delete(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.store.ClearAvatar(cctx, principal.ID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}

		RespondInternal(ctx)
		return
	}

	h.cache.Delete(avatarCacheKey(principal.ID))

	ctx.Status(http.StatusOK)
}
