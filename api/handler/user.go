package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/teamdo/backend/api/transport"
	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/pkg/httpcontext"
	userUC "github.com/teamdo/backend/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc *userUC.Service
}

func NewUserHandler(uc *userUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current user profile
// @Tags users
// @Router /api/v1/me [get]
func (h *UserHandler) Me(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Get(stdCtx, actorID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary List users
// @Tags admin
// @Router /api/v1/admin/users [get]
func (h *UserHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.List(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

// @Summary Change a user's roles
// @Tags admin
// @Router /api/v1/admin/users/{id}/roles [put]
func (h *UserHandler) ChangeRoles(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.RoleChangeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || len(req.Roles) == 0 {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.ChangeRoles(stdCtx, id, req.Roles, req.Enabled)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}
