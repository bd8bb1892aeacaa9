package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/teamdo/backend/api/transport"
	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/pkg/httpcontext"
	categoryUC "github.com/teamdo/backend/usecase/category"
	groupUC "github.com/teamdo/backend/usecase/group"
)

type GroupHandler struct {
	baseHandler
	groups     *groupUC.Service
	categories *categoryUC.Service
}

func NewGroupHandler(groups *groupUC.Service, categories *categoryUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		baseHandler: newBaseHandler(adapter, logger),
		groups:      groups,
		categories:  categories,
	}
}

// @Summary List all groups
// @Tags groups
// @Router /api/v1/groups [get]
func (h *GroupHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	groups, err := h.groups.List(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, groups)
}

// @Summary Create group
// @Tags groups
// @Router /api/v1/admin/groups [post]
func (h *GroupHandler) Create(ctx *fasthttp.RequestCtx) {
	form, ok := h.parseGroup(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.groups.Create(stdCtx, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update group
// @Tags groups
// @Router /api/v1/admin/groups/{id} [put]
func (h *GroupHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	form, ok := h.parseGroup(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.groups.Update(stdCtx, id, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary List categories
// @Tags categories
// @Router /api/v1/categories [get]
func (h *GroupHandler) ListCategories(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	categories, err := h.categories.List(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, categories)
}

// @Summary Create or update a category
// @Tags categories
// @Router /api/v1/admin/categories [post]
func (h *GroupHandler) SaveCategory(ctx *fasthttp.RequestCtx) {
	var req transport.CategoryRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	saved, err := h.categories.Save(stdCtx, &domain.Category{
		ID:    req.ID,
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, saved)
}

func (h *GroupHandler) parseGroup(ctx *fasthttp.RequestCtx) (groupUC.Form, bool) {
	var req transport.GroupRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return groupUC.Form{}, false
	}
	return groupUC.Form{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		Color:    req.Color,
	}, true
}
