package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/teamdo/backend/pkg/httpcontext"
	"github.com/teamdo/backend/repository"
)

type AuditHandler struct {
	baseHandler
	logs repository.AuditLogRepository
}

func NewAuditHandler(logs repository.AuditLogRepository, adapter *httpcontext.Adapter, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		baseHandler: newBaseHandler(adapter, logger),
		logs:        logs,
	}
}

// @Summary Browse the audit trail
// @Tags admin
// @Router /api/v1/admin/audit-logs [get]
func (h *AuditHandler) List(ctx *fasthttp.RequestCtx) {
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 50)
	offset := parseInt(string(ctx.QueryArgs().Peek("offset")), 0)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.logs.List(stdCtx, limit, offset)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	total, err := h.logs.Count(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"items": entries,
		"total": total,
	})
}
