package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/teamdo/backend/api/transport"
	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/pkg/httpcontext"
	todoUC "github.com/teamdo/backend/usecase/todo"
)

type TodoHandler struct {
	baseHandler
	uc *todoUC.Service
}

func NewTodoHandler(uc *todoUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List todos
// @Tags todos
// @Router /api/v1/todos [get]
func (h *TodoHandler) List(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}

	params := queryParams(ctx)
	req := todoUC.PageRequest{
		Page: parseInt(string(ctx.QueryArgs().Peek("page")), 0),
		Size: parseInt(string(ctx.QueryArgs().Peek("size")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.uc.FindPage(stdCtx, actorID, params, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, page)
}

// @Summary Get one todo
// @Tags todos
// @Router /api/v1/todos/{id} [get]
func (h *TodoHandler) Get(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	found, err := h.uc.Get(stdCtx, actorID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, found)
}

// @Summary Create todo
// @Tags todos
// @Router /api/v1/todos [post]
func (h *TodoHandler) Create(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	form, ok := h.parseForm(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, actorID, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update todo
// @Tags todos
// @Router /api/v1/todos/{id} [put]
func (h *TodoHandler) Update(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	form, ok := h.parseForm(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, actorID, id, form)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Toggle completion
// @Tags todos
// @Router /api/v1/todos/{id}/toggle [patch]
func (h *TodoHandler) Toggle(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	completed, err := h.uc.Toggle(stdCtx, actorID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]bool{"completed": completed})
}

// @Summary Delete todo
// @Tags todos
// @Router /api/v1/todos/{id} [delete]
func (h *TodoHandler) Delete(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, actorID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Bulk delete todos
// @Tags todos
// @Router /api/v1/todos/bulk-delete [post]
func (h *TodoHandler) BulkDelete(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	var req transport.BulkDeleteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || len(req.IDs) == 0 {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	deleted, err := h.uc.BulkDelete(stdCtx, actorID, req.IDs)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int64{"deleted": deleted})
}

// @Summary Export filtered todos as CSV
// @Tags todos
// @Router /api/v1/todos/export [get]
func (h *TodoHandler) Export(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rows, err := h.uc.FindForExport(stdCtx, actorID, queryParams(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondCSV(ctx, rows)
}

// @Summary Export selected todos as CSV
// @Tags todos
// @Router /api/v1/todos/export [post]
func (h *TodoHandler) ExportByIDs(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	var req transport.ExportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || len(req.IDs) == 0 {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rows, err := h.uc.FindForExportByIDs(stdCtx, actorID, req.IDs)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondCSV(ctx, rows)
}

// @Summary List attachments
// @Tags todos
// @Router /api/v1/todos/{id}/attachments [get]
func (h *TodoHandler) ListAttachments(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	attachments, err := h.uc.ListAttachments(stdCtx, actorID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, attachments)
}

// @Summary Attach file metadata
// @Tags todos
// @Router /api/v1/todos/{id}/attachments [post]
func (h *TodoHandler) AddAttachment(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.AttachmentRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.OriginalFilename == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.AddAttachment(stdCtx, actorID, &domain.Attachment{
		TodoID:           id,
		OriginalFilename: req.OriginalFilename,
		StoredFilename:   req.StoredFilename,
		ContentType:      req.ContentType,
		SizeBytes:        req.SizeBytes,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Remove attachment
// @Tags todos
// @Router /api/v1/todos/{id}/attachments/{attachmentID} [delete]
func (h *TodoHandler) DeleteAttachment(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.actorID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	attachmentID, ok := h.pathID(ctx, "attachmentID")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteAttachment(stdCtx, actorID, id, attachmentID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary List soft-deleted todos
// @Tags admin
// @Router /api/v1/admin/todos/deleted [get]
func (h *TodoHandler) ListDeleted(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rows, err := h.uc.ListDeleted(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, rows)
}

// @Summary Restore a soft-deleted todo
// @Tags admin
// @Router /api/v1/admin/todos/{id}/restore [post]
func (h *TodoHandler) Restore(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Restore(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Hard delete a todo
// @Tags admin
// @Router /api/v1/admin/todos/{id} [delete]
func (h *TodoHandler) HardDelete(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.HardDelete(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

func (h *TodoHandler) parseForm(ctx *fasthttp.RequestCtx) (todoUC.Form, bool) {
	var req transport.TodoRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return todoUC.Form{}, false
	}

	var due *time.Time
	if req.DueDate != "" {
		parsed, err := parseDate(req.DueDate)
		if err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid due_date", nil))
			return todoUC.Form{}, false
		}
		due = &parsed
	}

	return todoUC.Form{
		Title:           req.Title,
		Detail:          req.Description,
		DueDate:         due,
		Priority:        domain.ParsePriority(req.Priority),
		CategoryID:      req.CategoryID,
		GroupIDs:        req.GroupIDs,
		Status:          domain.Status(req.Status),
		AttachmentNames: req.Attachments,
		Version:         req.Version,
	}, true
}

func (h *TodoHandler) respondCSV(ctx *fasthttp.RequestCtx, rows []domain.Todo) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "title", "description", "author", "priority", "status", "due_date", "groups", "created_at"})
	for _, row := range rows {
		due := ""
		if row.DueDate != nil {
			due = row.DueDate.Format("2006-01-02")
		}
		groups := ""
		for i, g := range row.Groups {
			if i > 0 {
				groups += ";"
			}
			groups += g.Name
		}
		_ = w.Write([]string{
			strconv.FormatInt(row.ID, 10),
			row.Title,
			row.Description,
			row.Author,
			string(row.Priority),
			string(row.Status),
			due,
			groups,
			row.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()

	ctx.Response.Header.SetContentType("text/csv; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="todos.csv"`)
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(buf.Bytes())
}

func queryParams(ctx *fasthttp.RequestCtx) todoUC.QueryParams {
	params := todoUC.QueryParams{
		Keyword:   string(ctx.QueryArgs().Peek("keyword")),
		Sort:      string(ctx.QueryArgs().Peek("sort")),
		Direction: string(ctx.QueryArgs().Peek("direction")),
		Status:    string(ctx.QueryArgs().Peek("status")),
	}
	if raw := string(ctx.QueryArgs().Peek("category_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.CategoryID = &id
		}
	}
	if raw := string(ctx.QueryArgs().Peek("group_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.GroupID = &id
		}
	}
	return params
}
