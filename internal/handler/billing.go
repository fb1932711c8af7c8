package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agency73code/indigo-gestao-sub010/internal/apierror"
	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

// maxAttachmentSize caps each uploaded file at 10 MiB.
const maxAttachmentSize = 10 << 20

type BillingHandler struct{ svc service.BillingService }

func NewBillingHandler(svc service.BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

func (h *BillingHandler) Create(c *gin.Context) {
	var req dto.CreateBillingEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BillingHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) List(c *gin.Context) {
	var filter dto.BillingFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) Approve(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Approve(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) Reject(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RejectBillingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reject(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Correct consumes a multipart form: a "data" part with the corrected fields
// as JSON plus any number of "attachments" files.
func (h *BillingHandler) Correct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.CorrectBillingRequest
	if data := c.PostForm("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid JSON in data part: "+err.Error()))
			return
		}
	}
	if !validateStruct(c, &req) {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid multipart form: "+err.Error()))
		return
	}

	var uploads []service.AttachmentUpload
	for _, fh := range form.File["attachments"] {
		if fh.Size > maxAttachmentSize {
			c.JSON(http.StatusRequestEntityTooLarge, apierror.New("attachment too large: "+fh.Filename))
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("cannot read attachment: "+fh.Filename))
			return
		}
		defer f.Close()
		uploads = append(uploads, service.AttachmentUpload{FileName: fh.Filename, Reader: f})
	}

	resp, err := h.svc.Correct(c.Request.Context(), actorFrom(c), id, req, uploads)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) BulkApprove(c *gin.Context) {
	var req dto.BulkApproveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.BulkApprove(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) DownloadAttachment(c *gin.Context) {
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathUUID(c, "attachment_id")
	if !ok {
		return
	}
	path, fileName, err := h.svc.AttachmentPath(c.Request.Context(), actorFrom(c), entryID, attachmentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.FileAttachment(path, fileName)
}

// Statements

func (h *BillingHandler) GenerateStatement(c *gin.Context) {
	var req dto.GenerateStatementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerateStatement(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *BillingHandler) GetStatement(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetStatement(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) ListStatements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	statements, total, err := h.svc.ListStatements(c.Request.Context(), actorFrom(c), c.Query("therapist_id"), page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": statements, "total": total, "page": page, "limit": limit})
}

func (h *BillingHandler) DownloadStatementPDF(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	path, err := h.svc.StatementPDFPath(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.FileAttachment(path, "statement.pdf")
}
