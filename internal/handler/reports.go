package handler

import (
	"net/http"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// SessionReport returns every chart series for a client's sessions in one
// response: autonomy by category, performance over time and load trend.
func (h *ReportsHandler) SessionReport(c *gin.Context) {
	var filter dto.ReportFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.SessionReport(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
