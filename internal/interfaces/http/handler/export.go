package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	exportapp "github.com/staydesk/backend/internal/application/export"
)

// Exporter builds reservation exports
type Exporter interface {
	Export(ctx context.Context, req exportapp.Request) (*exportapp.Result, error)
}

// ExportHandler serves reservation exports
type ExportHandler struct {
	BaseHandler
	exporter Exporter
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exporter Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

type exportQuery struct {
	ReservationQuery
	Format string `form:"format" binding:"omitempty,oneof=csv xlsx"`
	Upload bool   `form:"upload"`
}

// Reservations godoc
// @Summary      Export reservations
// @Description  Streams a CSV or XLSX file. With upload=true the file is stored and a download link is returned instead.
// @Tags         exports
// @Security     BearerAuth
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      json
// @Param        format query string false "csv (default) or xlsx"
// @Param        upload query bool   false "Store the file and return a link"
// @Success      200 {file} binary
// @Router       /exports/reservations [get]
func (h *ExportHandler) Reservations(c *gin.Context) {
	var q exportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), exportapp.Request{
		Filter: filter,
		Format: q.Format,
		Upload: q.Upload,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.URL != "" {
		h.Success(c, result)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(result.Rows))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
