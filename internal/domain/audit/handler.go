package audit

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/audits", h.RunAudit)
}

// RunAudit accepts a multipart upload in the "statement" field and runs
// it through the reconciliation engine.
func (h *Handler) RunAudit(c echo.Context) error {
	fh, err := c.FormFile("statement")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "statement file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open statement file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read statement file")
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	report, err := h.engine.Run(c.Request().Context(), data, mimeType)
	if err != nil {
		var extractErr *ExtractionError
		if errors.As(err, &extractErr) {
			return echo.NewHTTPError(http.StatusBadGateway, extractErr.Error())
		}
		// Some records may already be updated; return what happened.
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":  err.Error(),
			"report": report,
		})
	}
	return c.JSON(http.StatusOK, report)
}
