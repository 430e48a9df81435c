package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/reporting"
)

func (h *Handler) Dashboard(ec echo.Context) error {
	dashboard, err := h.reporter.Dashboard(ec.Request().Context())
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, dashboard)
}

// ExportPatients streams the population workbook. Options come either as a
// JSON body or the `options` query parameter; both are partial documents
// merged over the defaults.
func (h *Handler) ExportPatients(ec echo.Context) error {
	ctx := ec.Request().Context()

	overrides, err := exportOverrides(ec)
	if err != nil {
		return err
	}

	options, err := reporting.ParseOptions(overrides)
	if err != nil {
		return err
	}

	content, err := h.exporter.ExportBytes(ctx, options)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("poblacion_%s.xlsx", time.Now().Format("2006-01-02"))
	h.record(ec, audit.ReportExported(filename, h.currentUsername(ec)))

	ec.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ec.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

func exportOverrides(ec echo.Context) ([]byte, error) {
	if options := ec.QueryParam("options"); options != "" {
		return []byte(options), nil
	}

	if ec.Request().Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(ec.Request().Body)
	if err != nil {
		return nil, errors.BadRequest
	}
	return body, nil
}
