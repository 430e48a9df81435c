package api

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/auth"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/exams"
	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/patients/deriver"
	"github.com/sage3280/tracker/reporting"
	"github.com/sage3280/tracker/roster"
	"github.com/sage3280/tracker/store"
	"github.com/sage3280/tracker/users"
)

// Handler serves the v1 API. Reads go straight to the services and
// repositories; writes that touch derived data go through the deriver so
// controls and alerts stay in sync with the patient record.
type Handler struct {
	users    users.Service
	tokens   *auth.TokenIssuer
	deriver  deriver.Deriver
	patients patients.Service
	alerts   alerts.Repository
	controls controls.Repository
	exams    exams.Repository
	uploads  roster.Repository
	roster   *roster.Service
	reporter *reporting.Reporter
	exporter *reporting.Exporter
	audit    audit.Recorder
	logger   *zap.SugaredLogger
}

type Params struct {
	fx.In

	Users    users.Service
	Tokens   *auth.TokenIssuer
	Deriver  deriver.Deriver
	Patients patients.Service
	Alerts   alerts.Repository
	Controls controls.Repository
	Exams    exams.Repository
	Uploads  roster.Repository
	Roster   *roster.Service
	Reporter *reporting.Reporter
	Exporter *reporting.Exporter
	Audit    audit.Recorder
	Logger   *zap.SugaredLogger
}

func NewHandler(p Params) *Handler {
	return &Handler{
		users:    p.Users,
		tokens:   p.Tokens,
		deriver:  p.Deriver,
		patients: p.Patients,
		alerts:   p.Alerts,
		controls: p.Controls,
		exams:    p.Exams,
		uploads:  p.Uploads,
		roster:   p.Roster,
		reporter: p.Reporter,
		exporter: p.Exporter,
		audit:    p.Audit,
		logger:   p.Logger,
	}
}

func pagination(ec echo.Context) store.Pagination {
	page := store.DefaultPagination()
	if offset, err := strconv.Atoi(ec.QueryParam("offset")); err == nil && offset >= 0 {
		page.Offset = offset
	}
	if limit, err := strconv.Atoi(ec.QueryParam("limit")); err == nil && limit > 0 {
		page.Limit = limit
	}
	return page
}

func queryParam(ec echo.Context, name string) *string {
	value := ec.QueryParam(name)
	if value == "" {
		return nil
	}
	return &value
}

func boolQueryParam(ec echo.Context, name string) *bool {
	value := ec.QueryParam(name)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &parsed
}

func (h *Handler) record(ec echo.Context, entry audit.Entry) {
	if err := h.audit.Record(ec.Request().Context(), entry); err != nil {
		h.logger.Warnw("error recording audit entry", "action", entry.Action, "error", err)
	}
}
