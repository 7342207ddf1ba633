package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DatabaseState reports whether a database pool is attached.
type DatabaseState interface {
	Enabled() bool
}

type HealthHandler struct {
	db DatabaseState
}

func NewHealthHandler(db DatabaseState) *HealthHandler { return &HealthHandler{db: db} }

// Health reports liveness and whether the database is enabled.  It never
// touches the database itself.
func (h *HealthHandler) Health(c echo.Context) error {
	state := "disabled"
	if h.db != nil && h.db.Enabled() {
		state = "enabled"
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "db": state})
}
