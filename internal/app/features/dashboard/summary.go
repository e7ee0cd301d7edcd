// internal/app/features/dashboard/summary.go
package dashboard

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type summaryData struct {
	Role string `json:"role"`
	scheduling.Summary
}

// ServeSummary returns the mentor or emprendedor counters.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	role := strings.ToLower(strings.TrimSpace(u.Role))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sum, err := h.Scheduling.Summary(ctx, u.ID, role)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.Log.Debug("dashboard served", zap.String("user", u.ID), zap.String("role", role))
	respond.JSON(w, http.StatusOK, summaryData{Role: role, Summary: sum})
}
