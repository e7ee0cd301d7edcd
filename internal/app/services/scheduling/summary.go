package scheduling

import (
	"context"

	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

// Summary holds the dashboard counters for one user.
type Summary struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	Pending      int64            `json:"pending"`
	Confirmed    int64            `json:"confirmed"`
	Completed    int64            `json:"completed"`
	Counterparts int64            `json:"counterparts"`
	Unread       int64            `json:"unread_notifications"`
	ActiveSlots  int64            `json:"active_slots,omitempty"`
}

// Summary computes the user's dashboard counters. For mentors it includes
// the number of live slots; a blank role counts every appointment.
func (s *Service) Summary(ctx context.Context, userID, role string) (Summary, error) {
	byStatus, err := s.appts.CountByStatus(ctx, userID, role)
	if err != nil {
		s.log.Error("summary: count by status failed", zap.String("user_id", userID), zap.Error(err))
		return Summary{}, apperr.Store(MsgSummaryFailed, err)
	}
	sum := Summary{
		ByStatus:  byStatus,
		Pending:   byStatus[models.StatusPending],
		Confirmed: byStatus[models.StatusConfirmed],
		Completed: byStatus[models.StatusCompleted],
	}
	for _, n := range byStatus {
		sum.Total += n
	}

	if role == models.RoleMentor || role == models.RoleEmprendedor {
		if sum.Counterparts, err = s.appts.CountCounterparts(ctx, userID, role); err != nil {
			return Summary{}, apperr.Store(MsgSummaryFailed, err)
		}
	}
	if sum.Unread, err = s.notes.CountUnread(ctx, userID); err != nil {
		return Summary{}, apperr.Store(MsgSummaryFailed, err)
	}
	if role == models.RoleMentor {
		slots, err := s.slots.ListActive(ctx, userID)
		if err != nil {
			return Summary{}, apperr.Store(MsgSummaryFailed, err)
		}
		sum.ActiveSlots = int64(len(slots))
	}
	return sum, nil
}
