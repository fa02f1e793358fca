package http

import (
	"net/http"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/handler/http/response"
)

type ReportHandler interface {
	Hours(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	timeEntryService timeentry.TimeEntryService
}

func NewReportHandler(timeEntryService timeentry.TimeEntryService) ReportHandler {
	return &reportHandlerImpl{
		timeEntryService: timeEntryService,
	}
}

// Hours implements ReportHandler.
func (h *reportHandlerImpl) Hours(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.timeEntryService.HoursReport(r.Context(), actor, listFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
