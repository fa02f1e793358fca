package http

import (
	"net/http"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/handler/http/response"
)

type PayrollHandler interface {
	Compute(w http.ResponseWriter, r *http.Request)
	Team(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	timeEntryService timeentry.TimeEntryService
}

func NewPayrollHandler(timeEntryService timeentry.TimeEntryService) PayrollHandler {
	return &payrollHandlerImpl{
		timeEntryService: timeEntryService,
	}
}

// Compute implements PayrollHandler.
func (h *payrollHandlerImpl) Compute(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.timeEntryService.ComputePayroll(r.Context(), actor, listFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Team implements PayrollHandler.
func (h *payrollHandlerImpl) Team(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	filter := listFilterFromQuery(r)
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timeEntryService.TeamPayroll(r.Context(), actor, filter.Window())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{
		Count: len(result),
		From:  filter.From,
		To:    filter.To,
	})
}
