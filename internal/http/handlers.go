package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/ledger"
	applog "github.com/HelloDanni/billflow/internal/log"
	"github.com/HelloDanni/billflow/internal/services"
)

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	month := r.PathValue("month")

	// The revision in the key makes stale entries unreachable after any
	// mutation.
	key := fmt.Sprintf("%s@%d", month, s.budget.Revision())
	if view, found := s.viewCache.Get(key); found {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Month view cache hit", applog.FieldMonth, month)
		writeJSON(w, http.StatusOK, view)
		return
	}

	view := s.budget.MonthView(month, time.Now())
	s.viewCache.Set(key, view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePayPeriod(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("from")

	period := s.budget.PayPeriod(reference, time.Now())
	if period == nil {
		writeError(w, http.StatusNotFound, "no upcoming income in the lookahead window")
		return
	}
	writeJSON(w, http.StatusOK, period)
}

func (s *Server) handleAddBill(w http.ResponseWriter, r *http.Request) {
	var in ledger.BillInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	bill, fieldErrs, err := s.budget.AddBill(r.Context(), in)
	if err != nil {
		s.logger.LogError(r.Context(), "Add bill failed", err, applog.ComponentHTTP, applog.OpCreate, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not save bill")
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	writeJSON(w, http.StatusCreated, bill)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.budget.DeleteBill(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		s.logger.LogError(r.Context(), "Delete bill failed", err, applog.ComponentHTTP, applog.OpDelete,
			applog.LogFields{applog.FieldBillID: id})
		writeError(w, http.StatusInternalServerError, "could not delete bill")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOverrideBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	month, ok := core.ParseMonthKey(r.PathValue("month"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	var in ledger.PatchInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fieldErrs, err := s.budget.OverrideBill(r.Context(), month, id, in)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		s.logger.LogError(r.Context(), "Override bill failed", err, applog.ComponentHTTP, applog.OpOverride,
			applog.LogFields{applog.FieldBillID: id, applog.FieldMonth: month})
		writeError(w, http.StatusInternalServerError, "could not save override")
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	writeJSON(w, http.StatusOK, s.budget.MonthView(string(month), time.Now()))
}

func (s *Server) handleEditBillFuture(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	month, ok := core.ParseMonthKey(r.PathValue("month"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	var in ledger.PatchInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fieldErrs, err := s.budget.EditBillFuture(r.Context(), id, month, in)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		s.logger.LogError(r.Context(), "Edit bill failed", err, applog.ComponentHTTP, applog.OpUpdate,
			applog.LogFields{applog.FieldBillID: id, applog.FieldMonth: month})
		writeError(w, http.StatusInternalServerError, "could not save edit")
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	writeJSON(w, http.StatusOK, s.budget.MonthView(string(month), time.Now()))
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	month, ok := core.ParseMonthKey(r.PathValue("month"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	nowPaid, err := s.budget.TogglePaid(r.Context(), month, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		s.logger.LogError(r.Context(), "Toggle paid failed", err, applog.ComponentHTTP, applog.OpToggle,
			applog.LogFields{applog.FieldBillID: id, applog.FieldMonth: month})
		writeError(w, http.StatusInternalServerError, "could not toggle paid flag")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"billId": id,
		"month":  month,
		"paid":   nowPaid,
	})
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var in ledger.IncomeInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	income, fieldErrs, err := s.budget.AddIncome(r.Context(), in)
	if err != nil {
		s.logger.LogError(r.Context(), "Add income failed", err, applog.ComponentHTTP, applog.OpCreate, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not save income")
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	writeJSON(w, http.StatusCreated, income)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var in ledger.IncomeInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fieldErrs, err := s.budget.UpdateIncome(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "income not found")
			return
		}
		s.logger.LogError(r.Context(), "Update income failed", err, applog.ComponentHTTP, applog.OpUpdate,
			applog.LogFields{applog.FieldIncomeID: id})
		writeError(w, http.StatusInternalServerError, "could not save income")
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.budget.DeleteIncome(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "income not found")
			return
		}
		s.logger.LogError(r.Context(), "Delete income failed", err, applog.ComponentHTTP, applog.OpDelete,
			applog.LogFields{applog.FieldIncomeID: id})
		writeError(w, http.StatusInternalServerError, "could not delete income")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
