package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params, filtered, err := ParseMonthParams(r.URL.Query(), s.transactions.Now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	txs := s.transactions.List()
	if filtered {
		if txs, err = s.transactions.ListMonth(params.Year, params.Month); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	}
	NewJSONResponse().Body(toJSONList(txs)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(toJSON(t)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	n, err := req.toNewTransaction(s.transactions.Today())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	t, err := s.transactions.Create(r.Context(), n)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Body(toJSON(t)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req transactionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	n, err := req.toNewTransaction(s.transactions.Today())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	t, err := s.transactions.Update(r.Context(), id, n)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(toJSON(t)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// writeServiceError maps service errors to responses. Unrecognized errors
// are logged and hidden behind a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrNotFound):
		NotFoundError("transaction not found").Write(w)
	case errors.Is(err, services.ErrInvalidMonth):
		BadRequestError(err.Error()).Write(w)
	case core.IsValidationError(err):
		log.FromContext(ctx).DebugContext(ctx, "Request rejected", log.FieldError, err)
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Transaction request failed", log.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}
