package engine

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/positionledger/positionledger/contract"
	dbtransaction "github.com/positionledger/positionledger/database/repository/transaction"
	"github.com/positionledger/positionledger/encoding/json"
	"github.com/positionledger/positionledger/ledger"
	"github.com/positionledger/positionledger/log"
	"github.com/positionledger/positionledger/transaction"
)

const maxRequestBodySize = 1 << 16

var errInvalidTimeRange = errors.New("invalid time range")

// Route is a single REST endpoint
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// APIError is the body returned for any failed request
type APIError struct {
	Error string `json:"error"`
}

type apiHandler struct {
	manager *PositionManager
}

// RESTLogger logs the requests internally
func RESTLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Debugf(log.RESTSys,
			"%s\t%s\t%s\t%s",
			r.Method,
			r.RequestURI,
			name,
			time.Since(start),
		)
	})
}

// NewRouter returns the REST router serving the position manager
func NewRouter(m *PositionManager) (*mux.Router, error) {
	if m == nil {
		return nil, errNilManager
	}
	h := &apiHandler{manager: m}
	routes := []Route{
		{"OpenPositions", http.MethodGet, "/v1/positions", h.getOpenPositions},
		{"AllSnapshots", http.MethodGet, "/v1/snapshots", h.getAllSnapshots},
		{"Position", http.MethodGet, "/v1/positions/{instrument}", h.getPosition},
		{"RealisedReports", http.MethodGet, "/v1/positions/{instrument}/realised", h.getRealised},
		{"SubmitTransaction", http.MethodPost, "/v1/transactions", h.postTransaction},
		{"RemoveTransaction", http.MethodDelete, "/v1/transactions/{instrument}/{sourceID}", h.deleteTransaction},
	}
	router := mux.NewRouter().StrictSlash(true)
	for i := range routes {
		router.
			Methods(routes[i].Method).
			Path(routes[i].Pattern).
			Name(routes[i].Name).
			Handler(RESTLogger(routes[i].HandlerFunc, routes[i].Name))
	}
	return router, nil
}

func (h *apiHandler) getOpenPositions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.manager.OpenPositions(r.Context())
	if err != nil && len(resp) == 0 {
		writeError(w, r, err)
		return
	}
	if err != nil {
		log.Warnf(log.RESTSys, "Partial open positions response: %v", err)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *apiHandler) getAllSnapshots(w http.ResponseWriter, r *http.Request) {
	resp, err := h.manager.RecomputeAll(r.Context())
	if err != nil && len(resp) == 0 {
		writeError(w, r, err)
		return
	}
	if err != nil {
		log.Warnf(log.RESTSys, "Partial positions response: %v", err)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *apiHandler) getPosition(w http.ResponseWriter, r *http.Request) {
	resp, err := h.manager.Recompute(r.Context(), mux.Vars(r)["instrument"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *apiHandler) getRealised(w http.ResponseWriter, r *http.Request) {
	resp, err := h.manager.RealisedReports(r.Context(), mux.Vars(r)["instrument"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" {
		start, end, err := parseTimeRange(q.Get("start"), q.Get("end"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if resp, err = ledger.ReportsBetween(resp, start, end); err != nil {
			writeError(w, r, fmt.Errorf("%w: %w", errInvalidTimeRange, err))
			return
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *apiHandler) postTransaction(w http.ResponseWriter, r *http.Request) {
	var tx transaction.Transaction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&tx); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", transaction.ErrInvalidTransaction, err))
		return
	}
	resp, err := h.manager.SubmitTransaction(r.Context(), &tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

func (h *apiHandler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resp, err := h.manager.RemoveTransaction(r.Context(), vars["instrument"], vars["sourceID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// parseTimeRange parses RFC3339 bounds. An empty end defaults to now
func parseTimeRange(start, end string) (s, e time.Time, err error) {
	if start == "" {
		return s, e, fmt.Errorf("%w: start required", errInvalidTimeRange)
	}
	if s, err = time.Parse(time.RFC3339, start); err != nil {
		return s, e, fmt.Errorf("%w start: %w", errInvalidTimeRange, err)
	}
	if end == "" {
		return s, time.Now(), nil
	}
	if e, err = time.Parse(time.RFC3339, end); err != nil {
		return s, e, fmt.Errorf("%w end: %w", errInvalidTimeRange, err)
	}
	return s, e, nil
}

// statusFromError maps domain errors onto HTTP status codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, contract.ErrMissingContractSpec),
		errors.Is(err, dbtransaction.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, dbtransaction.ErrDuplicateTransaction):
		return http.StatusConflict
	case errors.Is(err, transaction.ErrInvalidTransaction),
		errors.Is(err, errEmptyParams),
		errors.Is(err, errInvalidTimeRange):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrOrderingAmbiguity),
		errors.Is(err, ledger.ErrInvalidAveragePrice),
		errors.Is(err, ledger.ErrInstrumentMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.Errorf(log.RESTSys, "%s %s: %v", r.Method, r.RequestURI, err)
	}
	writeJSON(w, r, status, APIError{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, response any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf(log.RESTSys, "RESTful %s: server failed to send JSON response. Error %s", r.Method, err)
	}
}
