package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/wager/domain"
	"github.com/radieske/wager-ledger/internal/wager/repo"
	"github.com/radieske/wager-ledger/internal/wager/service"
)

// Wagers é o conjunto de comandos e consultas exposto pela API
type Wagers interface {
	Open(ctx context.Context, cmd service.OpenCommand) (*domain.Wager, error)
	Bet(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error)
	Win(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error)
	Lose(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error)
	Confirm(ctx context.Context, id, txID string, at time.Time) (*domain.Wager, error)
	Cancel(ctx context.Context, id, txID string, at time.Time) (*domain.Wager, error)
	Get(ctx context.Context, id string) (*domain.Wager, error)
}

type amountFunc func(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error)
type finalizeFunc func(ctx context.Context, id, txID string, at time.Time) (*domain.Wager, error)

// API expõe os endpoints REST das apostas
// LiveUpdates é opcional: quando presente, atende o WebSocket em /ws
type API struct {
	Log         *zap.Logger
	Wagers      Wagers
	LiveUpdates http.HandlerFunc
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/wagers", a.open)                                        // abre aposta
	r.Get("/wagers/{id}", a.get)                                     // documento atual
	r.Post("/wagers/{id}/bet", a.amountCommand("bet", a.Wagers.Bet)) // eventos com valor
	r.Post("/wagers/{id}/win", a.amountCommand("win", a.Wagers.Win))
	r.Post("/wagers/{id}/lose", a.amountCommand("lose", a.Wagers.Lose))
	r.Post("/wagers/{id}/confirm", a.finalizeCommand("confirm", a.Wagers.Confirm)) // finalização
	r.Post("/wagers/{id}/cancel", a.finalizeCommand("cancel", a.Wagers.Cancel))
	if a.LiveUpdates != nil {
		r.Get("/ws", a.LiveUpdates)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) open(w http.ResponseWriter, r *http.Request) {
	var req OpenWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad json", Op: "open"})
		return
	}
	wager, err := a.Wagers.Open(r.Context(), service.OpenCommand{
		WagerID:       req.WagerID,
		GameID:        req.GameID,
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		TransactionID: req.TransactionID,
		OccurredAt:    deref(req.OccurredAt),
	})
	if err != nil {
		a.writeError(w, "open", req.WagerID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(wager))
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wager, err := a.Wagers.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, "get", id, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(wager))
}

func (a *API) amountCommand(op string, fn amountFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req AmountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad json", WagerID: id, Op: op})
			return
		}
		if req.Amount == nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "amount required", WagerID: id, Op: op})
			return
		}
		wager, err := fn(r.Context(), id, req.TransactionID, deref(req.OccurredAt), *req.Amount)
		if err != nil {
			a.writeError(w, op, id, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(wager))
	}
}

func (a *API) finalizeCommand(op string, fn finalizeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req FinalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad json", WagerID: id, Op: op})
			return
		}
		wager, err := fn(r.Context(), id, req.TransactionID, deref(req.OccurredAt))
		if err != nil {
			a.writeError(w, op, id, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(wager))
	}
}

// writeError traduz o erro para status HTTP; a mensagem nunca expõe estado interno
func (a *API) writeError(w http.ResponseWriter, op, id string, err error) {
	resp := ErrorResponse{WagerID: id, Op: op}
	var opErr *domain.OpError
	if errors.As(err, &opErr) {
		resp.Op = opErr.Op
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status, resp.Error = http.StatusBadRequest, reason(opErr, err)
	case errors.Is(err, domain.ErrInvalidEvent):
		status, resp.Error = http.StatusBadRequest, reason(opErr, err)
	case errors.Is(err, repo.ErrNotFound):
		status, resp.Error = http.StatusNotFound, "wager not found"
	case errors.Is(err, domain.ErrInvalidOperation):
		status, resp.Error = http.StatusConflict, reason(opErr, err)
	case errors.Is(err, repo.ErrAlreadyExists):
		status, resp.Error = http.StatusConflict, "wager already exists"
	case errors.Is(err, repo.ErrConcurrencyConflict):
		status, resp.Error, resp.Retry = http.StatusConflict, "concurrent update", true
	default:
		resp.Error = "internal error"
		a.Log.Error("wager request failed", zap.String("wagerId", id), zap.String("op", op), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

// reason usa a causa do OpError, sem o prefixo com id e operação que já vão no corpo
func reason(opErr *domain.OpError, err error) string {
	if opErr != nil {
		return opErr.Err.Error()
	}
	return err.Error()
}
