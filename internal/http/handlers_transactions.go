package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"partita/internal/core"
	"partita/internal/log"
	"partita/internal/services"
)

// transactionRequest carries caller-supplied fields. Pointers distinguish
// "absent" from "zero" so PATCH can be partial.
type transactionRequest struct {
	Debit  *core.Entry      `json:"debit"`
	Credit *core.Entry      `json:"credit"`
	Amount *decimal.Decimal `json:"amount"`
	Date   *string          `json:"date"`
}

func (req *transactionRequest) toInput() (services.TransactionInput, error) {
	in := services.TransactionInput{
		Debit:  req.Debit,
		Credit: req.Credit,
		Amount: req.Amount,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return services.TransactionInput{}, err
		}
		in.Date = &date
	}
	return in, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user *core.User) {
	if txs, found := s.listCache.Get(user.ID); found {
		writeData(w, http.StatusOK, txs)
		return
	}

	txs, err := s.ledger.ListByOwner(r.Context(), user.ID)
	if err != nil {
		requestLog(r).LogError(r.Context(), "List transactions failed", err,
			log.ComponentLedger, log.OpList, log.NewFields().WithUser(user.ID))
		writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	s.listCache.Set(user.ID, txs)
	writeData(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user *core.User) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.ledger.Create(r.Context(), user.ID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.listCache.Delete(user.ID)
	requestLog(r).LogTransactionWrite(r.Context(), log.OpCreate, tx.ID, tx.Debit.Main, tx.Credit.Main, tx.Amount.String())
	writeData(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, user *core.User) {
	id := r.PathValue("id")

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.ledger.Update(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Ownership isn't checked on update, so the stored owner's cached
	// listing is the one that went stale.
	s.listCache.Delete(tx.OwnerID)
	requestLog(r).LogTransactionWrite(r.Context(), log.OpUpdate, tx.ID, tx.Debit.Main, tx.Credit.Main, tx.Amount.String())
	writeData(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user *core.User) {
	id := r.PathValue("id")

	tx, err := s.ledger.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	owner := user.ID
	if tx != nil {
		owner = tx.OwnerID
	}
	s.listCache.Delete(owner)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
