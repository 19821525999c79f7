package transferful

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	statusUp = []byte(`{"status": "up"}`)
)

// envelope is the JSON shape of every non-health response, error or not.
// The id is generated per response so failures can be correlated with
// server logs.
type envelope struct {
	ID       uuid.UUID   `json:"id"`
	Status   string      `json:"status"`
	Response interface{} `json:"response,omitempty"`
}

type userJSONReq struct {
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	CountryCode string     `json:"country"`
	Type        HolderType `json:"type"`
}

type userPatchJSONReq struct {
	Name        *string     `json:"name"`
	Address     *string     `json:"address"`
	CountryCode *string     `json:"country"`
	Type        *HolderType `json:"type"`
}

type accountJSONReq struct {
	HolderID snowflake.ID `json:"holderId"`
	Currency string       `json:"currency"`
}

type chargeJSONReq struct {
	AcctID   snowflake.ID    `json:"accountId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type transferJSONReq struct {
	SourceID snowflake.ID    `json:"sourceAccountId"`
	TargetID snowflake.ID    `json:"targetAccountId"`
	Amount   decimal.Decimal `json:"amount"`
}

type balanceJSONResp struct {
	AcctID  snowflake.ID    `json:"accountId"`
	Balance decimal.Decimal `json:"balance"`
}

func NewHTTPHandler(users UserService, accts AccountService, log *zerolog.Logger) http.Handler {
	hndlr := &httpHandler{
		Users: users,
		Accts: accts,
		Log:   log,
	}
	mux := chi.NewMux()
	mux.NotFound(HTTPNotFound)
	mux.Get("/health", hndlr.Health)
	mux.Route("/user", func(r chi.Router) {
		r.Post("/", hndlr.CreateUser)
		r.Route("/{userID:[0-9]+}", func(rr chi.Router) {
			rr.Get("/", hndlr.GetUser)
			rr.Patch("/", hndlr.UpdateUser)
			rr.Delete("/", hndlr.DeleteUser)
		})
	})
	mux.Route("/account", func(r chi.Router) {
		r.Post("/", hndlr.CreateAccount)
		r.Post("/deposit", hndlr.Deposit)
		r.Post("/withdraw", hndlr.Withdraw)
		r.Post("/transfer", hndlr.Transfer)
		r.Route("/{acctID:[0-9]+}", func(rr chi.Router) {
			rr.Get("/", hndlr.GetAccount)
			rr.Delete("/", hndlr.DeleteAccount)
			rr.Get("/statement", hndlr.Statement)
		})
	})

	return mux
}

type httpHandler struct {
	Users UserService
	Accts AccountService
	Log   *zerolog.Logger
}

func (h *httpHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(statusUp)
}

func (h *httpHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userJSONReq
	if !h.decode(w, r, "createUser", &req) {
		return
	}
	id, err := h.Users.CreateUser(CreateUserReq{
		Name:        req.Name,
		Address:     req.Address,
		CountryCode: req.CountryCode,
		Type:        req.Type,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	user, err := h.Users.GetUser(id)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *httpHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID", "getUser")
	if !ok {
		return
	}
	user, err := h.Users.GetUser(id)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *httpHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID", "updateUser")
	if !ok {
		return
	}
	var req userPatchJSONReq
	if !h.decode(w, r, "updateUser", &req) {
		return
	}
	user, err := h.Users.UpdateUser(id, UpdateUserReq{
		Name:        req.Name,
		Address:     req.Address,
		CountryCode: req.CountryCode,
		Type:        req.Type,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *httpHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID", "deleteUser")
	if !ok {
		return
	}
	if err := h.Users.DeleteUser(id); err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "deleted user with id: "+id.String())
}

func (h *httpHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountJSONReq
	if !h.decode(w, r, "createAccount", &req) {
		return
	}
	id, err := h.Accts.CreateAccount(CreateAccountReq{
		HolderID: req.HolderID,
		Currency: req.Currency,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	acct, err := h.Accts.GetAccount(id)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, acct)
}

func (h *httpHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "acctID", "getAccount")
	if !ok {
		return
	}
	acct, err := h.Accts.GetAccount(id)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acct)
}

func (h *httpHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "acctID", "deleteAccount")
	if !ok {
		return
	}
	if err := h.Accts.DeleteAccount(id); err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "deleted account with id: "+id.String())
}

func (h *httpHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req chargeJSONReq
	if !h.decode(w, r, "deposit", &req) {
		return
	}
	bal, err := h.Accts.Deposit(ChargeReq{
		AcctID:   req.AcctID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceJSONResp{AcctID: req.AcctID, Balance: *bal})
}

func (h *httpHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req chargeJSONReq
	if !h.decode(w, r, "withdraw", &req) {
		return
	}
	bal, err := h.Accts.Withdraw(ChargeReq{
		AcctID:   req.AcctID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceJSONResp{AcctID: req.AcctID, Balance: *bal})
}

func (h *httpHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferJSONReq
	if !h.decode(w, r, "transfer", &req) {
		return
	}
	err := h.Accts.Transfer(TransferReq{
		SourceID: req.SourceID,
		TargetID: req.TargetID,
		Amount:   req.Amount,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK,
		"transfer successful from account with id: "+req.SourceID.String()+
			" to account with id: "+req.TargetID.String())
}

func (h *httpHandler) Statement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "acctID", "statement")
	if !ok {
		return
	}
	// buffered so an error mid-render still yields a JSON error response
	var buf bytes.Buffer
	if err := h.Accts.Statement(&buf, id); err != nil {
		WriteHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	if _, err := io.Copy(w, &buf); err != nil {
		h.Log.Err(err).Str("method", "statement").Msg("error writing HTTP response")
	}
}

func (h *httpHandler) decode(w http.ResponseWriter, r *http.Request, method string, dst interface{}) bool {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", method).Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return false
	}
	if err = json.Unmarshal(buf, dst); err != nil {
		h.Log.Err(err).Str("method", method).Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return false
	}
	return true
}

func (h *httpHandler) pathID(w http.ResponseWriter, r *http.Request, param, method string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(chi.URLParam(r, param))
	if err != nil {
		h.Log.Err(err).Str("method", method).Msg("error parsing ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{param: "invalid format"}})
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := envelope{
		ID:       uuid.New(),
		Status:   http.StatusText(status),
		Response: data,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("error response encoding failed")
	}
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	errbr := &ErrBadRequest{}
	errnf := &ErrNotFound{}
	errcm := &ErrCurrencyMismatch{}
	erris := &ErrInsufficientFunds{}
	errcf := &ErrConflict{}
	switch {
	case errors.As(err, errbr):
		respondJSON(w, http.StatusBadRequest, errbr.Fields)
	case errors.As(err, errnf):
		respondJSON(w, http.StatusNotFound, errnf.Error())
	case errors.As(err, errcm):
		respondJSON(w, http.StatusConflict, "cannot complete. Incompatible currency")
	case errors.As(err, erris):
		respondJSON(w, http.StatusPaymentRequired, "insufficient funds in source account")
	case errors.As(err, errcf):
		respondJSON(w, http.StatusConflict, "cannot delete. Resource has linked objects")
	case errors.Is(err, ErrOverloaded):
		respondJSON(w, http.StatusServiceUnavailable, ErrOverloaded.Error())
	default:
		respondJSON(w, http.StatusInternalServerError, "server error")
	}
}

func HTTPNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]string{
		"path": r.URL.Path,
	}
	json.NewEncoder(w).Encode(resp)
}
