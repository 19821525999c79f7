package transferful

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInternalServer = errors.New("internal server error")
	ErrOverloaded     = errors.New("service overloaded")
)

type ErrBadRequest struct {
	Fields map[string]string `json:"fields"`
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

type ErrNotFound struct {
	ID snowflake.ID `json:"id"`
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("no record found with id: %s", e.ID)
}

type ErrCurrencyMismatch struct {
	AcctID snowflake.ID `json:"acctId"`
	Want   string       `json:"want"`
	Got    string       `json:"got"`
}

func (e ErrCurrencyMismatch) Error() string {
	return fmt.Sprintf("account %s holds %s, not %s", e.AcctID, e.Want, e.Got)
}

type ErrInsufficientFunds struct {
	AcctID    snowflake.ID    `json:"acctId"`
	Balance   decimal.Decimal `json:"balance"`
	Requested decimal.Decimal `json:"requested"`
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("balance %s too low to withdraw %s", e.Balance, e.Requested)
}

type ErrConflict struct {
	Reason string `json:"reason"`
}

func (e ErrConflict) Error() string {
	return e.Reason
}

// isClientErr reports whether err is one of the typed failures the caller
// can act on, as opposed to a server-side fault.
func isClientErr(err error) bool {
	return errors.As(err, &ErrBadRequest{}) ||
		errors.As(err, &ErrNotFound{}) ||
		errors.As(err, &ErrCurrencyMismatch{}) ||
		errors.As(err, &ErrInsufficientFunds{}) ||
		errors.As(err, &ErrConflict{})
}
