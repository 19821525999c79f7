package transferful

import (
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateAccountReq struct {
	HolderID snowflake.ID `validate:"required"`
	Currency string       `validate:"required,iso4217"`
}

// ChargeReq is a single-account balance mutation. The sign of Amount is
// ignored; deposits and withdrawals both apply its absolute value.
type ChargeReq struct {
	AcctID   snowflake.ID `validate:"required"`
	Amount   decimal.Decimal
	Currency string `validate:"required,iso4217"`
}

type TransferReq struct {
	SourceID snowflake.ID `validate:"required"`
	TargetID snowflake.ID `validate:"required"`
	Amount   decimal.Decimal
}

type AccountService interface {
	CreateAccount(req CreateAccountReq) (snowflake.ID, error)
	GetAccount(id snowflake.ID) (*Account, error)
	DeleteAccount(id snowflake.ID) error
	Deposit(req ChargeReq) (*decimal.Decimal, error)
	Withdraw(req ChargeReq) (*decimal.Decimal, error)
	Transfer(req TransferReq) error
	Statement(w io.Writer, id snowflake.ID) error
}

func NewAccountService(store Store, node *snowflake.Node) *accountService {
	return &accountService{
		store: store,
		node:  node,
	}
}

type accountService struct {
	store Store
	node  *snowflake.Node
}

var (
	_ AccountService = (*accountService)(nil)
)

func (s *accountService) CreateAccount(req CreateAccountReq) (snowflake.ID, error) {
	if err := validateReq(req); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	acct := Account{
		ID:        s.node.Generate(),
		HolderID:  req.HolderID,
		CreatedOn: now,
		UpdatedOn: now,
		Currency:  req.Currency,
		Balance:   decimal.Zero,
	}
	s.store.PutAccount(&acct)

	err := s.store.UpdateUser(req.HolderID, func(u *User) error {
		u.OwnedAccounts = append(u.OwnedAccounts, acct.ID)
		u.UpdatedOn = now
		return nil
	})
	if err != nil {
		// holder gone; undo the orphan account
		s.store.RemoveAccount(acct.ID)
		return 0, err
	}

	return acct.ID, nil
}

func (s *accountService) GetAccount(id snowflake.ID) (*Account, error) {
	return s.store.GetAccount(id)
}

func (s *accountService) DeleteAccount(id snowflake.ID) error {
	acct, err := s.store.GetAccount(id)
	if err != nil {
		return err
	}

	// the holder may already be gone; the unlink is best effort
	_ = s.store.UpdateUser(acct.HolderID, func(u *User) error {
		u.OwnedAccounts = removeID(u.OwnedAccounts, acct.ID)
		u.UpdatedOn = time.Now().UTC()
		return nil
	})
	s.store.RemoveAccount(acct.ID)
	return nil
}

func (s *accountService) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	if err := validateReq(req); err != nil {
		return nil, err
	}

	amt := req.Amount.Abs()
	var bal decimal.Decimal
	err := s.store.UpdateAccounts([]snowflake.ID{req.AcctID}, func(accts []Account) ([]Account, []Charge, error) {
		acct := accts[0]
		if !currenciesMatch(acct.Currency, req.Currency) {
			return nil, nil, ErrCurrencyMismatch{AcctID: acct.ID, Want: acct.Currency, Got: req.Currency}
		}
		now := time.Now().UTC()
		acct.Balance = acct.Balance.Add(amt)
		acct.UpdatedOn = now
		bal = acct.Balance
		ch := Charge{
			ID:        s.node.Generate(),
			AcctID:    acct.ID,
			Typ:       ChargeCredit,
			Amount:    amt,
			Currency:  acct.Currency,
			CreatedOn: now,
		}
		return []Account{acct}, []Charge{ch}, nil
	})
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

func (s *accountService) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	if err := validateReq(req); err != nil {
		return nil, err
	}

	amt := req.Amount.Abs()
	var bal decimal.Decimal
	err := s.store.UpdateAccounts([]snowflake.ID{req.AcctID}, func(accts []Account) ([]Account, []Charge, error) {
		acct := accts[0]
		if !currenciesMatch(acct.Currency, req.Currency) {
			return nil, nil, ErrCurrencyMismatch{AcctID: acct.ID, Want: acct.Currency, Got: req.Currency}
		}
		if !sufficientBalance(acct.Balance, amt) {
			return nil, nil, ErrInsufficientFunds{AcctID: acct.ID, Balance: acct.Balance, Requested: amt}
		}
		now := time.Now().UTC()
		acct.Balance = acct.Balance.Sub(amt)
		acct.UpdatedOn = now
		bal = acct.Balance
		ch := Charge{
			ID:        s.node.Generate(),
			AcctID:    acct.ID,
			Typ:       ChargeDebit,
			Amount:    amt,
			Currency:  acct.Currency,
			CreatedOn: now,
		}
		return []Account{acct}, []Charge{ch}, nil
	})
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

// Transfer moves |amount| from source to target as one atomic two-account
// update. Both accounts must exist and hold the same currency, and the
// source must cover the amount; otherwise nothing changes.
func (s *accountService) Transfer(req TransferReq) error {
	if err := validateReq(req); err != nil {
		return err
	}

	amt := req.Amount.Abs()
	ids := []snowflake.ID{req.SourceID, req.TargetID}
	if req.SourceID == req.TargetID {
		ids = ids[:1]
	}

	return s.store.UpdateAccounts(ids, func(accts []Account) ([]Account, []Charge, error) {
		src := accts[0]
		dst := accts[len(accts)-1]
		if !currenciesMatch(src.Currency, dst.Currency) {
			return nil, nil, ErrCurrencyMismatch{AcctID: dst.ID, Want: dst.Currency, Got: src.Currency}
		}
		if !sufficientBalance(src.Balance, amt) {
			return nil, nil, ErrInsufficientFunds{AcctID: src.ID, Balance: src.Balance, Requested: amt}
		}

		now := time.Now().UTC()
		charges := []Charge{
			{
				ID:          s.node.Generate(),
				AcctID:      src.ID,
				Typ:         ChargeDebit,
				Amount:      amt,
				Currency:    src.Currency,
				CounterAcct: dst.ID,
				CreatedOn:   now,
			},
			{
				ID:          s.node.Generate(),
				AcctID:      dst.ID,
				Typ:         ChargeCredit,
				Amount:      amt,
				Currency:    dst.Currency,
				CounterAcct: src.ID,
				CreatedOn:   now,
			},
		}

		if src.ID == dst.ID {
			// transferring to self leaves the balance as is
			src.UpdatedOn = now
			return []Account{src}, charges, nil
		}

		src.Balance = src.Balance.Sub(amt)
		src.UpdatedOn = now
		dst.Balance = dst.Balance.Add(amt)
		dst.UpdatedOn = now
		return []Account{src, dst}, charges, nil
	})
}

func (s *accountService) Statement(w io.Writer, id snowflake.ID) error {
	acct, err := s.store.GetAccount(id)
	if err != nil {
		return err
	}
	return writeStatement(w, acct, s.store.AccountCharges(id))
}

func removeID(ids []snowflake.ID, id snowflake.ID) []snowflake.ID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
