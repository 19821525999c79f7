package transferful

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// HolderType describes what kind of entity holds accounts.
type HolderType string

const (
	HolderPersonal HolderType = "Personal"
	HolderBusiness HolderType = "Business"
)

// User is a formal entity accounts are linked to. A user cannot be
// deleted while OwnedAccounts is non-empty.
type User struct {
	ID            snowflake.ID   `json:"id"`
	CreatedOn     time.Time      `json:"createdOn"`
	UpdatedOn     time.Time      `json:"updatedOn"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	CountryCode   string         `json:"countryCode"`
	Type          HolderType     `json:"type"`
	OwnedAccounts []snowflake.ID `json:"ownedAccounts"`
}

// clone returns a copy safe to hand out or mutate without affecting
// the original; OwnedAccounts is the only shared backing array.
func (u *User) clone() *User {
	cp := *u
	cp.OwnedAccounts = make([]snowflake.ID, len(u.OwnedAccounts))
	copy(cp.OwnedAccounts, u.OwnedAccounts)
	return &cp
}

// Account is a funds holding entity. Currency and HolderID are fixed at
// creation; Balance never goes below zero.
type Account struct {
	ID        snowflake.ID    `json:"id"`
	HolderID  snowflake.ID    `json:"holderId"`
	CreatedOn time.Time       `json:"createdOn"`
	UpdatedOn time.Time       `json:"updatedOn"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
}

type ChargeType string

const (
	ChargeCredit ChargeType = "credit"
	ChargeDebit  ChargeType = "debit"
)

// Charge is a single journal entry against an account. Transfers record
// one debit on the source and one credit on the target, each carrying
// the other account as CounterAcct.
type Charge struct {
	ID          snowflake.ID    `json:"id"`
	AcctID      snowflake.ID    `json:"acctId"`
	Typ         ChargeType      `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CounterAcct snowflake.ID    `json:"counterAcct,omitempty"`
	CreatedOn   time.Time       `json:"createdOn"`
}
