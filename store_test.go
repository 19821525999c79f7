package transferful_test

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r0kas/transferful"
)

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func TestMemStoreUsers(t *testing.T) {
	t.Run("get returns ErrNotFound for unknown id", func(tt *testing.T) {
		as := assert.New(tt)
		store := transferful.NewMemStore()
		_, err := store.GetUser(snowflake.ParseInt64(42))
		as.ErrorAs(err, &transferful.ErrNotFound{})
	})

	t.Run("put then get round-trips", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		user := transferful.User{
			ID:            node.Generate(),
			Name:          "Ada",
			CountryCode:   "US",
			Type:          transferful.HolderPersonal,
			OwnedAccounts: []snowflake.ID{},
		}
		store.PutUser(&user)
		as.True(store.UserExists(user.ID))
		got, err := store.GetUser(user.ID)
		reqrd.NoError(err)
		as.Equal(user.Name, got.Name)
		as.Equal(user.CountryCode, got.CountryCode)
	})

	t.Run("get returns a snapshot, not a live reference", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		acctID := node.Generate()
		user := transferful.User{
			ID:            node.Generate(),
			Name:          "Ada",
			OwnedAccounts: []snowflake.ID{acctID},
		}
		store.PutUser(&user)

		got, err := store.GetUser(user.ID)
		reqrd.NoError(err)
		got.Name = "mutated"
		got.OwnedAccounts[0] = 0
		got.OwnedAccounts = append(got.OwnedAccounts, node.Generate())

		again, err := store.GetUser(user.ID)
		reqrd.NoError(err)
		as.Equal("Ada", again.Name)
		as.Equal([]snowflake.ID{acctID}, again.OwnedAccounts)
	})

	t.Run("remove deletes the record", func(tt *testing.T) {
		as := assert.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		user := transferful.User{ID: node.Generate()}
		store.PutUser(&user)
		store.RemoveUser(user.ID)
		as.False(store.UserExists(user.ID))
	})
}

func TestMemStoreUpdateUser(t *testing.T) {
	t.Run("missing id fails before fn runs", func(tt *testing.T) {
		as := assert.New(tt)
		store := transferful.NewMemStore()
		called := false
		err := store.UpdateUser(snowflake.ParseInt64(42), func(*transferful.User) error {
			called = true
			return nil
		})
		as.ErrorAs(err, &transferful.ErrNotFound{})
		as.False(called)
	})

	t.Run("fn error writes nothing", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		user := transferful.User{ID: node.Generate(), Name: "Ada"}
		store.PutUser(&user)

		err := store.UpdateUser(user.ID, func(u *transferful.User) error {
			u.Name = "mutated"
			return transferful.ErrConflict{Reason: "boom"}
		})
		as.ErrorAs(err, &transferful.ErrConflict{})

		got, err := store.GetUser(user.ID)
		reqrd.NoError(err)
		as.Equal("Ada", got.Name)
	})

	t.Run("nil return persists the mutated copy", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		user := transferful.User{ID: node.Generate(), Name: "Ada", OwnedAccounts: []snowflake.ID{}}
		store.PutUser(&user)

		acctID := node.Generate()
		err := store.UpdateUser(user.ID, func(u *transferful.User) error {
			u.OwnedAccounts = append(u.OwnedAccounts, acctID)
			return nil
		})
		reqrd.NoError(err)

		got, err := store.GetUser(user.ID)
		reqrd.NoError(err)
		as.Equal([]snowflake.ID{acctID}, got.OwnedAccounts)
	})
}

func TestMemStoreRemoveUserIf(t *testing.T) {
	t.Run("cond error keeps the record", func(tt *testing.T) {
		as := assert.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		user := transferful.User{ID: node.Generate()}
		store.PutUser(&user)

		err := store.RemoveUserIf(user.ID, func(*transferful.User) error {
			return transferful.ErrConflict{Reason: "linked"}
		})
		as.ErrorAs(err, &transferful.ErrConflict{})
		as.True(store.UserExists(user.ID))
	})

	t.Run("nil cond removes the record", func(tt *testing.T) {
		as := assert.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		user := transferful.User{ID: node.Generate()}
		store.PutUser(&user)

		err := store.RemoveUserIf(user.ID, func(*transferful.User) error { return nil })
		as.NoError(err)
		as.False(store.UserExists(user.ID))
	})

	t.Run("missing id reports ErrNotFound", func(tt *testing.T) {
		as := assert.New(tt)
		store := transferful.NewMemStore()
		err := store.RemoveUserIf(snowflake.ParseInt64(42), func(*transferful.User) error { return nil })
		as.ErrorAs(err, &transferful.ErrNotFound{})
	})
}

func TestMemStoreAccounts(t *testing.T) {
	t.Run("put, get, exists, remove", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		acct := transferful.Account{
			ID:       node.Generate(),
			Currency: "USD",
			Balance:  decimal.NewFromInt(100),
		}
		store.PutAccount(&acct)
		as.True(store.AccountExists(acct.ID))

		got, err := store.GetAccount(acct.ID)
		reqrd.NoError(err)
		as.True(got.Balance.Equal(decimal.NewFromInt(100)))

		store.RemoveAccount(acct.ID)
		as.False(store.AccountExists(acct.ID))
		_, err = store.GetAccount(acct.ID)
		as.ErrorAs(err, &transferful.ErrNotFound{})
	})

	t.Run("remove drops the journal too", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		acct := transferful.Account{ID: node.Generate(), Currency: "USD"}
		store.PutAccount(&acct)
		err := store.UpdateAccounts([]snowflake.ID{acct.ID}, func(accts []transferful.Account) ([]transferful.Account, []transferful.Charge, error) {
			ch := transferful.Charge{
				ID:        node.Generate(),
				AcctID:    acct.ID,
				Typ:       transferful.ChargeCredit,
				Amount:    decimal.NewFromInt(5),
				Currency:  "USD",
				CreatedOn: time.Now().UTC(),
			}
			return accts, []transferful.Charge{ch}, nil
		})
		reqrd.NoError(err)
		as.Len(store.AccountCharges(acct.ID), 1)

		store.RemoveAccount(acct.ID)
		as.Empty(store.AccountCharges(acct.ID))
	})
}

func TestMemStoreUpdateAccounts(t *testing.T) {
	t.Run("missing id fails before fn runs", func(tt *testing.T) {
		as := assert.New(tt)
		store := transferful.NewMemStore()
		called := false
		err := store.UpdateAccounts([]snowflake.ID{snowflake.ParseInt64(42)}, func([]transferful.Account) ([]transferful.Account, []transferful.Charge, error) {
			called = true
			return nil, nil, nil
		})
		as.ErrorAs(err, &transferful.ErrNotFound{})
		as.False(called)
	})

	t.Run("fn error writes nothing", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		acct := transferful.Account{ID: node.Generate(), Currency: "USD", Balance: decimal.NewFromInt(10)}
		store.PutAccount(&acct)

		boom := transferful.ErrConflict{Reason: "boom"}
		err := store.UpdateAccounts([]snowflake.ID{acct.ID}, func(accts []transferful.Account) ([]transferful.Account, []transferful.Charge, error) {
			accts[0].Balance = decimal.NewFromInt(9999)
			return accts, nil, boom
		})
		as.ErrorAs(err, &transferful.ErrConflict{})

		got, err := store.GetAccount(acct.ID)
		reqrd.NoError(err)
		as.True(got.Balance.Equal(decimal.NewFromInt(10)))
		as.Empty(store.AccountCharges(acct.ID))
	})

	t.Run("success persists accounts and charges atomically", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := transferful.NewMemStore()
		node := testNode(tt)
		src := transferful.Account{ID: node.Generate(), Currency: "USD", Balance: decimal.NewFromInt(100)}
		dst := transferful.Account{ID: node.Generate(), Currency: "USD", Balance: decimal.NewFromInt(0)}
		store.PutAccount(&src)
		store.PutAccount(&dst)

		err := store.UpdateAccounts([]snowflake.ID{src.ID, dst.ID}, func(accts []transferful.Account) ([]transferful.Account, []transferful.Charge, error) {
			accts[0].Balance = accts[0].Balance.Sub(decimal.NewFromInt(40))
			accts[1].Balance = accts[1].Balance.Add(decimal.NewFromInt(40))
			ch := transferful.Charge{ID: node.Generate(), AcctID: accts[0].ID, Typ: transferful.ChargeDebit, Amount: decimal.NewFromInt(40), Currency: "USD"}
			return accts, []transferful.Charge{ch}, nil
		})
		reqrd.NoError(err)

		gotSrc, err := store.GetAccount(src.ID)
		reqrd.NoError(err)
		gotDst, err := store.GetAccount(dst.ID)
		reqrd.NoError(err)
		as.True(gotSrc.Balance.Equal(decimal.NewFromInt(60)))
		as.True(gotDst.Balance.Equal(decimal.NewFromInt(40)))
		as.Len(store.AccountCharges(src.ID), 1)
	})
}
