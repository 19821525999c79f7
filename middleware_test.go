package transferful_test

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/r0kas/transferful"
	"github.com/r0kas/transferful/mocks"
)

func testLimits(n int64) *transferful.ServiceLimits {
	return transferful.NewServiceLimits(transferful.LimitsConfig{
		Deposit:   n,
		Withdraw:  n,
		Transfer:  n,
		Statement: n,
	})
}

func TestLimitMiddleware(t *testing.T) {
	t.Run("sheds deposits above the in-flight cap", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockAccountService(ctrl)

		entered := make(chan struct{})
		release := make(chan struct{})
		bal := decimal.Zero
		svc.EXPECT().
			Deposit(gomock.AssignableToTypeOf(transferful.ChargeReq{})).
			DoAndReturn(func(r transferful.ChargeReq) (*decimal.Decimal, error) {
				close(entered)
				<-release
				return &bal, nil
			}).
			Times(1)

		lm := transferful.NewLimitMiddleware(testLimits(1))(svc)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lm.Deposit(transferful.ChargeReq{Amount: decimal.NewFromInt(1), Currency: "USD"})
			as.NoError(err)
		}()
		<-entered

		_, err := lm.Deposit(transferful.ChargeReq{Amount: decimal.NewFromInt(1), Currency: "USD"})
		as.ErrorIs(err, transferful.ErrOverloaded)

		close(release)
		wg.Wait()
	})

	t.Run("lifecycle calls pass through unlimited", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockAccountService(ctrl)
		node := testNode(tt)
		aid := node.Generate()
		svc.EXPECT().
			GetAccount(aid).
			Return(&transferful.Account{ID: aid, Currency: "USD"}, nil).
			Times(1)

		lm := transferful.NewLimitMiddleware(testLimits(1))(svc)
		acct, err := lm.GetAccount(aid)
		reqrd.NoError(err)
		as.Equal(aid, acct.ID)
	})
}

func TestCircuitBreakMiddleware(t *testing.T) {
	breakerCfg := transferful.BreakerConfig{
		MaxRequests:      1,
		IntervalSecs:     60,
		TimeoutSecs:      60,
		FailureThreshold: 2,
	}

	t.Run("opens after consecutive server faults", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockAccountService(ctrl)
		svc.EXPECT().
			Deposit(gomock.AssignableToTypeOf(transferful.ChargeReq{})).
			Return(nil, transferful.ErrInternalServer).
			Times(2)

		cb := transferful.NewCircuitBreakMiddleware(transferful.NewServiceBreaker(breakerCfg))(svc)
		req := transferful.ChargeReq{Amount: decimal.NewFromInt(1), Currency: "USD"}

		for i := 0; i < 2; i++ {
			_, err := cb.Deposit(req)
			as.ErrorIs(err, transferful.ErrInternalServer)
		}

		// breaker is open now; the service must not be called again
		_, err := cb.Deposit(req)
		as.ErrorIs(err, transferful.ErrOverloaded)
	})

	t.Run("typed domain failures do not trip the breaker", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockAccountService(ctrl)
		insufficient := transferful.ErrInsufficientFunds{
			Balance:   decimal.NewFromInt(1),
			Requested: decimal.NewFromInt(100),
		}
		svc.EXPECT().
			Withdraw(gomock.AssignableToTypeOf(transferful.ChargeReq{})).
			Return(nil, insufficient).
			Times(5)

		cb := transferful.NewCircuitBreakMiddleware(transferful.NewServiceBreaker(breakerCfg))(svc)
		req := transferful.ChargeReq{Amount: decimal.NewFromInt(100), Currency: "USD"}

		for i := 0; i < 5; i++ {
			_, err := cb.Withdraw(req)
			as.ErrorAs(err, &transferful.ErrInsufficientFunds{})
		}
	})
}
