package transferful

import (
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(AccountService) AccountService

//
// Rate limiting middleware
//

// limitMiddleware sheds load on the balance-mutation and statement paths by
// capping in-flight calls per method with a weighted semaphore. Limits are
// static and come from configuration; lifecycle calls pass through.
type limitMiddleware struct {
	next   AccountService
	limits *ServiceLimits
}

var (
	_ AccountService = (*limitMiddleware)(nil)
)

type ServiceLimits struct {
	Deposit   *semaphore.Weighted
	Withdraw  *semaphore.Weighted
	Transfer  *semaphore.Weighted
	Statement *semaphore.Weighted
}

func NewServiceLimits(cfg LimitsConfig) *ServiceLimits {
	return &ServiceLimits{
		Deposit:   semaphore.NewWeighted(cfg.Deposit),
		Withdraw:  semaphore.NewWeighted(cfg.Withdraw),
		Transfer:  semaphore.NewWeighted(cfg.Transfer),
		Statement: semaphore.NewWeighted(cfg.Statement),
	}
}

func NewLimitMiddleware(limits *ServiceLimits) Middleware {
	return func(next AccountService) AccountService {
		return &limitMiddleware{
			next:   next,
			limits: limits,
		}
	}
}

func (l *limitMiddleware) CreateAccount(req CreateAccountReq) (snowflake.ID, error) {
	return l.next.CreateAccount(req)
}

func (l *limitMiddleware) GetAccount(id snowflake.ID) (*Account, error) {
	return l.next.GetAccount(id)
}

func (l *limitMiddleware) DeleteAccount(id snowflake.ID) error {
	return l.next.DeleteAccount(id)
}

func (l *limitMiddleware) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	if !l.limits.Deposit.TryAcquire(1) {
		return nil, ErrOverloaded
	}
	defer l.limits.Deposit.Release(1)
	return l.next.Deposit(req)
}

func (l *limitMiddleware) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	if !l.limits.Withdraw.TryAcquire(1) {
		return nil, ErrOverloaded
	}
	defer l.limits.Withdraw.Release(1)
	return l.next.Withdraw(req)
}

func (l *limitMiddleware) Transfer(req TransferReq) error {
	if !l.limits.Transfer.TryAcquire(1) {
		return ErrOverloaded
	}
	defer l.limits.Transfer.Release(1)
	return l.next.Transfer(req)
}

func (l *limitMiddleware) Statement(w io.Writer, id snowflake.ID) error {
	if !l.limits.Statement.TryAcquire(1) {
		return ErrOverloaded
	}
	defer l.limits.Statement.Release(1)
	return l.next.Statement(w, id)
}

//
// Circuit breaker middleware
//

type ServiceBreaker struct {
	Deposit  *gobreaker.TwoStepCircuitBreaker[*decimal.Decimal]
	Withdraw *gobreaker.TwoStepCircuitBreaker[*decimal.Decimal]
	Transfer *gobreaker.TwoStepCircuitBreaker[interface{}]
}

func NewServiceBreaker(cfg BreakerConfig) *ServiceBreaker {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.MaxRequests,
			Interval:    time.Duration(cfg.IntervalSecs) * time.Second,
			Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
		}
	}
	return &ServiceBreaker{
		Deposit:  gobreaker.NewTwoStepCircuitBreaker[*decimal.Decimal](settings("deposit")),
		Withdraw: gobreaker.NewTwoStepCircuitBreaker[*decimal.Decimal](settings("withdraw")),
		Transfer: gobreaker.NewTwoStepCircuitBreaker[interface{}](settings("transfer")),
	}
}

// circuitBreakMiddleware trips the money path open when the service keeps
// failing on its own account. Typed domain failures are the caller's
// problem and do not count against the breaker.
type circuitBreakMiddleware struct {
	next  AccountService
	brkrs *ServiceBreaker
}

var (
	_ AccountService = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next AccountService) AccountService {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

func (c *circuitBreakMiddleware) CreateAccount(req CreateAccountReq) (snowflake.ID, error) {
	return c.next.CreateAccount(req)
}

func (c *circuitBreakMiddleware) GetAccount(id snowflake.ID) (*Account, error) {
	return c.next.GetAccount(id)
}

func (c *circuitBreakMiddleware) DeleteAccount(id snowflake.ID) error {
	return c.next.DeleteAccount(id)
}

func (c *circuitBreakMiddleware) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	done, err := c.brkrs.Deposit.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	bal, err := c.next.Deposit(req)
	done(err == nil || isClientErr(err))
	return bal, err
}

func (c *circuitBreakMiddleware) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	done, err := c.brkrs.Withdraw.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	bal, err := c.next.Withdraw(req)
	done(err == nil || isClientErr(err))
	return bal, err
}

func (c *circuitBreakMiddleware) Transfer(req TransferReq) error {
	done, err := c.brkrs.Transfer.Allow()
	if err != nil {
		return ErrOverloaded
	}
	err = c.next.Transfer(req)
	done(err == nil || isClientErr(err))
	return err
}

func (c *circuitBreakMiddleware) Statement(w io.Writer, id snowflake.ID) error {
	return c.next.Statement(w, id)
}
