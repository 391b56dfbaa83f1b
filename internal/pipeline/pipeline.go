package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ksalling/tradefly/internal/dispatch"
	"github.com/ksalling/tradefly/internal/models"
	"github.com/ksalling/tradefly/internal/order"
	"github.com/ksalling/tradefly/internal/repository"
)

// Dispatcher is the slice of dispatch.Router the pipeline uses.
type Dispatcher interface {
	Dispatch(ctx context.Context, env dispatch.Envelope) error
}

// Pipeline runs one inbound alert to completion: authenticate, normalize,
// dedup-guard, persist, resolve subscribers, correlate closes, build and
// dispatch one order per subscriber. Stateless across alerts; all durable
// state lives behind Repo.
type Pipeline struct {
	Repo     repository.Repository
	Registry *order.Registry
	Router   Dispatcher
	Logger   *zap.Logger

	StoreTimeout    time.Duration
	DispatchTimeout time.Duration
}

// Process handles one alert. Once called, processing runs to completion or
// failure: the caller's cancellation is deliberately not propagated.
func (p *Pipeline) Process(ctx context.Context, alert RawAlert) Result {
	ctx = context.WithoutCancel(ctx)

	strategy, res := p.authenticate(ctx, alert)
	if strategy == nil {
		return res
	}

	sig := Normalize(alert, strategy.ID)

	if dup, err := p.checkDuplicate(ctx, sig); err != nil {
		return fatal(err)
	} else if dup {
		return Result{Status: StatusDuplicate}
	}

	if err := p.persist(ctx, &sig); err != nil {
		if errors.Is(err, repository.ErrDuplicateSignal) {
			// Lost the insert race; the unique index is the authority.
			return Result{Status: StatusDuplicate}
		}
		return fatal(err)
	}

	closing := sig.TradeSide == TradeSideClose

	var matched *models.Signal
	if closing {
		var err error
		matched, err = p.correlate(ctx, sig)
		if err != nil {
			return fatal(err)
		}
		if matched == nil && p.Logger != nil {
			p.Logger.Warn("no open signal matches closing alert",
				zap.Uint64("signal_id", sig.ID),
				zap.String("symbol", sig.Symbol),
				zap.Uint64("strategy_id", sig.StrategyID),
			)
		}
	}

	subscribers, err := p.resolveSubscribers(ctx, strategy.ID, matched, closing)
	if err != nil {
		return fatal(err)
	}

	if len(subscribers) == 0 {
		status := StatusNoSubscribers
		if closing && matched == nil {
			status = StatusCorrelationFailed
		}
		if p.Logger != nil {
			p.Logger.Info("signal persisted without dispatch",
				zap.Uint64("signal_id", sig.ID),
				zap.String("outcome", status.String()),
			)
		}
		return Result{Status: status, SignalID: sig.ID}
	}

	dispatched, failed := p.fanOut(ctx, sig, subscribers)
	return Result{
		Status:     StatusAccepted,
		SignalID:   sig.ID,
		Dispatched: dispatched,
		Failed:     failed,
	}
}

func (p *Pipeline) authenticate(ctx context.Context, alert RawAlert) (*models.Strategy, Result) {
	sctx, cancel := p.storeCtx(ctx)
	defer cancel()

	strategy, err := p.Repo.GetStrategyByName(sctx, alert.Strategy)
	if err != nil {
		return nil, fatal(err)
	}
	if strategy == nil {
		if p.Logger != nil {
			p.Logger.Warn("unknown strategy", zap.String("strategy", alert.Strategy))
		}
		return nil, Result{Status: StatusUnauthorized}
	}
	if strategy.Secret != alert.Auth {
		if p.Logger != nil {
			p.Logger.Warn("strategy secret mismatch", zap.String("strategy", alert.Strategy))
		}
		return nil, Result{Status: StatusUnauthorized}
	}
	return strategy, Result{}
}

func (p *Pipeline) checkDuplicate(ctx context.Context, sig models.Signal) (bool, error) {
	sctx, cancel := p.storeCtx(ctx)
	defer cancel()

	return p.Repo.SignalExists(sctx, repository.SignalKey{
		StrategyID: sig.StrategyID,
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		TradeSide:  sig.TradeSide,
		Price:      sig.Price,
	})
}

func (p *Pipeline) persist(ctx context.Context, sig *models.Signal) error {
	sctx, cancel := p.storeCtx(ctx)
	defer cancel()

	return p.Repo.InsertSignal(sctx, sig)
}

// correlate finds the open signal a closing alert terminates: same strategy
// and symbol, opposite side, trade side OPEN, most recent id wins.
func (p *Pipeline) correlate(ctx context.Context, sig models.Signal) (*models.Signal, error) {
	sctx, cancel := p.storeCtx(ctx)
	defer cancel()

	return p.Repo.FindLatestOpenSignal(sctx, sig.StrategyID, sig.Symbol, oppositeSide(sig.Side))
}

func (p *Pipeline) resolveSubscribers(ctx context.Context, strategyID uint64, matched *models.Signal, closing bool) ([]order.Subscriber, error) {
	sctx, cancel := p.storeCtx(ctx)
	defer cancel()

	subs, err := p.Repo.ListActiveSubscriptions(sctx, strategyID)
	if err != nil {
		return nil, err
	}

	tradesByUser := map[uint64]models.UserTrade{}
	if closing && matched != nil {
		trades, err := p.Repo.ListUserTradesBySignal(sctx, matched.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range trades {
			tradesByUser[t.UserID] = t
		}
	}

	var out []order.Subscriber
	for _, sub := range subs {
		if sub.Credential == nil || sub.Credential.Exchange == nil {
			if p.Logger != nil {
				p.Logger.Warn("subscription without usable credential",
					zap.Uint64("subscription_id", sub.ID),
					zap.Uint64("user_id", sub.UserID),
				)
			}
			continue
		}

		item := order.Subscriber{
			UserID:              sub.UserID,
			Exchange:            sub.Credential.Exchange.Name,
			Credential:          sub.Credential.Material,
			PortfolioPercentage: sub.PortfolioPercentage,
			LeverageAmount:      sub.LeverageAmount,
			MaxTPLegs:           sub.MaxTPLegs,
			TrailingStop:        sub.TrailingStop,
			RequireConfirm:      sub.RequireConfirm,
		}

		if closing {
			// A subscriber with no fill on the open leg must not get a
			// close order.
			trade, ok := tradesByUser[sub.UserID]
			if !ok {
				continue
			}
			item.Closing = true
			item.PositionID = trade.PositionID
			item.TradeQty = trade.TradeQty
		}

		out = append(out, item)
	}
	return out, nil
}

// fanOut builds and dispatches one order per subscriber, concurrently.
// Each subscriber is independent: a build or dispatch failure is logged
// with full context and never blocks the siblings.
func (p *Pipeline) fanOut(ctx context.Context, sig models.Signal, subscribers []order.Subscriber) (dispatched, failed int) {
	// One bucket per exchange, each independently allocated.
	buckets := make(map[string][]order.Subscriber)
	for _, sub := range subscribers {
		buckets[sub.Exchange] = append(buckets[sub.Exchange], sub)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for exchange, bucket := range buckets {
		for _, sub := range bucket {
			wg.Add(1)
			go func(exchange string, sub order.Subscriber) {
				defer wg.Done()

				payload, err := p.Registry.Build(exchange, sig, sub)
				if err != nil {
					p.logDispatchFailure("order build failed", sig, sub, err)
					mu.Lock()
					failed++
					mu.Unlock()
					return
				}

				dctx, cancel := context.WithTimeout(ctx, p.dispatchTTL())
				defer cancel()

				err = p.Router.Dispatch(dctx, dispatch.Envelope{
					Exchange:   exchange,
					UserID:     sub.UserID,
					SignalID:   sig.ID,
					Credential: sub.Credential,
					Order:      payload,
				})
				if err != nil {
					p.logDispatchFailure("order dispatch failed", sig, sub, err)
					mu.Lock()
					failed++
					mu.Unlock()
					return
				}

				mu.Lock()
				dispatched++
				mu.Unlock()
			}(exchange, sub)
		}
	}

	wg.Wait()
	return dispatched, failed
}

func (p *Pipeline) logDispatchFailure(msg string, sig models.Signal, sub order.Subscriber, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.Error(msg,
		zap.Uint64("signal_id", sig.ID),
		zap.String("symbol", sig.Symbol),
		zap.Uint64("user_id", sub.UserID),
		zap.String("exchange", sub.Exchange),
		zap.Error(err),
	)
}

func (p *Pipeline) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	ttl := p.StoreTimeout
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return context.WithTimeout(ctx, ttl)
}

func (p *Pipeline) dispatchTTL() time.Duration {
	if p.DispatchTimeout > 0 {
		return p.DispatchTimeout
	}
	return 10 * time.Second
}
