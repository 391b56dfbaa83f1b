package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ksalling/tradefly/internal/extract"
	"github.com/ksalling/tradefly/internal/models"
	"github.com/ksalling/tradefly/internal/pipeline"
	"github.com/ksalling/tradefly/internal/repository"
)

// Extractor is the slice of extract.Client the relay intake uses.
type Extractor interface {
	Extract(ctx context.Context, channel, text string) (*extract.ExtractedSignal, error)
}

// SignalProcessor is the slice of pipeline.Pipeline the relay intake uses.
type SignalProcessor interface {
	Process(ctx context.Context, alert pipeline.RawAlert) pipeline.Result
}

// RelayIntakeService stores every relayed chat message and, for configured
// trigger channels, runs extraction and feeds any extracted signal through
// the same pipeline as the charting webhook.
type RelayIntakeService struct {
	Repo      repository.Repository
	Extractor Extractor
	Pipeline  SignalProcessor
	Channels  []string
	Logger    *zap.Logger
}

// HandleMessage persists the message and triggers extraction when the
// channel is a signal source. Extraction problems never fail message
// persistence; they are logged and the stored message stands.
func (s *RelayIntakeService) HandleMessage(ctx context.Context, msg *models.RelayMessage) error {
	if err := s.Repo.InsertRelayMessage(ctx, msg); err != nil {
		return err
	}

	if !s.isTriggerChannel(msg.ChannelName) || s.Extractor == nil || s.Pipeline == nil {
		return nil
	}

	extracted, err := s.Extractor.Extract(ctx, msg.ChannelName, msg.Message)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("signal extraction failed",
				zap.String("channel", msg.ChannelName),
				zap.Error(err),
			)
		}
		return nil
	}
	if extracted == nil {
		// Not a signal; the stored message is all there is to do.
		return nil
	}

	strategy, err := s.Repo.GetStrategyByTrigger(ctx, msg.ChannelName)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("trigger strategy lookup failed",
				zap.String("channel", msg.ChannelName),
				zap.Error(err),
			)
		}
		return nil
	}
	if strategy == nil {
		if s.Logger != nil {
			s.Logger.Warn("no strategy linked to trigger channel",
				zap.String("channel", msg.ChannelName),
			)
		}
		return nil
	}

	result := s.Pipeline.Process(ctx, relayAlert(extracted, strategy))
	if s.Logger != nil {
		s.Logger.Info("relayed signal processed",
			zap.String("channel", msg.ChannelName),
			zap.String("outcome", result.Status.String()),
			zap.Uint64("signal_id", result.SignalID),
			zap.Int("dispatched", result.Dispatched),
		)
	}
	return nil
}

func (s *RelayIntakeService) isTriggerChannel(name string) bool {
	for _, c := range s.Channels {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// relayAlert maps a typed extraction to the canonical intake shape. The
// relay path is trusted, so the strategy's own secret authenticates it.
// Chat signals always open positions; closes arrive via the charting
// webhook.
func relayAlert(sig *extract.ExtractedSignal, strategy *models.Strategy) pipeline.RawAlert {
	side := pipeline.SideBuy
	if strings.EqualFold(sig.TradeType, "short") {
		side = pipeline.SideSell
	}

	orderType := strings.ToUpper(strings.TrimSpace(sig.EntryOrderType))
	if orderType == "" {
		orderType = "MARKET"
	}

	alert := pipeline.RawAlert{
		Strategy:  strategy.Name,
		Auth:      strategy.Secret,
		Symbol:    strings.ReplaceAll(sig.Asset, "/", ""),
		Side:      side,
		Price:     sig.EntryPrice,
		TradeSide: pipeline.TradeSideOpen,
		OrderType: &orderType,
	}

	if sig.StopLoss != "" {
		sl := sig.StopLoss
		alert.SLPrice = &sl
	}
	if len(sig.TakeProfits) > 0 && sig.TakeProfits[0].Price != "" {
		tp := sig.TakeProfits[0].Price
		alert.TPPrice = &tp
	}

	return alert
}
