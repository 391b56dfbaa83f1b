package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ksalling/tradefly/internal/extract"
	"github.com/ksalling/tradefly/internal/models"
	"github.com/ksalling/tradefly/internal/pipeline"
	"github.com/ksalling/tradefly/internal/repository"
)

type stubRepo struct {
	messages  []models.RelayMessage
	strategy  *models.Strategy
	insertErr error
	deleted   []time.Time
	removed   int64
}

func (s *stubRepo) GetStrategyByName(context.Context, string) (*models.Strategy, error) {
	return nil, nil
}

func (s *stubRepo) GetStrategyByTrigger(_ context.Context, channel string) (*models.Strategy, error) {
	if s.strategy != nil && s.strategy.TriggerChannel != nil && *s.strategy.TriggerChannel == channel {
		return s.strategy, nil
	}
	return nil, nil
}

func (s *stubRepo) SignalExists(context.Context, repository.SignalKey) (bool, error) {
	return false, nil
}

func (s *stubRepo) InsertSignal(context.Context, *models.Signal) error { return nil }

func (s *stubRepo) FindLatestOpenSignal(context.Context, uint64, string, string) (*models.Signal, error) {
	return nil, nil
}

func (s *stubRepo) ListActiveSubscriptions(context.Context, uint64) ([]models.Subscription, error) {
	return nil, nil
}

func (s *stubRepo) ListUserTradesBySignal(context.Context, uint64) ([]models.UserTrade, error) {
	return nil, nil
}

func (s *stubRepo) InsertRelayMessage(_ context.Context, item *models.RelayMessage) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	item.ID = uint64(len(s.messages) + 1)
	s.messages = append(s.messages, *item)
	return nil
}

func (s *stubRepo) DeleteRelayMessagesBefore(_ context.Context, before time.Time) (int64, error) {
	s.deleted = append(s.deleted, before)
	return s.removed, nil
}

type stubExtractor struct {
	signal   *extract.ExtractedSignal
	err      error
	channels []string
}

func (s *stubExtractor) Extract(_ context.Context, channel, _ string) (*extract.ExtractedSignal, error) {
	s.channels = append(s.channels, channel)
	return s.signal, s.err
}

type stubPipeline struct {
	alerts []pipeline.RawAlert
}

func (s *stubPipeline) Process(_ context.Context, alert pipeline.RawAlert) pipeline.Result {
	s.alerts = append(s.alerts, alert)
	return pipeline.Result{Status: pipeline.StatusAccepted, SignalID: 1}
}

func triggerStrategy() *models.Strategy {
	channel := "HRJ"
	return &models.Strategy{ID: 3, Name: "HRJ Futures", Secret: "hrj-secret", TriggerChannel: &channel}
}

func relayMsg(channel string) *models.RelayMessage {
	return &models.RelayMessage{ChannelID: "123", ChannelName: channel, Message: "SOL long entry 150.25"}
}

func TestHandleMessage_ExtractedSignalReachesPipeline(t *testing.T) {
	repo := &stubRepo{strategy: triggerStrategy()}
	extractor := &stubExtractor{signal: &extract.ExtractedSignal{
		Asset:          "SOL/USDT",
		TradeType:      "long",
		EntryPrice:     "150.25",
		EntryOrderType: "limit",
		StopLoss:       "140.00",
		TakeProfits:    []extract.TakeProfitLeg{{SeriesNum: 1, Price: "160.00"}},
	}}
	proc := &stubPipeline{}

	svc := &RelayIntakeService{
		Repo: repo, Extractor: extractor, Pipeline: proc,
		Channels: []string{"HRJ", "FJ"},
	}

	if err := svc.HandleMessage(context.Background(), relayMsg("HRJ")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(repo.messages) != 1 {
		t.Fatalf("stored messages=%d want=1", len(repo.messages))
	}
	if len(proc.alerts) != 1 {
		t.Fatalf("pipeline alerts=%d want=1", len(proc.alerts))
	}

	alert := proc.alerts[0]
	if alert.Strategy != "HRJ Futures" || alert.Auth != "hrj-secret" {
		t.Fatalf("auth mapping: strategy=%q auth=%q", alert.Strategy, alert.Auth)
	}
	if alert.Symbol != "SOLUSDT" {
		t.Fatalf("symbol=%q want=SOLUSDT", alert.Symbol)
	}
	if alert.Side != pipeline.SideBuy || alert.TradeSide != pipeline.TradeSideOpen {
		t.Fatalf("side=%q tradeSide=%q", alert.Side, alert.TradeSide)
	}
	if alert.OrderType == nil || *alert.OrderType != "LIMIT" {
		t.Fatalf("orderType=%v want=LIMIT", alert.OrderType)
	}
	if alert.SLPrice == nil || *alert.SLPrice != "140.00" {
		t.Fatalf("slPrice=%v want=140.00", alert.SLPrice)
	}
	if alert.TPPrice == nil || *alert.TPPrice != "160.00" {
		t.Fatalf("tpPrice=%v want=160.00", alert.TPPrice)
	}
}

func TestHandleMessage_ShortMapsToSell(t *testing.T) {
	repo := &stubRepo{strategy: triggerStrategy()}
	extractor := &stubExtractor{signal: &extract.ExtractedSignal{
		Asset: "BTC/USDT", TradeType: "short", EntryPrice: "65000",
	}}
	proc := &stubPipeline{}

	svc := &RelayIntakeService{
		Repo: repo, Extractor: extractor, Pipeline: proc,
		Channels: []string{"HRJ"},
	}
	if err := svc.HandleMessage(context.Background(), relayMsg("HRJ")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(proc.alerts) != 1 || proc.alerts[0].Side != pipeline.SideSell {
		t.Fatalf("alerts=%+v want one SELL", proc.alerts)
	}
	if proc.alerts[0].OrderType == nil || *proc.alerts[0].OrderType != "MARKET" {
		t.Fatalf("orderType=%v want default MARKET", proc.alerts[0].OrderType)
	}
}

func TestHandleMessage_NonTriggerChannelSkipsExtraction(t *testing.T) {
	repo := &stubRepo{strategy: triggerStrategy()}
	extractor := &stubExtractor{}
	proc := &stubPipeline{}

	svc := &RelayIntakeService{
		Repo: repo, Extractor: extractor, Pipeline: proc,
		Channels: []string{"HRJ"},
	}
	if err := svc.HandleMessage(context.Background(), relayMsg("general")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(repo.messages) != 1 {
		t.Fatalf("message not stored")
	}
	if len(extractor.channels) != 0 {
		t.Fatalf("extractor was called for non-trigger channel")
	}
}

func TestHandleMessage_NotASignalStopsAfterStore(t *testing.T) {
	repo := &stubRepo{strategy: triggerStrategy()}
	extractor := &stubExtractor{signal: nil}
	proc := &stubPipeline{}

	svc := &RelayIntakeService{
		Repo: repo, Extractor: extractor, Pipeline: proc,
		Channels: []string{"HRJ"},
	}
	if err := svc.HandleMessage(context.Background(), relayMsg("HRJ")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(extractor.channels) != 1 {
		t.Fatalf("extractor calls=%d want=1", len(extractor.channels))
	}
	if len(proc.alerts) != 0 {
		t.Fatalf("non-signal reached the pipeline")
	}
}

func TestHandleMessage_ExtractionErrorDoesNotFailStore(t *testing.T) {
	repo := &stubRepo{strategy: triggerStrategy()}
	extractor := &stubExtractor{err: errors.New("model unavailable")}
	proc := &stubPipeline{}

	svc := &RelayIntakeService{
		Repo: repo, Extractor: extractor, Pipeline: proc,
		Channels: []string{"HRJ"},
	}
	if err := svc.HandleMessage(context.Background(), relayMsg("HRJ")); err != nil {
		t.Fatalf("extraction error must not fail persistence: %v", err)
	}
	if len(repo.messages) != 1 {
		t.Fatalf("message not stored")
	}
}

func TestHandleMessage_StoreErrorSurfaces(t *testing.T) {
	repo := &stubRepo{insertErr: errors.New("disk full")}
	svc := &RelayIntakeService{Repo: repo}

	if err := svc.HandleMessage(context.Background(), relayMsg("HRJ")); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestHandleMessage_UnlinkedChannelLogsAndStops(t *testing.T) {
	repo := &stubRepo{} // no strategy linked to any channel
	extractor := &stubExtractor{signal: &extract.ExtractedSignal{
		Asset: "BTC/USDT", TradeType: "long", EntryPrice: "65000",
	}}
	proc := &stubPipeline{}

	svc := &RelayIntakeService{
		Repo: repo, Extractor: extractor, Pipeline: proc,
		Channels: []string{"HRJ"},
	}
	if err := svc.HandleMessage(context.Background(), relayMsg("HRJ")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(proc.alerts) != 0 {
		t.Fatalf("signal without linked strategy reached the pipeline")
	}
}

func TestRetentionSweep(t *testing.T) {
	repo := &stubRepo{removed: 12}
	svc := &RelayRetentionService{Repo: repo, MaxAge: 30 * 24 * time.Hour}

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("delete calls=%d want=1", len(repo.deleted))
	}
	cutoff := repo.deleted[0]
	wantAround := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if cutoff.Before(wantAround.Add(-time.Minute)) || cutoff.After(wantAround.Add(time.Minute)) {
		t.Fatalf("cutoff=%v want about %v", cutoff, wantAround)
	}
}

func TestRetentionSweep_DisabledWithoutMaxAge(t *testing.T) {
	repo := &stubRepo{}
	svc := &RelayRetentionService{Repo: repo}

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("sweep ran without a retention window")
	}
}
