package order

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ksalling/tradefly/internal/models"
)

func TestUnsizedQuantity_LeavesQuantityUnset(t *testing.T) {
	qty, err := UnsizedQuantity{}.OpenQuantity(models.Signal{Price: "100"}, Subscriber{})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if qty != nil {
		t.Fatalf("qty=%v want nil", *qty)
	}
}

func TestPercentOfBalanceSizer(t *testing.T) {
	s := PercentOfBalanceSizer{Balance: decimal.NewFromInt(1000)}

	// 10% of 1000 at 2x leverage is 200 notional; at price 50 that is 4.
	qty, err := s.OpenQuantity(
		models.Signal{Price: "50"},
		Subscriber{PortfolioPercentage: 10, LeverageAmount: 2},
	)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if qty == nil || *qty != "4" {
		t.Fatalf("qty=%v want=4", qty)
	}
}

func TestPercentOfBalanceSizer_DefaultsLeverageToOne(t *testing.T) {
	s := PercentOfBalanceSizer{Balance: decimal.NewFromInt(1000)}

	qty, err := s.OpenQuantity(
		models.Signal{Price: "50"},
		Subscriber{PortfolioPercentage: 10},
	)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if qty == nil || *qty != "2" {
		t.Fatalf("qty=%v want=2", qty)
	}
}

func TestPercentOfBalanceSizer_RoundsQuantity(t *testing.T) {
	s := PercentOfBalanceSizer{Balance: decimal.NewFromInt(1000)}

	qty, err := s.OpenQuantity(
		models.Signal{Price: "3"},
		Subscriber{PortfolioPercentage: 10, LeverageAmount: 1},
	)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if qty == nil || *qty != "33.33333333" {
		t.Fatalf("qty=%v want=33.33333333", qty)
	}
}

func TestPercentOfBalanceSizer_RejectsBadPrice(t *testing.T) {
	s := PercentOfBalanceSizer{Balance: decimal.NewFromInt(1000)}

	if _, err := s.OpenQuantity(models.Signal{Price: "not-a-price"}, Subscriber{PortfolioPercentage: 10}); err == nil {
		t.Fatalf("expected error for unparseable price")
	}
	if _, err := s.OpenQuantity(models.Signal{Price: "0"}, Subscriber{PortfolioPercentage: 10}); err == nil {
		t.Fatalf("expected error for zero price")
	}
}
