package pipeline

// RawAlert is the canonical intake shape shared by the charting webhook and
// the chat-relay extraction path. Optional execution parameters stay nil
// until the normalizer decides what the persisted signal keeps.
type RawAlert struct {
	Strategy    string
	Auth        string
	Symbol      string
	Side        string
	Price       string
	TradeSide   string
	TriggerTime string

	OrderType *string

	TPPrice      *string
	TPStopType   *string
	TPOrderType  *string
	TPOrderPrice *string

	SLPrice     *string
	SLStopType  *string
	SLOrderType *string
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	TradeSideOpen  = "OPEN"
	TradeSideClose = "CLOSE"
)

func oppositeSide(side string) string {
	if side == SideSell {
		return SideBuy
	}
	return SideSell
}
