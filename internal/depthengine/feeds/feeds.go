// Package feeds carries the wire shapes of the collaborator streams that
// share the exchange's websocket gateway with the depth feed, but which do
// not feed the order book: the aggregated-trades stream and the depth5
// "best deal" stream. They are out of scope per the engine's PURPOSE &
// SCOPE section — no consumer is implemented here — but their shapes are
// kept so a frame dispatcher demultiplexing by event type has somewhere to
// route them instead of a bare []byte.
package feeds

// AggTrade is one aggregated-trade event, field-aliased the way Binance's
// wire schema sends it: e=event type, E=event time, s=symbol, a=agg trade
// id, p=price, q=qty, f/l=first/last trade id, T=trade time, m=is buyer
// maker, M=ignore.
type AggTrade struct {
	EventType    string `json:"e"`
	EventTime    int64  `json:"E"`
	Symbol       string `json:"s"`
	AggTradeID   int64  `json:"a"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	FirstTradeID int64  `json:"f"`
	LastTradeID  int64  `json:"l"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
	Ignore       bool   `json:"M"`
}

// BestDeal is the top-5 depth5 stream's payload: a partial snapshot used for
// display only, never merged into the reconciled book.
type BestDeal struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}
