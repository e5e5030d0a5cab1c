package depthengine

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Update is a single incremental depth event: a range of sequence numbers
// [FirstID, LastID] and the bid/ask levels it mutates. A qty of zero in
// either slice means "remove this level".
type Update struct {
	Symbol    string
	EventTime int64
	FirstID   int64
	LastID    int64
	Bids      []PriceLevel
	Asks      []PriceLevel
}

// Snapshot is the full book state at a single sequence point, as returned by
// the REST depth endpoint.
type Snapshot struct {
	LastUpdateID int64
	Bids         []PriceLevel
	Asks         []PriceLevel
}

// wireUpdate mirrors the terse field aliases Binance's depth stream uses:
// e=event type, E=event time, s=symbol, U=first update id, u=last update id,
// b=bids, a=asks.
type wireUpdate struct {
	EventType string     `json:"e"`
	EventTime int64      `json:"E"`
	Symbol    string     `json:"s"`
	FirstID   int64      `json:"U"`
	LastID    int64      `json:"u"`
	Bids      [][]string `json:"b"`
	Asks      [][]string `json:"a"`
}

type wireSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// ParseUpdate decodes a single depth-stream text frame. It returns
// (nil, nil) when the frame is not an update — a control frame or a message
// belonging to one of the out-of-scope collaborator feeds — so the caller
// can silently drop it per §4.B, rather than treating every non-update frame
// as an error.
func ParseUpdate(frame []byte) (*Update, error) {
	var w wireUpdate
	if err := json.Unmarshal(frame, &w); err != nil {
		return nil, fmt.Errorf("depthengine: parse update: %w", err)
	}
	if w.EventType != "depthUpdate" || w.LastID == 0 {
		return nil, nil
	}

	bids, err := parseLevels(w.Bids)
	if err != nil {
		return nil, fmt.Errorf("depthengine: parse bids: %w", err)
	}
	asks, err := parseLevels(w.Asks)
	if err != nil {
		return nil, fmt.Errorf("depthengine: parse asks: %w", err)
	}

	return &Update{
		Symbol:    w.Symbol,
		EventTime: w.EventTime,
		FirstID:   w.FirstID,
		LastID:    w.LastID,
		Bids:      bids,
		Asks:      asks,
	}, nil
}

// ParseSnapshot decodes the REST depth-endpoint response body.
func ParseSnapshot(body []byte) (*Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("depthengine: parse snapshot: %w", err)
	}
	bids, err := parseLevels(w.Bids)
	if err != nil {
		return nil, fmt.Errorf("depthengine: parse snapshot bids: %w", err)
	}
	asks, err := parseLevels(w.Asks)
	if err != nil {
		return nil, fmt.Errorf("depthengine: parse snapshot asks: %w", err)
	}
	return &Snapshot{
		LastUpdateID: w.LastUpdateID,
		Bids:         bids,
		Asks:         asks,
	}, nil
}

func parseLevels(raw [][]string) ([]PriceLevel, error) {
	levels := make([]PriceLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("depthengine: malformed level %v", pair)
		}
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, fmt.Errorf("depthengine: price %q: %w", pair[0], err)
		}
		qty, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("depthengine: qty %q: %w", pair[1], err)
		}
		if price.IsNegative() || qty.IsNegative() {
			return nil, fmt.Errorf("depthengine: negative price/qty in level %v", pair)
		}
		levels = append(levels, PriceLevel{Price: price, Qty: qty})
	}
	return levels, nil
}
