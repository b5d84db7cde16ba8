// Package stats reduces a user's full trade history into dashboard figures.
package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"trading-journal-go/internal/models"
)

// Ratio is a float that encodes non-finite values as JSON null.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// TradeStats summarises closed trades. A zero-profit trade is neither a win nor a loss here.
type TradeStats struct {
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	TotalProfit   float64 `json:"totalProfit"`
	WinRate       float64 `json:"winRate"`
	ProfitFactor  Ratio   `json:"profitFactor"`
	AverageWin    float64 `json:"averageWin"`
	AverageLoss   float64 `json:"averageLoss"`
}

type tally struct {
	total, wins, losses int
	profit, won, lost   float64
}

func (t *tally) add(profit float64) {
	t.total++
	t.profit += profit
	switch {
	case profit > 0:
		t.wins++
		t.won += profit
	case profit < 0:
		t.losses++
		t.lost += profit
	}
}

func (t *tally) winRate() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.wins) / float64(t.total) * 100
}

func (t *tally) profitFactor() Ratio {
	loss := math.Abs(t.lost)
	switch {
	case loss > 0:
		return Ratio(t.won / loss)
	case t.won > 0:
		return Ratio(math.Inf(1))
	default:
		return 0
	}
}

// Trades computes TradeStats over every trade given.
func Trades(trades []models.Trade) TradeStats {
	var t tally
	for i := range trades {
		t.add(trades[i].Profit)
	}

	s := TradeStats{
		TotalTrades:   t.total,
		WinningTrades: t.wins,
		LosingTrades:  t.losses,
		TotalProfit:   t.profit,
		WinRate:       t.winRate(),
		ProfitFactor:  t.profitFactor(),
	}
	if t.wins > 0 {
		s.AverageWin = t.won / float64(t.wins)
	}
	if t.losses > 0 {
		s.AverageLoss = math.Abs(t.lost) / float64(t.losses)
	}
	return s
}

// ReasonCount is one entry of ReasonCounts.
type ReasonCount struct {
	Reason string
	Count  int
}

// ReasonCounts encodes as a JSON object whose keys keep first-seen order.
type ReasonCounts []ReasonCount

func (rc ReasonCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range rc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Reason)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (rc *ReasonCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := ReasonCounts{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		var c ReasonCount
		c.Reason, _ = tok.(string)
		if err := dec.Decode(&c.Count); err != nil {
			return err
		}
		out = append(out, c)
	}
	*rc = out
	return nil
}

// Get returns the count for reason, zero if it never occurred.
func (rc ReasonCounts) Get(reason string) int {
	for _, c := range rc {
		if c.Reason == reason {
			return c.Count
		}
	}
	return 0
}

type MissedTradeStats struct {
	TotalMissedTrades   int          `json:"totalMissedTrades"`
	TotalMissedProfit   float64      `json:"totalMissedProfit"`
	AverageMissedProfit float64      `json:"averageMissedProfit"`
	ReasonCounts        ReasonCounts `json:"reasonCounts"`
}

// MissedTrades computes MissedTradeStats over every missed trade given.
func MissedTrades(missed []models.MissedTrade) MissedTradeStats {
	s := MissedTradeStats{ReasonCounts: ReasonCounts{}}
	index := make(map[string]int)
	for i := range missed {
		m := &missed[i]
		s.TotalMissedTrades++
		s.TotalMissedProfit += m.EstimatedProfit

		if j, ok := index[m.Reason]; ok {
			s.ReasonCounts[j].Count++
			continue
		}
		index[m.Reason] = len(s.ReasonCounts)
		s.ReasonCounts = append(s.ReasonCounts, ReasonCount{Reason: m.Reason, Count: 1})
	}
	if s.TotalMissedTrades > 0 {
		s.AverageMissedProfit = s.TotalMissedProfit / float64(s.TotalMissedTrades)
	}
	return s
}

// Group is the performance of the trades sharing one breakdown key.
type Group struct {
	Name          string  `json:"name"`
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	WinRate       float64 `json:"winRate"`
	ProfitFactor  Ratio   `json:"profitFactor"`
	AverageProfit float64 `json:"averageProfit"`
	TotalProfit   float64 `json:"totalProfit"`
}

// KeyFunc picks the breakdown key of a trade.
type KeyFunc func(*models.Trade) string

func BySession(t *models.Trade) string {
	if t.SessionType == "" {
		return string(models.SessionOther)
	}
	return string(t.SessionType)
}

// ByStrategy groups trades without a strategy under "Unspecified".
func ByStrategy(t *models.Trade) string {
	if t.Strategy == "" {
		return "Unspecified"
	}
	return t.Strategy
}

// Breakdown groups trades by key and returns the groups sorted by name.
func Breakdown(trades []models.Trade, key KeyFunc) []Group {
	tallies := make(map[string]*tally)
	for i := range trades {
		k := key(&trades[i])
		t, ok := tallies[k]
		if !ok {
			t = &tally{}
			tallies[k] = t
		}
		t.add(trades[i].Profit)
	}

	groups := make([]Group, 0, len(tallies))
	for name, t := range tallies {
		groups = append(groups, Group{
			Name:          name,
			TotalTrades:   t.total,
			WinningTrades: t.wins,
			WinRate:       t.winRate(),
			ProfitFactor:  t.profitFactor(),
			AverageProfit: t.profit / float64(t.total),
			TotalProfit:   t.profit,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}
