package journal

import "trading-journal-go/internal/query"

// TradeSchema lists the trade fields a list request may filter, sort and select on.
var TradeSchema = query.NewSchema("-openTime",
	query.Field{Name: "id", Column: "id", Kind: query.String},
	query.Field{Name: "symbol", Column: "symbol", Kind: query.String},
	query.Field{Name: "direction", Column: "direction", Kind: query.String},
	query.Field{Name: "openTime", Column: "open_time", Kind: query.Time},
	query.Field{Name: "closeTime", Column: "close_time", Kind: query.Time},
	query.Field{Name: "openPrice", Column: "open_price", Kind: query.Number},
	query.Field{Name: "closePrice", Column: "close_price", Kind: query.Number},
	query.Field{Name: "lotSize", Column: "lot_size", Kind: query.Number},
	query.Field{Name: "profit", Column: "profit", Kind: query.Number},
	query.Field{Name: "pips", Column: "pips", Kind: query.Number},
	query.Field{Name: "commission", Column: "commission", Kind: query.Number},
	query.Field{Name: "strategy", Column: "strategy", Kind: query.String},
	query.Field{Name: "sessionType", Column: "session_type", Kind: query.String},
	query.Field{Name: "rMultiple", Column: "r_multiple", Kind: query.Number},
	query.Field{Name: "notes", Column: "notes", Kind: query.String},
	query.Field{Name: "source", Column: "source", Kind: query.String},
	query.Field{Name: "brokerAccount", Column: "broker_account_id", Kind: query.String},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Time},
)

var MissedTradeSchema = query.NewSchema("-date",
	query.Field{Name: "id", Column: "id", Kind: query.String},
	query.Field{Name: "symbol", Column: "symbol", Kind: query.String},
	query.Field{Name: "direction", Column: "direction", Kind: query.String},
	query.Field{Name: "date", Column: "date", Kind: query.Time},
	query.Field{Name: "potentialEntryPrice", Column: "potential_entry_price", Kind: query.Number},
	query.Field{Name: "potentialExitPrice", Column: "potential_exit_price", Kind: query.Number},
	query.Field{Name: "estimatedProfit", Column: "estimated_profit", Kind: query.Number},
	query.Field{Name: "reason", Column: "reason", Kind: query.String},
	query.Field{Name: "notes", Column: "notes", Kind: query.String},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Time},
)
