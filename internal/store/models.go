package store

// Outcome marks what happened to a decision after the risk gate.
type Outcome int

const (
	OutcomeUnknown  Outcome = 0
	OutcomeAccepted Outcome = 1
	OutcomeRejected Outcome = 2
	OutcomeExecuted Outcome = 3
	OutcomeFailed   Outcome = 4
)

// DecisionRecord is one synthesized decision with its gate outcome,
// kept for audit and the HTTP API.
type DecisionRecord struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CycleID        string  `gorm:"column:cycle_id;index" json:"cycle_id"`
	Symbol         string  `gorm:"column:symbol;index" json:"symbol"`
	Signal         string  `gorm:"column:signal" json:"signal"`
	Confidence     float64 `gorm:"column:confidence" json:"confidence"`
	Quantity       int     `gorm:"column:quantity" json:"quantity"`
	AgentConsensus string  `gorm:"column:agent_consensus" json:"agent_consensus"`
	SignalCounts   string  `gorm:"column:signal_counts" json:"signal_counts"`
	RLSignal       string  `gorm:"column:rl_signal" json:"rl_signal"`
	RLConfidence   float64 `gorm:"column:rl_confidence" json:"rl_confidence"`
	Reasoning      string  `gorm:"column:reasoning" json:"reasoning"`
	Outcome        Outcome `gorm:"column:outcome" json:"outcome"`
	RejectReason   string  `gorm:"column:reject_reason" json:"reject_reason"`
	CreatedAtUnix  int64   `gorm:"column:created_at;index" json:"created_at"`
}

func (DecisionRecord) TableName() string { return "live_decisions" }

// OrderRecord is the submission trail for one executed decision.
type OrderRecord struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DecisionID    int64  `gorm:"column:decision_id;index" json:"decision_id"`
	Symbol        string `gorm:"column:symbol;index" json:"symbol"`
	Side          string `gorm:"column:side" json:"side"`
	IntendedQty   int    `gorm:"column:intended_qty" json:"intended_qty"`
	ExecutedQty   int    `gorm:"column:executed_qty" json:"executed_qty"`
	BrokerOrderID string `gorm:"column:broker_order_id" json:"broker_order_id"`
	IsDryRun      int    `gorm:"column:is_dry_run" json:"is_dry_run"`
	ErrorText     string `gorm:"column:error_text" json:"error_text"`
	CreatedAtUnix int64  `gorm:"column:created_at;index" json:"created_at"`
}

func (OrderRecord) TableName() string { return "live_orders" }

// CycleRecord summarizes one scheduler pass over the watchlist. CycleID
// correlates it with the decisions made during the pass.
type CycleRecord struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CycleID       string `gorm:"column:cycle_id;index" json:"cycle_id"`
	StartedAtUnix int64  `gorm:"column:started_at;index" json:"started_at"`
	DurationMs    int64  `gorm:"column:duration_ms" json:"duration_ms"`
	Symbols       int    `gorm:"column:symbols" json:"symbols"`
	Decisions     int    `gorm:"column:decisions" json:"decisions"`
	Executed      int    `gorm:"column:executed" json:"executed"`
	Rejected      int    `gorm:"column:rejected" json:"rejected"`
	Errors        int    `gorm:"column:errors" json:"errors"`
}

func (CycleRecord) TableName() string { return "live_cycles" }
