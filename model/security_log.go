package model

import "time"

// RequestLog is one ledger entry per inbound request. The three counters
// are computed when the entry is written and never updated afterwards.
type RequestLog struct {
	ID                 int64     `json:"id"`
	IPAddress          string    `json:"ip_address"`
	UserID             *string   `json:"user_id,omitempty"`
	Endpoint           string    `json:"endpoint"`
	Method             string    `json:"method"`
	ContentHash        string    `json:"content_hash"`
	UserAgent          string    `json:"user_agent"`
	StatusCode         int       `json:"status_code"`
	LatencyMs          int64     `json:"latency_ms"`
	RequestsLastMinute int       `json:"requests_last_minute"`
	RequestsLastHour   int       `json:"requests_last_hour"`
	DuplicateHashCount int       `json:"duplicate_hash_count"`
	IsSpamDetected     bool      `json:"is_spam_detected"`
	SpamReason         string    `json:"spam_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// DuplicateLog records an observed or blocked duplicate-data submission.
type DuplicateLog struct {
	ID           int64     `json:"id"`
	EntityType   string    `json:"entity_type"`
	EntityID     string    `json:"entity_id,omitempty"`
	UniqueKey    string    `json:"unique_key,omitempty"`
	DataHash     string    `json:"data_hash"`
	UserID       *string   `json:"user_id,omitempty"`
	IPAddress    string    `json:"ip_address"`
	IsBlocked    bool      `json:"is_blocked"`
	Reason       string    `json:"reason,omitempty"`
	OriginalData string    `json:"original_data,omitempty"`
	NewData      string    `json:"new_data,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Audit action verbs.
const (
	ActionInsert             = "INSERT"
	ActionUpdate             = "UPDATE"
	ActionDelete             = "DELETE"
	ActionLogin              = "LOGIN"
	ActionLogout             = "LOGOUT"
	ActionRevokeSessions     = "REVOKE_SESSIONS"
	ActionSuspiciousActivity = "SUSPICIOUS_ACTIVITY"
)

// AuditLog is an append-only record of a mutating or sensitive action.
type AuditLog struct {
	ID                 int64     `json:"id"`
	TableName          string    `json:"table_name"`
	RecordID           string    `json:"record_id"`
	Action             string    `json:"action"`
	UserID             *string   `json:"user_id,omitempty"`
	IPAddress          string    `json:"ip_address"`
	OldValues          string    `json:"old_values,omitempty"`
	NewValues          string    `json:"new_values,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	RiskLevel          RiskLevel `json:"risk_level"`
	SuspiciousActivity bool      `json:"suspicious_activity"`
	CreatedAt          time.Time `json:"created_at"`
}
