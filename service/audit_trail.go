package service

import (
	"context"
	"strings"
	"time"
	"workforce-api/config"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/repository"

	"github.com/sirupsen/logrus"
)

// AuditAction is one action to append to the audit trail.
type AuditAction struct {
	Table     string
	RecordID  string
	Action    string
	UserID    *string
	IPAddress string
	OldValues interface{}
	NewValues interface{}
	Reason    string
}

// AuditTrail writes audit entries and classifies their risk and whether the
// actor looks suspicious.
type AuditTrail struct {
	audits     repository.IAuditLogRepository
	requests   repository.IRequestLogRepository
	duplicates repository.IDuplicateLogRepository
	cfg        config.SecurityConfig
	clock      Clock
}

func NewAuditTrail(audits repository.IAuditLogRepository, requests repository.IRequestLogRepository, duplicates repository.IDuplicateLogRepository, cfg config.SecurityConfig, clock Clock) *AuditTrail {
	return &AuditTrail{
		audits:     audits,
		requests:   requests,
		duplicates: duplicates,
		cfg:        cfg,
		clock:      clock,
	}
}

// RiskLevelFor classifies an action on a table.
func RiskLevelFor(action, table string) model.RiskLevel {
	action = strings.ToUpper(action)
	table = strings.ToLower(table)

	switch {
	case action == model.ActionSuspiciousActivity:
		return model.RiskHigh
	case action == model.ActionDelete, strings.Contains(table, "user"), strings.Contains(table, "role"):
		return model.RiskHigh
	case action == model.ActionUpdate && (strings.Contains(table, "employee") || strings.Contains(table, "department")):
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// LogAction persists an audit entry with its risk level and suspicion flag.
func (a *AuditTrail) LogAction(ctx context.Context, act AuditAction) (*model.AuditLog, error) {
	entry := &model.AuditLog{
		TableName:          act.Table,
		RecordID:           act.RecordID,
		Action:             act.Action,
		UserID:             act.UserID,
		IPAddress:          act.IPAddress,
		OldValues:          snapshot(act.OldValues),
		NewValues:          snapshot(act.NewValues),
		Reason:             act.Reason,
		RiskLevel:          RiskLevelFor(act.Action, act.Table),
		SuspiciousActivity: a.isSuspicious(ctx, act.UserID, act.IPAddress),
		CreatedAt:          a.clock.Now(),
	}

	if err := a.audits.Create(ctx, entry); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"table":  act.Table,
			"action": act.Action,
		}).Error("Failed to write audit log")
		return nil, err
	}

	if entry.RiskLevel == model.RiskHigh || entry.SuspiciousActivity {
		logger.Log.WithFields(logrus.Fields{
			"table":      entry.TableName,
			"record_id":  entry.RecordID,
			"action":     entry.Action,
			"risk":       entry.RiskLevel,
			"suspicious": entry.SuspiciousActivity,
			"ip_address": entry.IPAddress,
		}).Warn("High-risk action audited")
	}
	return entry, nil
}

// MarkSuspiciousActivity records a dedicated SUSPICIOUS_ACTIVITY entry.
func (a *AuditTrail) MarkSuspiciousActivity(ctx context.Context, userID *string, ip, reason string) error {
	recordID := ip
	if userID != nil {
		recordID = *userID
	}
	_, err := a.LogAction(ctx, AuditAction{
		Table:     "SecurityEvents",
		RecordID:  recordID,
		Action:    model.ActionSuspiciousActivity,
		UserID:    userID,
		IPAddress: ip,
		Reason:    reason,
	})
	return err
}

// Recent returns up to limit entries, newest first.
func (a *AuditTrail) Recent(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return a.audits.Recent(ctx, limit)
}

// isSuspicious looks at the last hour of activity by the user or IP. A
// lookup failure counts as "not suspicious".
func (a *AuditTrail) isSuspicious(ctx context.Context, userID *string, ip string) bool {
	since := a.clock.Now().Add(-time.Hour)
	log := logger.Log.WithField("ip_address", ip)

	actions, err := a.audits.CountByActorSince(ctx, userID, ip, since)
	if err != nil {
		log.WithError(err).Warn("Audit volume lookup failed")
		return false
	}
	if actions >= a.cfg.AuditActionsPerHour {
		return true
	}

	blocked, err := a.duplicates.CountBlockedSince(ctx, userID, ip, since)
	if err != nil {
		log.WithError(err).Warn("Blocked duplicate lookup failed")
		return false
	}
	if blocked >= a.cfg.DuplicateAttemptThreshold {
		return true
	}

	spam, err := a.requests.CountSpamFlaggedSince(ctx, userID, ip, since)
	if err != nil {
		log.WithError(err).Warn("Spam-flagged request lookup failed")
		return false
	}
	return spam >= a.cfg.AuditSpamFlaggedPerHour
}
