package service

import (
	"context"
	"fmt"
	"testing"
	"time"
	"workforce-api/model"
	"workforce-api/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		action, table string
		want          model.RiskLevel
	}{
		{model.ActionInsert, "Employees", model.RiskLow},
		{model.ActionUpdate, "Employees", model.RiskMedium},
		{model.ActionUpdate, "Departments", model.RiskMedium},
		{model.ActionUpdate, "LeaveRequests", model.RiskLow},
		{model.ActionDelete, "LeaveRequests", model.RiskHigh},
		{model.ActionInsert, "Users", model.RiskHigh},
		{model.ActionUpdate, "UserRoles", model.RiskHigh},
		{"delete", "employees", model.RiskHigh},
		{model.ActionSuspiciousActivity, "SecurityEvents", model.RiskHigh},
		{model.ActionLogin, "Sessions", model.RiskLow},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s %s", c.action, c.table), func(t *testing.T) {
			assert.Equal(t, c.want, RiskLevelFor(c.action, c.table))
		})
	}
}

func newTestAuditTrail(store *memory.Store) (*AuditTrail, *fakeClock) {
	clock := newFakeClock()
	cfg := testSecurityConfig()
	cfg.AuditActionsPerHour = 3
	cfg.AuditSpamFlaggedPerHour = 2
	return NewAuditTrail(store.Audits(), store.Requests(), store.Duplicates(), cfg, clock), clock
}

func TestAuditTrail_LogActionPersistsEntry(t *testing.T) {
	store := memory.NewStore()
	audit, clock := newTestAuditTrail(store)
	ctx := context.Background()

	entry, err := audit.LogAction(ctx, AuditAction{
		Table:     "Employees",
		RecordID:  "e-1",
		Action:    model.ActionUpdate,
		UserID:    strPtr("u-1"),
		IPAddress: "10.0.0.1",
		OldValues: map[string]string{"department": "R&D"},
		NewValues: map[string]string{"department": "Finance"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RiskMedium, entry.RiskLevel)
	assert.False(t, entry.SuspiciousActivity)
	assert.Equal(t, `{"department":"R&D"}`, entry.OldValues)
	assert.Equal(t, clock.Now(), entry.CreatedAt)

	recent, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "e-1", recent[0].RecordID)
}

func TestAuditTrail_SuspiciousByActionVolume(t *testing.T) {
	store := memory.NewStore()
	audit, clock := newTestAuditTrail(store)
	ctx := context.Background()
	act := AuditAction{Table: "Employees", RecordID: "e-1", Action: model.ActionInsert, UserID: strPtr("u-1"), IPAddress: "10.0.0.1"}

	for i := 0; i < 3; i++ {
		entry, err := audit.LogAction(ctx, act)
		require.NoError(t, err)
		assert.False(t, entry.SuspiciousActivity)
	}

	entry, err := audit.LogAction(ctx, act)
	require.NoError(t, err)
	assert.True(t, entry.SuspiciousActivity, "fourth action in an hour with a limit of three")

	other := act
	other.UserID = strPtr("u-2")
	other.IPAddress = "10.0.0.2"
	entry, err = audit.LogAction(ctx, other)
	require.NoError(t, err)
	assert.False(t, entry.SuspiciousActivity)

	sameIP := act
	sameIP.UserID = strPtr("u-3")
	entry, err = audit.LogAction(ctx, sameIP)
	require.NoError(t, err)
	assert.True(t, entry.SuspiciousActivity, "a new user ID from a busy IP")

	clock.Advance(61 * time.Minute)
	entry, err = audit.LogAction(ctx, act)
	require.NoError(t, err)
	assert.False(t, entry.SuspiciousActivity)
}

func TestAuditTrail_SuspiciousBySpamFlags(t *testing.T) {
	store := memory.NewStore()
	audit, clock := newTestAuditTrail(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Requests().Create(ctx, &model.RequestLog{IPAddress: "10.0.0.7", IsSpamDetected: true, CreatedAt: clock.Now()}))
	}

	entry, err := audit.LogAction(ctx, AuditAction{Table: "Employees", Action: model.ActionInsert, IPAddress: "10.0.0.7"})
	require.NoError(t, err)
	assert.True(t, entry.SuspiciousActivity)
}

func TestAuditTrail_SuspiciousByBlockedDuplicates(t *testing.T) {
	store := memory.NewStore()
	audit, clock := newTestAuditTrail(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Duplicates().Create(ctx, &model.DuplicateLog{UserID: strPtr("u-9"), IsBlocked: true, CreatedAt: clock.Now()}))
	}

	entry, err := audit.LogAction(ctx, AuditAction{Table: "Employees", Action: model.ActionInsert, UserID: strPtr("u-9")})
	require.NoError(t, err)
	assert.True(t, entry.SuspiciousActivity)
}

func TestAuditTrail_SuspiciousByBlockedDuplicatesFromIP(t *testing.T) {
	store := memory.NewStore()
	audit, clock := newTestAuditTrail(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Duplicates().Create(ctx, &model.DuplicateLog{IPAddress: "10.9.9.9", IsBlocked: true, CreatedAt: clock.Now()}))
	}

	entry, err := audit.LogAction(ctx, AuditAction{Table: "Employees", Action: model.ActionInsert, UserID: strPtr("u-7"), IPAddress: "10.9.9.9"})
	require.NoError(t, err)
	assert.True(t, entry.SuspiciousActivity)
}

func TestAuditTrail_MarkSuspiciousActivity(t *testing.T) {
	store := memory.NewStore()
	audit, _ := newTestAuditTrail(store)
	ctx := context.Background()

	require.NoError(t, audit.MarkSuspiciousActivity(ctx, nil, "10.0.0.1", "rate limit exceeded"))

	recent, err := audit.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, model.ActionSuspiciousActivity, recent[0].Action)
	assert.Equal(t, "SecurityEvents", recent[0].TableName)
	assert.Equal(t, "10.0.0.1", recent[0].RecordID)
	assert.Equal(t, model.RiskHigh, recent[0].RiskLevel)
	assert.Equal(t, "rate limit exceeded", recent[0].Reason)
}
