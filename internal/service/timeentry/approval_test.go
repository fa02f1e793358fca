package timeentry

import (
	"testing"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove(t *testing.T) {
	now := monday.Add(10 * time.Hour)

	t.Run("manager approves closed entry", func(t *testing.T) {
		entry := closedEntry("e1", "tech-1", monday, 8*time.Hour)

		require.NoError(t, Approve(&entry, user.RoleManager, "mgr-1", now))

		assert.True(t, entry.Approved)
		assert.True(t, entry.Locked)
		require.NotNil(t, entry.ApprovedBy)
		assert.Equal(t, "mgr-1", *entry.ApprovedBy)
		assert.Equal(t, now, *entry.ApprovedAt)
	})

	t.Run("technician is blocked", func(t *testing.T) {
		entry := closedEntry("e1", "tech-1", monday, 8*time.Hour)

		assert.ErrorIs(t, Approve(&entry, user.RoleTechnician, "tech-1", now), timeentry.ErrApproverBlocked)
		assert.False(t, entry.Locked)
	})

	t.Run("open entry cannot be approved", func(t *testing.T) {
		entry := timeentry.TimeEntry{ID: "e1", ClockIn: monday}

		assert.ErrorIs(t, Approve(&entry, user.RoleAdmin, "admin-1", now), timeentry.ErrEntryStillOpen)
	})

	t.Run("already locked", func(t *testing.T) {
		entry := closedEntry("e1", "tech-1", monday, 8*time.Hour)
		entry.Locked = true

		assert.ErrorIs(t, Approve(&entry, user.RoleManager, "mgr-1", now), timeentry.ErrEntryLocked)
	})
}

func TestUnlock(t *testing.T) {
	entry := closedEntry("e1", "tech-1", monday, 8*time.Hour)
	require.NoError(t, Approve(&entry, user.RoleManager, "mgr-1", monday.Add(9*time.Hour)))

	assert.ErrorIs(t, Unlock(&entry, user.RoleTechnician), timeentry.ErrApproverBlocked)
	require.NoError(t, Unlock(&entry, user.RoleManager))

	assert.False(t, entry.Locked)
	assert.True(t, entry.Approved)
	assert.ErrorIs(t, Unlock(&entry, user.RoleManager), timeentry.ErrEntryNotLocked)
}
