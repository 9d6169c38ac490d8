package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for input, want := range map[string]Role{
		"student": RoleStudent,
		"Faculty": RoleFaculty,
		" ADMIN ": RoleAdmin,
	} {
		got, err := ParseRole(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseRole("janitor")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestParseSeverity(t *testing.T) {
	got, err := ParseSeverity("")
	require.NoError(t, err)
	assert.Equal(t, SeverityInfo, got)

	got, err = ParseSeverity("Warning")
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, got)

	got, err = ParseSeverity("success")
	require.NoError(t, err)
	assert.Equal(t, SeveritySuccess, got)

	_, err = ParseSeverity("critical")
	assert.Error(t, err)
}

func TestIsBroadcast(t *testing.T) {
	n := Notification{RecipientKey: Broadcast}
	assert.True(t, n.IsBroadcast())

	n.RecipientKey = "u1"
	assert.False(t, n.IsBroadcast())
}
