package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidMemberBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		want     bool
	}{
		{"min one max above", 1, 5, true},
		{"min equals max", 3, 3, true},
		{"zero min", 0, 5, false},
		{"negative min", -1, 5, false},
		{"max below min", 4, 2, false},
		{"unset bounds", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := Team{MinMembers: tt.min, MaxMembers: tt.max}
			require.Equal(t, tt.want, team.ValidMemberBounds())
		})
	}
}

func TestCanAccommodate(t *testing.T) {
	team := Team{
		Members:    []Member{{UserID: "u1", Role: RoleLeader}, {UserID: "u2", Role: RoleMember}},
		MinMembers: 1,
		MaxMembers: 3,
	}

	require.True(t, team.CanAccommodate(1))
	require.False(t, team.CanAccommodate(2))
	require.True(t, team.CanAccommodate(0))
}

func TestCanRelease(t *testing.T) {
	team := Team{
		Members:    []Member{{UserID: "u1", Role: RoleLeader}, {UserID: "u2", Role: RoleMember}},
		MinMembers: 2,
		MaxMembers: 5,
	}

	require.False(t, team.CanRelease(1))

	team.MinMembers = 1
	require.True(t, team.CanRelease(1))
	require.False(t, team.CanRelease(2))
}
