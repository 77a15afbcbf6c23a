package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser_DefaultState(t *testing.T) {
	u := NewUser(1, 10)
	require.Equal(t, StateMainMenu, u.State)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, int64(10), u.ChatID)
}

func TestUser_AwaitingLabel(t *testing.T) {
	u := NewUser(1, 10)
	_, ok := u.AwaitingLabel()
	require.False(t, ok)

	u.SetState(StateAwaitingBad)
	l, ok := u.AwaitingLabel()
	require.True(t, ok)
	require.Equal(t, LabelBad, l)

	u.SetState(StateAwaitingGood)
	l, ok = u.AwaitingLabel()
	require.True(t, ok)
	require.Equal(t, LabelGood, l)

	u.SetState(StateAwaitingCheck)
	_, ok = u.AwaitingLabel()
	require.False(t, ok)
}
