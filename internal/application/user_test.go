package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/infrastructure/storage"
)

func TestUserService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingCheck, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_BeginCollect(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCollect(ctx, 1, 10, entity.LabelBad)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingBad, user.State)

	label, ok := user.AwaitingLabel()
	require.True(t, ok)
	require.Equal(t, entity.LabelBad, label)

	user, err = svc.BeginCollect(ctx, 1, 10, entity.LabelGood)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingGood, user.State)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateProcessing)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)

	user, err = svc.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)
}
