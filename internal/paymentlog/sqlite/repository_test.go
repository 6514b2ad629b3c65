package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mojahedhu/Mojahed-Store/internal/paymentlog"
	"github.com/Mojahedhu/Mojahed-Store/internal/paymentlog/sqlite"
)

func openRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "payment-log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, repo.Close()) })
	return repo
}

func TestRecordAndHistory(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	entries := []*paymentlog.Entry{
		paymentlog.NewEntry(ctx, "order-1", paymentlog.SourceCardWebhook, paymentlog.OutcomePaid, "pi_123"),
		paymentlog.NewEntry(ctx, "order-1", paymentlog.SourceCardConfirm, paymentlog.OutcomeDuplicate, "order already paid"),
		paymentlog.NewEntry(ctx, "order-2", paymentlog.SourceMarketplaceWebhook, paymentlog.OutcomeRejected, "payment amount mismatch"),
	}
	for _, e := range entries {
		require.NoError(t, repo.Record(ctx, e))
	}

	history, err := repo.History(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, paymentlog.OutcomePaid, history[0].Outcome)
	require.Equal(t, "pi_123", history[0].Detail)
	require.Equal(t, paymentlog.OutcomeDuplicate, history[1].Outcome)

	other, err := repo.History(ctx, "order-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.Equal(t, paymentlog.SourceMarketplaceWebhook, other[0].Source)
}

func TestHistoryEmptyForUnknownOrder(t *testing.T) {
	repo := openRepo(t)

	history, err := repo.History(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, history)
}
