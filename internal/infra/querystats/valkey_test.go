package querystats

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

func newTestValkey(t *testing.T, mr *miniredis.Miniredis, resp2 bool) valkey.Client {
	t.Helper()
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:   []string{mr.Addr()},
		DisableCache:  true,
		AlwaysRESP2:   resp2,
		ClientSetInfo: valkey.DisableClientSetInfo,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestValkeyStoreCountsAndRanks(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	store := NewValkeyStore(newTestValkey(t, mr, false), "test", "faq")

	require.NoError(t, store.IncrementQuery(ctx, "reset password", "Reset password?"))
	require.NoError(t, store.IncrementQuery(ctx, "reset password", "RESET PASSWORD"))
	require.NoError(t, store.IncrementQuery(ctx, "shipping", ""))
	require.NoError(t, store.IncrementQuery(ctx, "", "ignored"))

	score, err := mr.ZScore("test:faq:trending", "reset password")
	require.NoError(t, err)
	require.Equal(t, 2.0, score)
	display, err := mr.Get("test:faq:display:reset password")
	require.NoError(t, err)
	require.Equal(t, "Reset password?", display)

	for _, resp2 := range []bool{false, true} {
		reader := NewValkeyStore(newTestValkey(t, mr, resp2), "test", "faq")
		top, err := reader.TopQueries(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, []faq.TrendingQuery{
			{Query: "Reset password?", Count: 2},
			{Query: "shipping", Count: 1},
		}, top)

		top, err = reader.TopQueries(ctx, 1)
		require.NoError(t, err)
		require.Len(t, top, 1)
	}
}

func TestValkeyStoreEmptyCollection(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewValkeyStore(newTestValkey(t, mr, false), "test", "empty")

	top, err := store.TopQueries(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestParseScoresAcceptsPairedReply(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newTestValkey(t, mr, false)
	ctx := context.Background()

	paired, err := client.Do(ctx, client.B().Eval().
		Script(`return {{"billing", "4"}, {"refunds", "1.5"}}`).
		Numkeys(0).Build()).ToArray()
	require.NoError(t, err)
	scores, err := parseScores(paired)
	require.NoError(t, err)
	require.Equal(t, []memberScore{{member: "billing", score: 4}, {member: "refunds", score: 1.5}}, scores)

	flat, err := client.Do(ctx, client.B().Eval().
		Script(`return {"billing", "4", "refunds", "1.5", "dangling"}`).
		Numkeys(0).Build()).ToArray()
	require.NoError(t, err)
	scores, err = parseScores(flat)
	require.NoError(t, err)
	require.Equal(t, []memberScore{{member: "billing", score: 4}, {member: "refunds", score: 1.5}}, scores)

	bad, err := client.Do(ctx, client.B().Eval().
		Script(`return {{"billing", "many"}}`).
		Numkeys(0).Build()).ToArray()
	require.NoError(t, err)
	_, err = parseScores(bad)
	require.Error(t, err)
}
