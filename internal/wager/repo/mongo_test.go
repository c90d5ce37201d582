package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

func TestWagerDoc_RoundTripThroughBSON(t *testing.T) {
	w := openedWager(t, "W-mongo")
	require.NoError(t, w.Bet("tx-bet", t0.Add(5*time.Second), dec("42.17")))
	require.NoError(t, w.Lose("tx-lose", t0.Add(20*time.Second), dec("42.17")))
	require.NoError(t, w.Cancel("tx-cancel", t0.Add(time.Minute)))

	doc, err := toWagerDoc(w)
	require.NoError(t, err)
	require.Equal(t, "W-mongo", doc.ID)
	require.Equal(t, "S-1", doc.GameSessionID)
	require.EqualValues(t, 4, doc.Version)
	require.Equal(t, "42.17", doc.TotalBet.String())
	require.Nil(t, doc.Events[0].Amount)
	require.NotNil(t, doc.Events[1].Amount)
	require.Equal(t, discriminator("WagerBet"), doc.Events[1].Type)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded wagerDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got, err := fromWagerDoc(decoded)
	require.NoError(t, err)
	require.True(t, w.State().Equal(got.State()))
	require.True(t, got.IsCompleted())
	require.Equal(t, domain.StatusCompleted, got.Status())
}

func TestWagerDoc_FieldNames(t *testing.T) {
	doc, err := toWagerDoc(openedWager(t, "W-names"))
	require.NoError(t, err)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, k := range []string{"_id", "gameId", "gameSessionId", "userId", "version", "totalBet", "totalWin", "totalLose", "events", "beginTime", "endTime", "lastUpdateTime"} {
		require.Contains(t, m, k)
	}
	require.Nil(t, m["endTime"])
}

func TestFromWagerDoc_RejectsUnknownDiscriminator(t *testing.T) {
	doc, err := toWagerDoc(openedWager(t, "W-bad"))
	require.NoError(t, err)
	doc.Events[0].Type = "WagerRefund"

	_, err = fromWagerDoc(doc)
	require.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestSnapshotFields(t *testing.T) {
	w := openedWager(t, "W-snap")
	require.NoError(t, w.Win("tx", t0, dec("3.30")))

	set, err := snapshotFields(w)
	require.NoError(t, err)
	require.EqualValues(t, 2, set["version"])
	require.Contains(t, set, "totalWin")
	require.Nil(t, set["endTime"])
}

// documento como o driver C# grava: _t com a hierarquia e propriedades em PascalCase
func csharpWagerDoc(t *testing.T) bson.D {
	t.Helper()
	d128 := func(s string) primitive.Decimal128 {
		v, err := primitive.ParseDecimal128(s)
		require.NoError(t, err)
		return v
	}
	return bson.D{
		{Key: "_id", Value: "WAGER-20250314120000-4242"},
		{Key: "gameId", Value: "GAME-12"},
		{Key: "gameSessionId", Value: "SESSION-abc"},
		{Key: "userId", Value: "USER-0042"},
		{Key: "version", Value: int64(4)},
		{Key: "totalBet", Value: d128("37.25")},
		{Key: "totalWin", Value: d128("50.10")},
		{Key: "totalLose", Value: d128("0")},
		{Key: "events", Value: bson.A{
			bson.D{{Key: "_t", Value: bson.A{"WagerEvent", "WagerCreate"}}, {Key: "TransactionId", Value: "txn-1"}, {Key: "OccurredAtUtc", Value: t0}},
			bson.D{{Key: "_t", Value: bson.A{"WagerEvent", "WagerBet"}}, {Key: "TransactionId", Value: "txn-2"}, {Key: "OccurredAtUtc", Value: t0.Add(5 * time.Second)}, {Key: "Amount", Value: d128("37.25")}},
			bson.D{{Key: "_t", Value: bson.A{"WagerEvent", "WagerWin"}}, {Key: "TransactionId", Value: "txn-3"}, {Key: "OccurredAtUtc", Value: t0.Add(20 * time.Second)}, {Key: "Amount", Value: d128("50.10")}},
			bson.D{{Key: "_t", Value: bson.A{"WagerEvent", "WagerConfirm"}}, {Key: "TransactionId", Value: "txn-4"}, {Key: "OccurredAtUtc", Value: t0.Add(time.Minute)}},
		}},
		{Key: "beginTime", Value: t0},
		{Key: "endTime", Value: t0.Add(time.Minute)},
		{Key: "lastUpdateTime", Value: t0.Add(time.Minute)},
	}
}

func TestFromWagerDoc_ReadsSeederDocuments(t *testing.T) {
	raw, err := bson.Marshal(csharpWagerDoc(t))
	require.NoError(t, err)

	var doc wagerDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	w, err := fromWagerDoc(doc)
	require.NoError(t, err)
	require.Equal(t, "SESSION-abc", w.SessionID())
	require.EqualValues(t, 4, w.Version())
	require.True(t, w.TotalBet().Equal(dec("37.25")))
	require.True(t, w.TotalWin().Equal(dec("50.1")))
	require.True(t, w.IsCompleted())

	events := w.Events()
	require.Equal(t, domain.KindCreated, events[0].Kind())
	require.Equal(t, domain.KindConfirmed, events[3].Kind())
	require.Equal(t, "txn-2", events[1].TransactionID())
}

func TestFromWagerDoc_AcceptsStringDiscriminator(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: "W-str"},
		{Key: "events", Value: bson.A{
			bson.D{{Key: "_t", Value: "WagerCreate"}, {Key: "TransactionId", Value: "txn-1"}, {Key: "OccurredAtUtc", Value: t0}},
		}},
	})
	require.NoError(t, err)

	var doc wagerDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	require.Equal(t, discriminator("WagerCreate"), doc.Events[0].Type)
}

func TestWagerDoc_EventsWrittenInSeederShape(t *testing.T) {
	w := openedWager(t, "W-shape")
	require.NoError(t, w.Bet("tx-bet", t0, dec("1.50")))

	doc, err := toWagerDoc(w)
	require.NoError(t, err)
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	bet := bson.Raw(raw).Lookup("events", "1").Document()
	class, err := bet.LookupErr("_t")
	require.NoError(t, err)
	vals, err := class.Array().Values()
	require.NoError(t, err)
	require.Len(t, vals, 2)
	require.Equal(t, "WagerEvent", vals[0].StringValue())
	require.Equal(t, "WagerBet", vals[1].StringValue())

	for _, k := range []string{"TransactionId", "OccurredAtUtc", "Amount"} {
		_, err := bet.LookupErr(k)
		require.NoError(t, err, k)
	}
}
