package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

// wagerDoc é o documento da aposta na coleção: um documento por aposta,
// com o log embutido. Datas BSON têm precisão de milissegundo.
type wagerDoc struct {
	ID             string               `bson:"_id"`
	GameID         string               `bson:"gameId"`
	GameSessionID  string               `bson:"gameSessionId"`
	UserID         string               `bson:"userId"`
	Version        int64                `bson:"version"`
	TotalBet       primitive.Decimal128 `bson:"totalBet"`
	TotalWin       primitive.Decimal128 `bson:"totalWin"`
	TotalLose      primitive.Decimal128 `bson:"totalLose"`
	Events         []eventDoc           `bson:"events"`
	BeginTime      *time.Time           `bson:"beginTime"`
	EndTime        *time.Time           `bson:"endTime"`
	LastUpdateTime *time.Time           `bson:"lastUpdateTime"`
}

// eventDoc segue o mapeamento padrão do driver C#: propriedades com o nome original
// (TransactionId, OccurredAtUtc, Amount) e _t com a hierarquia ["WagerEvent", "WagerBet"].
type eventDoc struct {
	Type          discriminator         `bson:"_t"`
	TransactionID string                `bson:"TransactionId"`
	OccurredAt    time.Time             `bson:"OccurredAtUtc"`
	Amount        *primitive.Decimal128 `bson:"Amount,omitempty"`
}

const eventRootClass = "WagerEvent"

// discriminator é o nome da classe concreta do evento (WagerBet, WagerConfirm...)
type discriminator string

var kindByClass = map[discriminator]domain.Kind{
	"WagerCreate":  domain.KindCreated,
	"WagerBet":     domain.KindBet,
	"WagerWin":     domain.KindWin,
	"WagerLose":    domain.KindLose,
	"WagerConfirm": domain.KindConfirmed,
	"WagerCancel":  domain.KindCanceled,
}

func classOf(k domain.Kind) discriminator {
	for class, kind := range kindByClass {
		if kind == k {
			return class
		}
	}
	return discriminator(k)
}

// kind aceita o nome da classe ou, para documentos antigos, o próprio Kind
func (d discriminator) kind() domain.Kind {
	if k, ok := kindByClass[d]; ok {
		return k
	}
	return domain.Kind(d)
}

func (d discriminator) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(bson.A{eventRootClass, string(d)})
}

// UnmarshalBSONValue lê _t como string ou como array de hierarquia (usa o último nome)
func (d *discriminator) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeString:
		*d = discriminator(raw.StringValue())
	case bson.TypeArray:
		vals, err := raw.Array().Values()
		if err != nil {
			return fmt.Errorf("_t: %w", err)
		}
		if len(vals) == 0 {
			return fmt.Errorf("_t: empty hierarchy: %w", domain.ErrInvalidEvent)
		}
		name, ok := vals[len(vals)-1].StringValueOK()
		if !ok {
			return fmt.Errorf("_t: non-string class name: %w", domain.ErrInvalidEvent)
		}
		*d = discriminator(name)
	default:
		return fmt.Errorf("_t: unexpected bson type %s: %w", t, domain.ErrInvalidEvent)
	}
	return nil
}

// MongoStore implementa Store numa coleção MongoDB
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("decimal128 %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func toEventDocs(events []domain.Event) ([]eventDoc, error) {
	docs := make([]eventDoc, 0, len(events))
	for _, evt := range events {
		d := eventDoc{Type: classOf(evt.Kind()), TransactionID: evt.TransactionID(), OccurredAt: evt.OccurredAt()}
		if evt.HasAmount() {
			amt, err := toDecimal128(evt.Amount())
			if err != nil {
				return nil, err
			}
			d.Amount = &amt
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// snapshotFields são os campos derivados gravados junto do log
func snapshotFields(w *domain.Wager) (bson.M, error) {
	st := w.State()
	fields := bson.M{"version": st.Version}
	for name, d := range map[string]decimal.Decimal{
		"totalBet":  st.TotalBet,
		"totalWin":  st.TotalWin,
		"totalLose": st.TotalLose,
	} {
		v, err := toDecimal128(d)
		if err != nil {
			return nil, err
		}
		fields[name] = v
	}
	fields["beginTime"] = optionalTime(st.BeginTime)
	fields["endTime"] = optionalTime(st.EndTime)
	fields["lastUpdateTime"] = optionalTime(st.LastUpdateTime)
	return fields, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toWagerDoc(w *domain.Wager) (wagerDoc, error) {
	events, err := toEventDocs(w.Events())
	if err != nil {
		return wagerDoc{}, err
	}
	st := w.State()
	doc := wagerDoc{
		ID:             w.ID(),
		GameID:         w.GameID(),
		GameSessionID:  w.SessionID(),
		UserID:         w.UserID(),
		Version:        st.Version,
		Events:         events,
		BeginTime:      optionalTime(st.BeginTime),
		EndTime:        optionalTime(st.EndTime),
		LastUpdateTime: optionalTime(st.LastUpdateTime),
	}
	if doc.TotalBet, err = toDecimal128(st.TotalBet); err != nil {
		return wagerDoc{}, err
	}
	if doc.TotalWin, err = toDecimal128(st.TotalWin); err != nil {
		return wagerDoc{}, err
	}
	if doc.TotalLose, err = toDecimal128(st.TotalLose); err != nil {
		return wagerDoc{}, err
	}
	return doc, nil
}

// fromWagerDoc ignora os campos derivados do documento e refaz o fold do log
func fromWagerDoc(doc wagerDoc) (*domain.Wager, error) {
	events := make([]domain.Event, 0, len(doc.Events))
	for i, d := range doc.Events {
		var amt *decimal.Decimal
		if d.Amount != nil {
			v, err := fromDecimal128(*d.Amount)
			if err != nil {
				return nil, fmt.Errorf("decode %s event %d amount: %w", doc.ID, i+1, err)
			}
			amt = &v
		}
		evt, err := domain.NewEvent(d.Type.kind(), d.TransactionID, d.OccurredAt, amt)
		if err != nil {
			return nil, fmt.Errorf("decode %s event %d: %w", doc.ID, i+1, err)
		}
		events = append(events, evt)
	}
	return domain.Rehydrate(doc.ID, doc.GameID, doc.GameSessionID, doc.UserID, events)
}

func (m *MongoStore) Load(ctx context.Context, id string) (*domain.Wager, error) {
	var doc wagerDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return fromWagerDoc(doc)
}

func (m *MongoStore) Save(ctx context.Context, w *domain.Wager) error {
	doc, err := toWagerDoc(w)
	if err != nil {
		return fmt.Errorf("save %s: %w", w.ID(), err)
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("save %s: %w", w.ID(), ErrAlreadyExists)
		}
		return fmt.Errorf("save %s: %w", w.ID(), err)
	}
	return nil
}

// Append filtra por _id e versão esperada; $push dos eventos novos e $set do snapshot
// acontecem no mesmo update atômico do documento.
func (m *MongoStore) Append(ctx context.Context, w *domain.Wager, expected int64) error {
	newEvents := w.EventsSince(expected)
	if len(newEvents) == 0 {
		return nil
	}
	docs, err := toEventDocs(newEvents)
	if err != nil {
		return fmt.Errorf("append %s: %w", w.ID(), err)
	}
	set, err := snapshotFields(w)
	if err != nil {
		return fmt.Errorf("append %s: %w", w.ID(), err)
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": w.ID(), "version": expected},
		bson.M{
			"$push": bson.M{"events": bson.M{"$each": docs}},
			"$set":  set,
		},
	)
	if err != nil {
		return fmt.Errorf("append %s: %w", w.ID(), err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := m.coll.CountDocuments(ctx, bson.M{"_id": w.ID()})
	if err != nil {
		return fmt.Errorf("append %s: %w", w.ID(), err)
	}
	if n == 0 {
		return fmt.Errorf("append %s: %w", w.ID(), ErrNotFound)
	}
	return fmt.Errorf("append %s: expected version %d: %w", w.ID(), expected, ErrConcurrencyConflict)
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.coll.Database().Client().Ping(ctx, nil)
}
