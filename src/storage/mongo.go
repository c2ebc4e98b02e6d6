package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/username/tradefolio/backend/src/models"
)

// MongoBackend persists the ledger in a remote document store, scoped per
// authenticated user. Concurrent writers from other devices follow
// last-write-wins at the store; no conflict resolution is attempted here.
type MongoBackend struct {
	trades   *mongo.Collection
	accounts *mongo.Collection
	client   *mongo.Client
}

// NewMongoBackend connects to the document store and prepares the ledger
// collections.
func NewMongoBackend(ctx context.Context, uri, database string) (*MongoBackend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to document store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging document store: %w", err)
	}
	db := client.Database(database)
	return &MongoBackend{
		trades:   db.Collection("trades"),
		accounts: db.Collection("accounts"),
		client:   client,
	}, nil
}

// Apply writes the whole change set inside one session transaction, so a
// trade write and its paired balance delta land together or not at all.
// Transactions require a replica-set deployment; standalone servers reject
// them, which surfaces as an error here rather than a partial write.
// Documents are sanitized so absent optional fields are dropped while
// explicit zero values are kept.
func (m *MongoBackend) Apply(ctx context.Context, userID string, cs ChangeSet) error {
	var tradeOps []mongo.WriteModel
	for _, t := range cs.PutTrades {
		t.UserID = userID
		doc, err := sanitizeDocument(t)
		if err != nil {
			return fmt.Errorf("encoding trade %s: %w", t.ID, err)
		}
		tradeOps = append(tradeOps, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": t.ID, "user_id": userID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	for _, id := range cs.DeleteTradeIDs {
		tradeOps = append(tradeOps, mongo.NewDeleteOneModel().
			SetFilter(bson.M{"_id": id, "user_id": userID}))
	}

	var accountOps []mongo.WriteModel
	for _, a := range cs.PutAccounts {
		a.UserID = userID
		doc, err := sanitizeDocument(a)
		if err != nil {
			return fmt.Errorf("encoding account %s: %w", a.ID, err)
		}
		accountOps = append(accountOps, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": a.ID, "user_id": userID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if len(tradeOps) == 0 && len(accountOps) == 0 {
		return nil
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting ledger session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if len(tradeOps) > 0 {
			if _, err := m.trades.BulkWrite(sc, tradeOps, options.BulkWrite().SetOrdered(true)); err != nil {
				return nil, fmt.Errorf("writing trades: %w", err)
			}
		}
		if len(accountOps) > 0 {
			if _, err := m.accounts.BulkWrite(sc, accountOps, options.BulkWrite().SetOrdered(true)); err != nil {
				return nil, fmt.Errorf("writing accounts: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("applying ledger change: %w", err)
	}
	return nil
}

func (m *MongoBackend) Trade(ctx context.Context, userID, id string) (models.Trade, error) {
	var t models.Trade
	err := m.trades.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Trade{}, ErrNotFound
	}
	if err != nil {
		return models.Trade{}, fmt.Errorf("reading trade %s: %w", id, err)
	}
	return t, nil
}

func (m *MongoBackend) Trades(ctx context.Context, userID string) ([]models.Trade, error) {
	cur, err := m.trades.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "close_time", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Trade
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding trades: %w", err)
	}
	return out, nil
}

func (m *MongoBackend) Account(ctx context.Context, userID, id string) (models.Account, error) {
	var a models.Account
	err := m.accounts.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("reading account %s: %w", id, err)
	}
	return a, nil
}

func (m *MongoBackend) Accounts(ctx context.Context, userID string) ([]models.Account, error) {
	cur, err := m.accounts.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding accounts: %w", err)
	}
	return out, nil
}

func (m *MongoBackend) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
