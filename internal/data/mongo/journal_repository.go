package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/journal"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultJournalCollection is used when no collection name is configured
const DefaultJournalCollection = "donation_journal"

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewJournalRepository creates a new MongoDB journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database, collection string) *JournalRepository {
	if collection == "" {
		collection = DefaultJournalCollection
	}
	return &JournalRepository{
		collection: db.Collection(collection),
		logger:     logger,
	}
}

var _ journal.Repository = (*JournalRepository)(nil)

// EnsureIndexes creates the unique donation index and the donor listing index
func (r *JournalRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "donation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("Failed to create journal indexes", "error", err)
		return fmt.Errorf("failed to create journal indexes: %w", err)
	}
	return nil
}

// Create stores a journal entry. The unique donation index turns a redelivered
// event into ErrDuplicateEntry.
func (r *JournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return journal.ErrDuplicateEntry{DonationID: entry.DonationID}
		}
		r.logger.Error("Failed to create journal entry",
			"donation_id", entry.DonationID.String(),
			"error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByDonationID retrieves a journal entry by donation id.
// Returns ErrEntryNotFound if the donation was not projected yet.
func (r *JournalRepository) GetByDonationID(ctx context.Context, donationID uuid.UUID) (*journal.Entry, error) {
	var entry journal.Entry
	err := r.collection.FindOne(ctx, bson.M{"donation_id": donationID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrEntryNotFound{DonationID: donationID}
		}
		r.logger.Error("Failed to get journal entry",
			"donation_id", donationID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return &entry, nil
}

// List returns journal entries newest first
func (r *JournalRepository) List(ctx context.Context, limit, offset int) ([]*journal.Entry, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *JournalRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

// ListByDonorID returns the donor's journal entries newest first
func (r *JournalRepository) ListByDonorID(ctx context.Context, donorID string, limit, offset int) ([]*journal.Entry, error) {
	return r.find(ctx, bson.M{"donor_id": donorID}, limit, offset)
}

func (r *JournalRepository) CountByDonorID(ctx context.Context, donorID string) (int64, error) {
	return r.count(ctx, bson.M{"donor_id": donorID})
}

func (r *JournalRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*journal.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get journal entries", "filter", filter, "error", err)
		return nil, fmt.Errorf("failed to get journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*journal.Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode journal entries", "filter", filter, "error", err)
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}

	return entries, nil
}

func (r *JournalRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count journal entries", "filter", filter, "error", err)
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return count, nil
}
