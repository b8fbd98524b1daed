package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
)

// Keeps each entry as a document keyed by post id. Documents never expire.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	maxEntries int
}

// Connects to Firestore. Honours FIRESTORE_EMULATOR_HOST like every other
// Firestore client.
func NewFirestoreStore(ctx context.Context, projectID, collection string, maxEntries int) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	return &FirestoreStore{client: client, collection: collection, maxEntries: maxEntries}, nil
}

func (s *FirestoreStore) ExistsExact(ctx context.Context, author, id string) (bool, error) {
	defer observe("exists", time.Now())
	if id == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, unavailable("exists", err)
	}

	entry, ok := decodeDocument(author, snap)
	return ok && entry.Author == author, nil
}

func (s *FirestoreStore) EntriesFor(ctx context.Context, author string) ([]models.StoredEntry, error) {
	defer observe("entries", time.Now())
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := s.client.Collection(s.collection).Where("author", "==", author)
	if s.maxEntries > 0 {
		query = query.Limit(s.maxEntries)
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	entries := []models.StoredEntry{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, unavailable("entries", err)
		}
		if entry, ok := decodeDocument(author, snap); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *FirestoreStore) Put(ctx context.Context, author, id string, entry models.StoredEntry, ttl time.Duration) error {
	defer observe("put", time.Now())
	if _, err := (KeyParser{}).Key(author, id); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.client.Collection(s.collection).Doc(id).Set(ctx, entry); err != nil {
		return unavailable("put", err)
	}
	return nil
}

// Decodes one document, logging and skipping it when its fields do not fit
// the entry schema.
func decodeDocument(author string, snap *firestore.DocumentSnapshot) (models.StoredEntry, bool) {
	var entry models.StoredEntry
	if err := snap.DataTo(&entry); err != nil {
		logger.Log.Warn("Skipping undecodable stored entry",
			zap.String("author", author),
			zap.String("document", snap.Ref.ID),
			zap.Error(err))
		return models.StoredEntry{}, false
	}
	return entry, true
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
