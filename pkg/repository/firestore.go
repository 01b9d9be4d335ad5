package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreRepo implements Repository using Firestore
type firestoreRepo struct {
	client     *firestore.Client
	collection string
}

// NewFirestore creates a Firestore backed Repository. Items are stored as
// documents keyed by item ID under the given collection.
func NewFirestore(ctx context.Context, projectID, databaseID, collection string) (Repository, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	if collection == "" {
		return nil, goerr.New("collection name is required")
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.Value("project", projectID))
	}

	return &firestoreRepo{
		client:     client,
		collection: collection,
	}, nil
}

func (r *firestoreRepo) IsEnabled() bool {
	return r.client != nil
}

func (r *firestoreRepo) UpdateItem(ctx context.Context, id model.ItemID, fields map[string]any) (*model.Item, error) {
	doc := r.client.Collection(r.collection).Doc(string(id))

	fields["updated_at"] = time.Now()
	if _, err := doc.Set(ctx, fields, firestore.MergeAll); err != nil {
		return nil, goerr.Wrap(err, "failed to update item", goerr.Value("item_id", id))
	}

	snap, err := doc.Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read back item", goerr.Value("item_id", id))
	}

	var item model.Item
	if err := snap.DataTo(&item); err != nil {
		return nil, goerr.Wrap(err, "failed to decode item", goerr.Value("item_id", id))
	}
	item.ID = id

	return &item, nil
}

func (r *firestoreRepo) FetchItem(ctx context.Context, id model.ItemID) (*model.Item, error) {
	snap, err := r.client.Collection(r.collection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrItemNotFound, "fetch item", goerr.Value("item_id", id))
		}
		return nil, goerr.Wrap(err, "failed to fetch item", goerr.Value("item_id", id))
	}

	var item model.Item
	if err := snap.DataTo(&item); err != nil {
		return nil, goerr.Wrap(err, "failed to decode item", goerr.Value("item_id", id))
	}
	item.ID = id

	return &item, nil
}

func (r *firestoreRepo) SaveFinalDataset(ctx context.Context, items []*model.Item, collection string) (int, error) {
	if collection == "" {
		return 0, goerr.New("dataset collection name is required")
	}

	// Firestore limits one batch to 500 writes
	const batchLimit = 500

	count := 0
	for start := 0; start < len(items); start += batchLimit {
		end := min(start+batchLimit, len(items))
		batch := items[start:end]

		bw := r.client.BulkWriter(ctx)
		jobs := make([]*firestore.BulkWriterJob, 0, len(batch))
		for _, item := range batch {
			doc := r.client.Collection(collection).Doc(string(item.ID))
			job, err := bw.Set(doc, item)
			if err != nil {
				bw.End()
				return count, goerr.Wrap(err, "failed to enqueue item", goerr.Value("item_id", item.ID))
			}
			jobs = append(jobs, job)
		}
		bw.End()

		// End only flushes; write outcomes surface through each job
		for i, job := range jobs {
			if _, err := job.Results(); err != nil {
				return count, goerr.Wrap(err, "failed to write item", goerr.Value("item_id", batch[i].ID))
			}
			count++
		}
	}

	return count, nil
}
