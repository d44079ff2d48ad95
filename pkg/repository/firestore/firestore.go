package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	namespacesCollection = "namespaces"
	documentsCollection  = "documents"

	// Field names of stored documents. Vector indexes created by the migrate
	// command refer to these paths.
	FieldEmbedding  = "Embedding"
	FieldAttributes = "Attributes"

	distanceField  = "Distance"
	deletePageSize = 500
)

// vectorDoc is the Firestore document representation of model.Document.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search works.
type vectorDoc struct {
	ID         string             `firestore:"ID"`
	Embedding  firestore.Vector32 `firestore:"Embedding,omitempty"`
	Attributes map[string]any     `firestore:"Attributes"`
	UpdatedAt  time.Time          `firestore:"UpdatedAt"`
}

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.VectorStore = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates all collections under a prefix, mainly for tests
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{client: client}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// DocumentsCollectionGroup is the collection group id that holds vectors of every namespace
func DocumentsCollectionGroup(prefix string) string {
	return prefix + documentsCollection
}

// documents returns {prefix}namespaces/{namespace}/{prefix}documents
func (f *Firestore) documents(namespace string) *firestore.CollectionRef {
	return f.client.Collection(f.collectionPrefix + namespacesCollection).
		Doc(namespace).
		Collection(DocumentsCollectionGroup(f.collectionPrefix))
}

func (f *Firestore) Upsert(ctx context.Context, namespace string, cols *model.UpsertColumns) error {
	if namespace == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}
	if err := cols.Validate(); err != nil {
		return goerr.Wrap(err, "invalid upsert columns", goerr.V(model.NamespaceKey, namespace))
	}
	if cols.Len() == 0 {
		return nil
	}

	now := time.Now().UTC()
	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, cols.Len())
	for i := 0; i < cols.Len(); i++ {
		doc := cols.Document(i)
		data := &vectorDoc{
			ID:         doc.ID,
			Attributes: doc.Attributes.Storable(),
			UpdatedAt:  now,
		}
		if len(doc.Vector) > 0 {
			data.Embedding = firestore.Vector32(doc.Vector)
		}

		job, err := bw.Set(f.documents(namespace).Doc(doc.ID), data)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue document", goerr.V("id", doc.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write document",
				goerr.V(model.NamespaceKey, namespace),
				goerr.V("id", cols.IDs[i]))
		}
	}

	return nil
}

func (f *Firestore) Query(ctx context.Context, namespace string, query *model.VectorQuery) ([]*model.QueryResult, error) {
	if query.TopK <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "top_k must be positive", goerr.V("top_k", query.TopK))
	}

	q := f.documents(namespace).Query
	for _, filter := range query.Filters {
		if filter.Op != model.FilterOpEq {
			return nil, goerr.Wrap(model.ErrInvalidArgument, "unsupported filter operator", goerr.V("op", filter.Op))
		}
		q = q.Where(FieldAttributes+"."+filter.Attribute, "==", filter.Value)
	}

	var iter *firestore.DocumentIterator
	if query.Vector == nil {
		iter = q.OrderBy(firestore.DocumentID, firestore.Asc).Limit(query.TopK).Documents(ctx)
	} else {
		vq := q.FindNearest(FieldEmbedding, firestore.Vector32(query.Vector), query.TopK,
			firestore.DistanceMeasureCosine, &firestore.FindNearestOptions{DistanceResultField: distanceField})
		iter = vq.Documents(ctx)
	}
	defer iter.Stop()

	results := make([]*model.QueryResult, 0, query.TopK)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.FailedPrecondition {
				return nil, goerr.Wrap(err, "vector index is missing, run the migrate command",
					goerr.V(model.NamespaceKey, namespace),
					goerr.V("collection_group", DocumentsCollectionGroup(f.collectionPrefix)))
			}
			return nil, goerr.Wrap(err, "failed to iterate vector search results", goerr.V(model.NamespaceKey, namespace))
		}

		var d vectorDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal document", goerr.V("id", snap.Ref.ID))
		}

		var distance float64
		if v, ok := snap.Data()[distanceField].(float64); ok {
			distance = v
		}

		results = append(results, &model.QueryResult{
			ID:         d.ID,
			Distance:   distance,
			Attributes: model.Attributes(d.Attributes).Project(query.IncludeAttributes),
		})
	}

	return results, nil
}

func (f *Firestore) DeleteNamespace(ctx context.Context, namespace string) error {
	col := f.documents(namespace)
	for {
		refs, err := col.Limit(deletePageSize).Documents(ctx).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to list documents", goerr.V(model.NamespaceKey, namespace))
		}
		if len(refs) == 0 {
			return nil
		}

		bw := f.client.BulkWriter(ctx)
		jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
		for _, snap := range refs {
			job, err := bw.Delete(snap.Ref)
			if err != nil {
				bw.End()
				return goerr.Wrap(err, "failed to enqueue delete", goerr.V("id", snap.Ref.ID))
			}
			jobs = append(jobs, job)
		}
		bw.End()

		for _, job := range jobs {
			if _, err := job.Results(); err != nil {
				return goerr.Wrap(err, "failed to delete document", goerr.V(model.NamespaceKey, namespace))
			}
		}
	}
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
