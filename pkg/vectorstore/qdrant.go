package vectorstore

import (
	"context"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rayied/cora/pkg/apperrors"
	"github.com/rayied/cora/pkg/models"
)

// Qdrant is the concrete Store adapter over github.com/qdrant/go-client,
// dialed the way the teacher's connectToQdrant did, generalized from a
// single hardcoded collection to a configurable one plus metadata
// filtering on search.
type Qdrant struct {
	conn            *grpc.ClientConn
	collections     qdrantclient.CollectionsClient
	points          qdrantclient.PointsClient
	collectionName  string
	embedder        Embedder
	vectorSize      uint64
	upsertBatchSize int
}

// NewQdrant dials addr ("host:port") and returns a Store backed by the
// named collection. embedder supplies the vector dimension (by embedding
// a probe string) when the collection does not yet exist.
func NewQdrant(ctx context.Context, addr, collectionName string, embedder Embedder, batchSize int) (*Qdrant, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, apperrors.Storage("dial qdrant", err)
	}

	if batchSize <= 0 {
		batchSize = 64
	}

	q := &Qdrant{
		conn:            conn,
		collections:     qdrantclient.NewCollectionsClient(conn),
		points:          qdrantclient.NewPointsClient(conn),
		collectionName:  collectionName,
		embedder:        embedder,
		upsertBatchSize: batchSize,
	}

	if err := q.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func (q *Qdrant) ensureCollection(ctx context.Context) error {
	list, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return apperrors.Storage("list collections", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collectionName {
			return nil
		}
	}

	size, err := q.probeVectorSize(ctx)
	if err != nil {
		return err
	}
	q.vectorSize = size

	_, err = q.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     size,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return apperrors.Storage("create collection", err)
	}
	return nil
}

func (q *Qdrant) probeVectorSize(ctx context.Context) (uint64, error) {
	vec, err := q.embedder.EmbedText(ctx, "dimension probe")
	if err != nil {
		return 0, apperrors.Storage("probe embedding dimension", err)
	}
	return uint64(len(vec)), nil
}

// pointID derives a deterministic Qdrant-compatible UUID from a
// record_id so repeated Upsert calls with the same record_id overwrite
// rather than duplicate the point (spec §4.1's idempotence requirement).
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.Nil, []byte(recordID)).String()
}

func metadataPayload(recordID string, m models.Metadata) map[string]*qdrantclient.Value {
	payload := map[string]*qdrantclient.Value{
		"record_id": strValue(recordID),
		"type":      strValue(m.Type),
		"language":  strValue(m.Language),
	}
	if m.ArticleID != "" {
		payload["article_id"] = strValue(m.ArticleID)
	}
	if m.AppName != "" {
		payload["app_name"] = strValue(m.AppName)
	}
	if m.Title != "" {
		payload["title"] = strValue(m.Title)
	}
	if m.SourcePath != "" {
		payload["source_path"] = strValue(m.SourcePath)
	}
	payload["chunk_ordinal"] = &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(m.ChunkOrdinal)}}
	return payload
}

func strValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

// Upsert writes records in batches of upsertBatchSize, mirroring the
// teacher's indexContentFiles batching loop.
func (q *Qdrant) Upsert(ctx context.Context, records []models.IndexedRecord) error {
	batch := make([]*qdrantclient.PointStruct, 0, q.upsertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := q.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: q.collectionName,
			Points:         batch,
		})
		if err != nil {
			return apperrors.Storage("upsert points", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, rec := range records {
		text := rec.Text
		payload := metadataPayload(rec.RecordID, rec.Metadata)
		payload["text"] = strValue(text)

		batch = append(batch, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: pointID(rec.RecordID)},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: rec.Embedding},
				},
			},
			Payload: payload,
		})
		if len(batch) >= q.upsertBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func buildFilter(f Filter) *qdrantclient.Filter {
	if f.empty() {
		return nil
	}
	var must []*qdrantclient.Condition
	add := func(key, value string) {
		if value == "" {
			return
		}
		must = append(must, &qdrantclient.Condition{
			ConditionOneOf: &qdrantclient.Condition_Field{
				Field: &qdrantclient.FieldCondition{
					Key:   key,
					Match: &qdrantclient.Match{MatchValue: &qdrantclient.Match_Keyword{Keyword: value}},
				},
			},
		})
	}
	add("language", f.Language)
	add("app_name", f.AppName)
	add("type", f.Type)
	return &qdrantclient.Filter{Must: must}
}

// Query performs a similarity search limited to the nearest limit points,
// restricted by filter.
func (q *Qdrant) Query(ctx context.Context, vector []float32, limit int, filter Filter) ([]models.Hit, error) {
	resp, err := q.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: q.collectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter:         buildFilter(filter),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, apperrors.Storage("search points", err)
	}

	hits := make([]models.Hit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		payload := p.GetPayload()
		// Qdrant reports cosine similarity as Score; spec §4.3's distance
		// formula expects a cosine distance, so convert before deriving
		// the final similarity figure.
		distance := 1 - p.GetScore()
		hits = append(hits, models.Hit{
			RecordID: payloadString(payload, "record_id"),
			Text:     payloadString(payload, "text"),
			Metadata: models.Metadata{
				Type:         payloadString(payload, "type"),
				ArticleID:    payloadString(payload, "article_id"),
				AppName:      payloadString(payload, "app_name"),
				Language:     payloadString(payload, "language"),
				Title:        payloadString(payload, "title"),
				SourcePath:   payloadString(payload, "source_path"),
				ChunkOrdinal: int(payloadInt(payload, "chunk_ordinal")),
			},
			Distance:   distance,
			Similarity: 1 / (1 + distance),
		})
	}
	return hits, nil
}

func payloadString(payload map[string]*qdrantclient.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func payloadInt(payload map[string]*qdrantclient.Value, key string) int64 {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	return v.GetIntegerValue()
}

// Count reports the number of points stored in the collection.
func (q *Qdrant) Count(ctx context.Context) (uint64, error) {
	resp, err := q.points.Count(ctx, &qdrantclient.CountPoints{CollectionName: q.collectionName})
	if err != nil {
		return 0, apperrors.Storage("count points", err)
	}
	return resp.GetResult().GetCount(), nil
}

// Reset deletes and recreates the collection, discarding all data.
func (q *Qdrant) Reset(ctx context.Context) error {
	_, err := q.collections.Delete(ctx, &qdrantclient.DeleteCollection{CollectionName: q.collectionName})
	if err != nil {
		return apperrors.Storage("delete collection", err)
	}
	return q.ensureCollection(ctx)
}

// Close tears down the gRPC connection.
func (q *Qdrant) Close() error {
	return q.conn.Close()
}
