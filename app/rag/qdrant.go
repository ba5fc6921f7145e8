package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const (
	defaultContentKey = "content"
	docIDKey          = "doc_id"
)

type QdrantConfig struct {
	Host           string  `yaml:"host"`
	Port           int     `yaml:"port" validate:"gte=0,lte=65535"`
	APIKey         string  `yaml:"api_key,omitempty"`
	UseTLS         bool    `yaml:"use_tls"`
	ContentKey     string  `yaml:"content_key,omitempty"`
	ScoreThreshold float32 `yaml:"score_threshold,omitempty"`
}

var _ Store = &QdrantStore{}

// QdrantStore keeps each character partition in its own collection.
type QdrantStore struct {
	client         *qdrant.Client
	contentKey     string
	scoreThreshold float32
}

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.ContentKey == "" {
		cfg.ContentKey = defaultContentKey
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &QdrantStore{
		client:         client,
		contentKey:     cfg.ContentKey,
		scoreThreshold: cfg.ScoreThreshold,
	}, nil
}

func (s *QdrantStore) HasPartition(ctx context.Context, partition string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, partition)
	if err != nil {
		return false, fmt.Errorf("collection exists %s: %w", partition, err)
	}
	return exists, nil
}

func (s *QdrantStore) CreatePartition(ctx context.Context, partition string, dimension int) error {
	exists, err := s.HasPartition(ctx, partition)
	if err != nil || exists {
		return err
	}
	if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: partition,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection %s: %w", partition, err)
	}
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (s *QdrantStore) Upsert(ctx context.Context, partition string, docs []Document) error {
	pts := make([]*qdrant.PointStruct, len(docs))

	for i, d := range docs {
		payload := map[string]any{
			s.contentKey: d.Content,
			docIDKey:     d.ID,
		}
		for k, v := range d.Metadata {
			payload[k] = v
		}

		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(d.ID)),
			Vectors: qdrant.NewVectors(d.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: partition,
		Wait:           &wait,
		Points:         pts,
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", partition, err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, partition string, vector []float32, k int) ([]Document, error) {
	limit := uint64(k)
	req := &qdrant.QueryPoints{
		CollectionName: partition,
		Limit:          &limit,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if s.scoreThreshold > 0 {
		threshold := s.scoreThreshold
		req.ScoreThreshold = &threshold
	}

	resp, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", partition, err)
	}

	out := make([]Document, 0, len(resp))
	for _, r := range resp {
		out = append(out, s.toDocument(r))
	}
	return out, nil
}

func (s *QdrantStore) toDocument(r *qdrant.ScoredPoint) Document {
	md := make(map[string]any, len(r.Payload))
	for key, v := range r.Payload {
		md[key] = convertQdrantValue(v)
	}

	doc := Document{Score: r.Score, Metadata: md}
	if val, ok := md[s.contentKey]; ok && val != nil {
		doc.Content = fmt.Sprintf("%v", val)
		delete(md, s.contentKey)
	}
	if val, ok := md[docIDKey].(string); ok {
		doc.ID = val
		delete(md, docIDKey)
	} else if r.Id != nil {
		switch x := r.Id.PointIdOptions.(type) {
		case *qdrant.PointId_Uuid:
			doc.ID = x.Uuid
		case *qdrant.PointId_Num:
			doc.ID = fmt.Sprintf("%d", x.Num)
		}
	}
	return doc
}

// pointID maps arbitrary document IDs onto the UUIDs Qdrant accepts.
func pointID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func convertQdrantValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))
		for i, lv := range val.ListValue.Values {
			out[i] = convertQdrantValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any)
		for k, nv := range val.StructValue.Fields {
			out[k] = convertQdrantValue(nv)
		}
		return out
	}
	return nil
}
