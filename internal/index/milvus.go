package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	defaultCollection = "kb_chunks"
	defaultDimension  = 3072

	partitionPrefix = "tenant_"

	fieldID         = "id"
	fieldVector     = "vector"
	fieldTenantCode = "tenant_code"
	fieldUserCode   = "user_code"
	fieldSourceType = "source_type"
	fieldSourceID   = "source_id"
	fieldChunkIndex = "chunk_index"
	fieldText       = "text"

	hnswM              = 16
	hnswEfConstruction = 200
	hnswEfSearch       = 128
)

var outputFields = []string{
	fieldTenantCode, fieldUserCode, fieldSourceType,
	fieldSourceID, fieldChunkIndex, fieldText,
}

// MilvusConfig holds the connection and collection settings.
type MilvusConfig struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Dimension  int
}

// Milvus implements Index on a Milvus collection with one partition per
// tenant. Cosine similarity orders matches, so scores land in [0, 1] for
// normalized embeddings.
type Milvus struct {
	client     client.Client
	collection string
	dim        int
}

// NewMilvus connects, creates the collection and HNSW index on first use,
// and loads the collection for searching.
func NewMilvus(ctx context.Context, cfg MilvusConfig) (*Milvus, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to milvus at %s: %w", cfg.Address, err)
	}

	m := &Milvus{client: c, collection: cfg.Collection, dim: cfg.Dimension}
	if m.collection == "" {
		m.collection = defaultCollection
	}
	if m.dim <= 0 {
		m.dim = defaultDimension
	}

	if err := m.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return m, nil
}

func (m *Milvus) Close() error {
	return m.client.Close()
}

func (m *Milvus) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", ErrIndexService, err)
	}
	if !has {
		if err := m.client.CreateCollection(ctx, m.schema(), entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("%w: creating collection: %v", ErrIndexService, err)
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, hnswM, hnswEfConstruction)
		if err != nil {
			return fmt.Errorf("%w: building index definition: %v", ErrIndexService, err)
		}
		if err := m.client.CreateIndex(ctx, m.collection, fieldVector, idx, false); err != nil {
			return fmt.Errorf("%w: creating vector index: %v", ErrIndexService, err)
		}
	}
	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("%w: loading collection: %v", ErrIndexService, err)
	}
	return nil
}

func (m *Milvus) schema() *entity.Schema {
	return entity.NewSchema().
		WithName(m.collection).
		WithDescription("tenant-partitioned knowledge base chunks").
		WithField(entity.NewField().WithName(fieldID).
			WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(fieldVector).
			WithDataType(entity.FieldTypeFloatVector).WithDim(int64(m.dim))).
		WithField(entity.NewField().WithName(fieldTenantCode).
			WithDataType(entity.FieldTypeVarChar).WithMaxLength(128)).
		WithField(entity.NewField().WithName(fieldUserCode).
			WithDataType(entity.FieldTypeVarChar).WithMaxLength(128)).
		WithField(entity.NewField().WithName(fieldSourceType).
			WithDataType(entity.FieldTypeVarChar).WithMaxLength(16)).
		WithField(entity.NewField().WithName(fieldSourceID).
			WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024)).
		WithField(entity.NewField().WithName(fieldChunkIndex).
			WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(fieldText).
			WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535))
}

// PartitionName maps a tenant code to its Milvus partition. Milvus only
// allows word characters in partition names, so anything else becomes an
// underscore.
func PartitionName(tenantCode string) string {
	var sb strings.Builder
	sb.WriteString(partitionPrefix)
	for _, r := range tenantCode {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Upsert writes entries into the tenant's partition, creating the
// partition on first write. Deterministic ids make the write idempotent.
func (m *Milvus) Upsert(ctx context.Context, namespace string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	partition := PartitionName(namespace)
	has, err := m.client.HasPartition(ctx, m.collection, partition)
	if err != nil {
		return fmt.Errorf("%w: checking partition %s: %v", ErrIndexService, partition, err)
	}
	if !has {
		if err := m.client.CreatePartition(ctx, m.collection, partition); err != nil {
			return fmt.Errorf("%w: creating partition %s: %v", ErrIndexService, partition, err)
		}
	}

	n := len(entries)
	ids := make([]string, n)
	vectors := make([][]float32, n)
	tenants := make([]string, n)
	users := make([]string, n)
	sourceTypes := make([]string, n)
	sourceIDs := make([]string, n)
	chunkIndexes := make([]int64, n)
	texts := make([]string, n)
	for i, e := range entries {
		ids[i] = e.ID
		vectors[i] = e.Vector
		tenants[i] = e.TenantCode
		users[i] = e.UserCode
		sourceTypes[i] = e.SourceType
		sourceIDs[i] = e.SourceID
		chunkIndexes[i] = int64(e.ChunkIndex)
		texts[i] = e.Text
	}

	_, err = m.client.Upsert(ctx, m.collection, partition,
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldVector, m.dim, vectors),
		entity.NewColumnVarChar(fieldTenantCode, tenants),
		entity.NewColumnVarChar(fieldUserCode, users),
		entity.NewColumnVarChar(fieldSourceType, sourceTypes),
		entity.NewColumnVarChar(fieldSourceID, sourceIDs),
		entity.NewColumnInt64(fieldChunkIndex, chunkIndexes),
		entity.NewColumnVarChar(fieldText, texts),
	)
	if err != nil {
		return fmt.Errorf("%w: upserting %d entries: %v", ErrIndexService, n, err)
	}
	return nil
}

// Query searches the tenant's partition. A tenant that has never written
// anything has no partition yet; that is an empty result, not an error.
func (m *Milvus) Query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Match, error) {
	if filter.TenantCode == "" {
		return nil, fmt.Errorf("%w: tenant code filter is required", ErrIndexService)
	}

	partition := PartitionName(namespace)
	has, err := m.client.HasPartition(ctx, m.collection, partition)
	if err != nil {
		return nil, fmt.Errorf("%w: checking partition %s: %v", ErrIndexService, partition, err)
	}
	if !has {
		return nil, nil
	}

	sp, err := entity.NewIndexHNSWSearchParam(hnswEfSearch)
	if err != nil {
		return nil, fmt.Errorf("%w: building search params: %v", ErrIndexService, err)
	}

	results, err := m.client.Search(ctx, m.collection, []string{partition},
		filterExpr(filter), outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		fieldVector, entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: searching partition %s: %v", ErrIndexService, partition, err)
	}

	var matches []Match
	for _, result := range results {
		parsed, err := parseResult(result)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexService, err)
		}
		matches = append(matches, parsed...)
	}
	return matches, nil
}

// filterExpr builds the boolean expression for Search. All predicates are
// exact matches joined by conjunction; the tenant predicate is always
// present.
func filterExpr(f Filter) string {
	parts := []string{fmt.Sprintf("%s == %q", fieldTenantCode, f.TenantCode)}
	if f.UserCode != "" {
		parts = append(parts, fmt.Sprintf("%s == %q", fieldUserCode, f.UserCode))
	}
	if f.SourceType != "" {
		parts = append(parts, fmt.Sprintf("%s == %q", fieldSourceType, f.SourceType))
	}
	return strings.Join(parts, " && ")
}

func parseResult(result client.SearchResult) ([]Match, error) {
	tenants, err := varcharColumn(result, fieldTenantCode)
	if err != nil {
		return nil, err
	}
	users, err := varcharColumn(result, fieldUserCode)
	if err != nil {
		return nil, err
	}
	sourceTypes, err := varcharColumn(result, fieldSourceType)
	if err != nil {
		return nil, err
	}
	sourceIDs, err := varcharColumn(result, fieldSourceID)
	if err != nil {
		return nil, err
	}
	texts, err := varcharColumn(result, fieldText)
	if err != nil {
		return nil, err
	}
	chunkCol, ok := result.Fields.GetColumn(fieldChunkIndex).(*entity.ColumnInt64)
	if !ok {
		return nil, fmt.Errorf("result field %s has unexpected type", fieldChunkIndex)
	}
	chunkIndexes := chunkCol.Data()

	matches := make([]Match, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		matches = append(matches, Match{
			Score:      result.Scores[i],
			TenantCode: tenants[i],
			UserCode:   users[i],
			SourceType: sourceTypes[i],
			SourceID:   sourceIDs[i],
			ChunkIndex: int(chunkIndexes[i]),
			Text:       texts[i],
		})
	}
	return matches, nil
}

func varcharColumn(result client.SearchResult, name string) ([]string, error) {
	col, ok := result.Fields.GetColumn(name).(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("result field %s has unexpected type", name)
	}
	return col.Data(), nil
}
