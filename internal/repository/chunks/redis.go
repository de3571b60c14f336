package chunks

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/docq-dev/docq/internal/domain/chunk"
)

// Compile-time check: RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// Redis key layout and index name.
const (
	indexName   = "docq-chunks"
	chunkPrefix = "docq:chunk:"
	titlePrefix = "docq:title:"

	// clearPageSize bounds one FT.SEARCH page while collecting a
	// document's chunk keys for deletion.
	clearPageSize = 1000
)

// RedisConfig holds connection parameters for a Redis chunk store.
type RedisConfig struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	VectorDim int
}

// RedisStore persists chunks as hashes and searches them with a
// RediSearch FLAT vector index (Redis 8+).
type RedisStore struct {
	client    rueidis.Client
	vectorDim int
}

// NewRedisStore connects to Redis and ensures the chunk index exists.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("vector dim must be positive")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	s := &RedisStore{client: client, vectorDim: cfg.VectorDim}
	if err := s.ensureIndex(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

// ensureIndex creates the chunk index, tolerating a pre-existing one.
func (s *RedisStore) ensureIndex(ctx context.Context) error {
	cmd := s.client.B().Arbitrary("FT.CREATE").Args(
		indexName, "ON", "HASH",
		"PREFIX", "1", chunkPrefix,
		"SCHEMA",
		"tenant_id", "TAG",
		"document_id", "TAG",
		"chunk_index", "NUMERIC",
		"content", "TEXT",
		"vector", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.vectorDim),
		"DISTANCE_METRIC", "COSINE",
	).Build()

	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// SimilaritySearch runs a tenant-filtered KNN query and returns chunks
// with cosine similarity strictly above matchThreshold, best first.
func (s *RedisStore) SimilaritySearch(
	ctx context.Context, tenantID string,
	vector []float32, matchCount int, matchThreshold float64,
) ([]chunk.Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if matchCount <= 0 {
		return nil, fmt.Errorf("match count must be positive")
	}

	query := fmt.Sprintf("(@tenant_id:{%s})=>[KNN %d @vector $BLOB]",
		tagEscaper.Replace(tenantID), matchCount)

	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(
		indexName, query,
		"RETURN", "4", "document_id", "chunk_index", "content", "__vector_score",
		"LIMIT", "0", strconv.Itoa(matchCount),
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	).Build()

	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	hits, err := parseKNNHits(raw, matchThreshold)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity() > hits[j].Similarity()
	})
	if len(hits) > matchCount {
		hits = hits[:matchCount]
	}
	return hits, nil
}

// WriteChunks stores the chunks as hashes in one DoMulti round-trip.
// Chunks without an embedding get no vector field and stay invisible to
// KNN queries while remaining deletable by document ID.
func (s *RedisStore) WriteChunks(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		cmd := s.client.B().Hset().Key(chunkKey(c.DocumentID(), c.Index())).FieldValue().
			FieldValue("tenant_id", c.TenantID()).
			FieldValue("document_id", c.DocumentID()).
			FieldValue("chunk_index", strconv.Itoa(c.Index())).
			FieldValue("content", c.Content())
		if c.HasEmbedding() {
			cmd = cmd.FieldValue("vector", vectorToBytes(c.Embedding()))
		}
		cmds[i] = cmd.Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("write chunk %s: %w",
				chunkKey(chunks[i].DocumentID(), chunks[i].Index()), err)
		}
	}
	return nil
}

// ClearChunks deletes every chunk hash of the document.
func (s *RedisStore) ClearChunks(ctx context.Context, tenantID, documentID string) error {
	query := fmt.Sprintf("@tenant_id:{%s} @document_id:{%s}",
		tagEscaper.Replace(tenantID), tagEscaper.Replace(documentID))

	for {
		cmd := s.client.B().Arbitrary("FT.SEARCH").Args(
			indexName, query,
			"NOCONTENT",
			"LIMIT", "0", strconv.Itoa(clearPageSize),
			"DIALECT", "2",
		).Build()

		raw, err := s.client.Do(ctx, cmd).ToArray()
		if err != nil {
			return fmt.Errorf("find chunks: %w", err)
		}

		keys := parseKeysOnly(raw)
		if len(keys) == 0 {
			return nil
		}

		del := s.client.B().Del().Key(keys...).Build()
		if err := s.client.Do(ctx, del).Error(); err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		if len(keys) < clearPageSize {
			return nil
		}
	}
}

// DocumentTitles resolves titles with one MGET. Unknown IDs are absent
// from the result.
func (s *RedisStore) DocumentTitles(ctx context.Context, documentIDs []string) (map[string]string, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(documentIDs))
	for i, id := range documentIDs {
		keys[i] = titlePrefix + id
	}

	cmd := s.client.B().Mget().Key(keys...).Build()
	values, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("mget titles: %w", err)
	}

	out := make(map[string]string, len(documentIDs))
	for i, v := range values {
		if i >= len(documentIDs) {
			break
		}
		title, err := v.ToString()
		if err != nil {
			continue // nil reply for a missing key
		}
		out[documentIDs[i]] = title
	}
	return out, nil
}

// SetDocumentTitle stores the document's title.
func (s *RedisStore) SetDocumentTitle(ctx context.Context, documentID, title string) error {
	cmd := s.client.B().Set().Key(titlePrefix + documentID).Value(title).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

// DeleteDocumentTitle removes the document's title.
func (s *RedisStore) DeleteDocumentTitle(ctx context.Context, documentID string) error {
	cmd := s.client.B().Del().Key(titlePrefix + documentID).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("delete title: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *RedisStore) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or the timeout expires.
func (s *RedisStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for redis: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// --- Result parsing ---

// parseKNNHits converts a RESP2 FT.SEARCH reply into hits, applying the
// strict similarity threshold. Reply layout is 2-stride:
// [total, key1, fields1, key2, fields2, ...].
func parseKNNHits(raw []rueidis.RedisMessage, matchThreshold float64) ([]chunk.Hit, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	hits := make([]chunk.Hit, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		fieldArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldArr)

		distance, err := strconv.ParseFloat(fields["__vector_score"], 64)
		if err != nil {
			continue
		}
		similarity := max(0, 1.0-distance) // cosine distance, clamped to [0,1]
		if similarity <= matchThreshold {
			continue
		}

		index, err := strconv.Atoi(fields["chunk_index"])
		if err != nil {
			continue
		}

		hits = append(hits, chunk.NewHit(fields["document_id"], fields["content"], index, similarity))
	}
	return hits, nil
}

// parseKeysOnly reads a NOCONTENT FT.SEARCH reply: [total, key1, key2, ...].
func parseKeysOnly(raw []rueidis.RedisMessage) []string {
	if len(raw) < 2 {
		return nil
	}
	keys := make([]string, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		key, err := msg.ToString()
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Helpers ---

func chunkKey(documentID string, index int) string {
	return chunkPrefix + documentID + ":" + strconv.Itoa(index)
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// isRedisErr checks whether err is a Redis server error containing substr.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
