package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/response"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

const (
	defaultIndexPrefix    = "chatbuddy"
	defaultCandidateLimit = 50
	responsesIndexSuffix  = "-responses"
)

// responseDoc is the indexed projection of a refined response.  Only the
// fields the keyword pre-filter needs are stored; the row of record stays in
// Postgres.
type responseDoc struct {
	OwnerID     string   `json:"owner_id"`
	MessageType string   `json:"message_type,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Message     string   `json:"message"`
	CreatedAt   string   `json:"created_at"`
}

// Searcher implements the refined-response candidate pre-filter on
// OpenSearch.
type Searcher struct {
	client *Client
	index  string
	limit  int
	logger logging.Logger
}

// NewSearcher builds a Searcher on an established client.
func NewSearcher(client *Client, cfg config.OpenSearchConfig, logger logging.Logger) *Searcher {
	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = defaultIndexPrefix
	}
	limit := cfg.CandidateLimit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Searcher{
		client: client,
		index:  prefix + responsesIndexSuffix,
		limit:  limit,
		logger: logger.Named("response_searcher"),
	}
}

// Index upserts one refined response document keyed by its ID.
func (s *Searcher) Index(ctx context.Context, r *response.RefinedResponse) error {
	doc := responseDoc{
		OwnerID:     string(r.OwnerID),
		MessageType: r.MessageType,
		Keywords:    r.SimilarityKeywords,
		Message:     r.OriginalClientMessage,
		CreatedAt:   r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "encode response document")
	}

	req := opensearchapi.IndexRequest{
		Index:      s.index,
		DocumentID: string(r.ID),
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "index response document")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return s.errorFromResponse(resp.Body, resp.StatusCode, "index response document")
	}
	return nil
}

// SearchIDs returns candidate response IDs for an owner, ranked by keyword
// relevance.  Keywords match as a should-clause so partial overlap still
// surfaces candidates; the owner filter is mandatory.
func (s *Searcher) SearchIDs(ctx context.Context, owner common.OwnerID, keywords []string, limit int) ([]common.ID, error) {
	if owner == "" {
		return nil, errors.InvalidParam("search requires an owner")
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	should := make([]map[string]interface{}, 0, len(keywords))
	for _, kw := range keywords {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{"keywords": kw},
		})
	}
	boolQuery := map[string]interface{}{
		"filter": []map[string]interface{}{
			{"term": map[string]interface{}{"owner_id": string(owner)}},
		},
	}
	if len(should) > 0 {
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}
	dsl := map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query":   map[string]interface{}{"bool": boolQuery},
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "encode search query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client.Raw())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "search response candidates")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, s.errorFromResponse(resp.Body, resp.StatusCode, "search response candidates")
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "decode search response")
	}

	ids := make([]common.ID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, common.ID(hit.ID))
	}
	s.logger.Debug("searched response candidates",
		logging.String("owner_id", string(owner)),
		logging.Int("keywords", len(keywords)),
		logging.Int("hits", len(ids)),
	)
	return ids, nil
}

func (s *Searcher) errorFromResponse(body io.Reader, status int, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 2048))
	return errors.New(errors.CodeServiceUnavailable, op).
		WithDetail(fmt.Sprintf("status %d: %s", status, raw))
}
