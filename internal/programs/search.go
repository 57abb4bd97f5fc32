package programs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"funding-match-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ErrSearchTimeout is returned when the search context expires before Elasticsearch answers.
var ErrSearchTimeout = errors.New("program search timed out")

// Searcher pre-selects candidate programs for a profile. Candidates are still scored by the
// qualification rules; search relevance never affects the score.
type Searcher interface {
	Candidates(ctx context.Context, profile *models.BusinessProfile, limit int) ([]models.Program, error)
}

// ESSearcher queries the funding program index.
type ESSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewESSearcher(client *elasticsearch.Client, index string) *ESSearcher {
	return &ESSearcher{client: client, index: index}
}

func (s *ESSearcher) Index() string {
	return s.index
}

type programDocument struct {
	Name          string            `json:"name"`
	Provider      string            `json:"provider"`
	Sectors       models.SectorList `json:"sectors"`
	Summary       string            `json:"summary"`
	Eligibility   string            `json:"eligibility"`
	FundingAmount string            `json:"funding_amount"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source programDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BuildCandidateQuery matches active programs whose text mentions any profile sector or the
// industry. A profile with neither matches every active program.
func BuildCandidateQuery(profile *models.BusinessProfile, limit int) map[string]interface{} {
	var terms []string
	if profile != nil {
		for _, sector := range profile.Sectors {
			if s := strings.TrimSpace(sector); s != "" {
				terms = append(terms, s)
			}
		}
		if industry := strings.TrimSpace(profile.Industry); industry != "" {
			terms = append(terms, industry)
		}
	}

	boolQuery := map[string]interface{}{
		"filter": []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"active": true}},
		},
	}

	if len(terms) > 0 {
		should := make([]interface{}, 0, len(terms))
		for _, term := range terms {
			should = append(should, map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  term,
					"fields": []string{"sectors^3", "eligibility^2", "summary", "name"},
				},
			})
		}
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}

	return map[string]interface{}{
		"size":  limit,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{"_score", map[string]interface{}{"_id": "asc"}},
	}
}

func (s *ESSearcher) Candidates(ctx context.Context, profile *models.BusinessProfile, limit int) ([]models.Program, error) {
	body, err := json.Marshal(BuildCandidateQuery(profile, limit))
	if err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	programs := make([]models.Program, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		programs = append(programs, models.Program{
			ID:            hit.ID,
			Name:          doc.Name,
			Provider:      doc.Provider,
			Sectors:       doc.Sectors,
			Summary:       doc.Summary,
			Eligibility:   doc.Eligibility,
			FundingAmount: doc.FundingAmount,
		})
	}
	return programs, nil
}
