package chi

import (
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeRateLimited      = "rate_limited"
	codeNotFound         = "not_found"
	codeProviderError    = "provider_error"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// searchRequest is the JSON body of the POST search endpoints.
type searchRequest struct {
	Query     string `json:"query"`
	Mode      string `json:"mode,omitempty"`
	K         int    `json:"k,omitempty"`
	Fuzziness *int   `json:"fuzziness,omitempty"`
	From      string `json:"from,omitempty"` // YYYY-MM-DD
	To        string `json:"to,omitempty"`
	Expand    bool   `json:"expand,omitempty"`
	Rerank    bool   `json:"rerank,omitempty"`
}

type answerRequest struct {
	Question string `json:"question"`
}

type annotation struct {
	Text  string `json:"text"`
	Label string `json:"label,omitempty"`
}

type searchResultItem struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Summary         string       `json:"summary,omitempty"`
	Content         string       `json:"content,omitempty"`
	URL             string       `json:"url,omitempty"`
	PublishedAt     string       `json:"published_at,omitempty"`
	Entities        []annotation `json:"entities,omitempty"`
	Topics          []annotation `json:"topics,omitempty"`
	Score           *float64     `json:"score,omitempty"`
	NormalizedScore *float64     `json:"normalized_score,omitempty"`
	RelevanceScore  *float64     `json:"relevance_score,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
	Mode  string             `json:"mode,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func annotationsToDTO(in []document.Annotation) []annotation {
	if len(in) == 0 {
		return nil
	}
	out := make([]annotation, len(in))
	for i, a := range in {
		out[i] = annotation{Text: a.Text, Label: a.Label}
	}
	return out
}

func candidateToDTO(c *result.Candidate, withContent bool) searchResultItem {
	d := c.Document()
	item := searchResultItem{
		ID:          d.ID,
		Title:       d.Title,
		Summary:     d.Summary,
		URL:         d.URL,
		PublishedAt: d.PublishedDate(),
		Entities:    annotationsToDTO(d.Entities),
		Topics:      annotationsToDTO(d.Topics),
	}
	if withContent {
		item.Content = d.Content
	}
	if v, ok := c.Score(); ok {
		item.Score = &v
	}
	if v, ok := c.NormalizedScore(); ok {
		item.NormalizedScore = &v
	}
	if v, ok := c.RelevanceScore(); ok {
		item.RelevanceScore = &v
	}
	return item
}

func candidatesToResponse(cands []result.Candidate, mode string, withContent bool) searchResponse {
	items := make([]searchResultItem, len(cands))
	for i := range cands {
		items[i] = candidateToDTO(&cands[i], withContent)
	}
	return searchResponse{Items: items, Total: len(items), Mode: mode}
}
