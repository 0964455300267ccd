package domain

import (
	"strings"
	"time"
	"unicode"
)

// KnowledgeType distinguishes short labels from embedded text chunks
type KnowledgeType string

const (
	KnowledgeTypeLabel KnowledgeType = "label"
	KnowledgeTypeChunk KnowledgeType = "chunk"
)

// MinSearchQueryLength is the shortest query accepted by knowledge search
const MinSearchQueryLength = 3

// Knowledge is a label or text chunk used for search
type Knowledge struct {
	ID            string        `json:"_id" yaml:"_id"`
	KnowledgeType KnowledgeType `json:"knowledgeType" yaml:"knowledgeType"`
	Text          string        `json:"text" yaml:"text"`
	Labels        []string      `json:"labels,omitempty" yaml:"labels,omitempty"`
	GroupID       string        `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	SourceThingID string        `json:"sourceThingId,omitempty" yaml:"sourceThingId,omitempty"`
	CreatedAt     int64         `json:"createdAt" yaml:"createdAt,omitempty"`
}

// NewKnowledge holds the fields accepted when storing knowledge
type NewKnowledge struct {
	ID            string        `json:"_id,omitempty"`
	KnowledgeType KnowledgeType `json:"knowledgeType"`
	Text          string        `json:"text"`
	Labels        []string      `json:"labels,omitempty"`
	GroupID       string        `json:"groupId,omitempty"`
	SourceThingID string        `json:"sourceThingId,omitempty"`
}

// Build turns the request into a record stamped at now
func (n NewKnowledge) Build(now time.Time) Knowledge {
	kt := n.KnowledgeType
	if kt == "" {
		kt = KnowledgeTypeChunk
	}
	return Knowledge{
		ID:            n.ID,
		KnowledgeType: kt,
		Text:          n.Text,
		Labels:        n.Labels,
		GroupID:       n.GroupID,
		SourceThingID: n.SourceThingID,
		CreatedAt:     now.UnixMilli(),
	}
}

// KnowledgeMatch is a search hit with its relevance score in [0, 1]
type KnowledgeMatch struct {
	Knowledge
	Score float64 `json:"score"`
}

// Score rates how well the knowledge item matches the query.
// A verbatim phrase match scores 1; otherwise the score is the share of
// distinct query terms found in the text or labels.
func (k *Knowledge) Score(query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	haystack := strings.ToLower(k.Text + " " + strings.Join(k.Labels, " "))
	if strings.Contains(haystack, q) {
		return 1
	}

	terms := searchTerms(q)
	if len(terms) == 0 {
		return 0
	}
	found := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

func searchTerms(q string) []string {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
