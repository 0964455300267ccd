package handler

import (
	"cmp"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"ontology/internal/domain"
	"ontology/internal/envelope"
	"ontology/internal/query"
)

var knowledgeAllow = query.Allowlist{
	Filters:    []string{"knowledgeType", "groupId", "threshold"},
	SortFields: []string{"score", "createdAt"},
}

// SearchKnowledge scores knowledge against the q parameter. Queries
// shorter than domain.MinSearchQueryLength are rejected before the
// provider is called.
func (h *Handler) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := strings.TrimSpace(values.Get("q"))
	if utf8.RuneCountInString(q) < domain.MinSearchQueryLength {
		h.writeFailure(w, envelope.NewError(envelope.CodeValidation,
			fmt.Sprintf("q must be at least %d characters", domain.MinSearchQueryLength)))
		return
	}

	p := query.Parse(values, knowledgeAllow)
	matches, err := h.provider.Knowledge().Search(r.Context(), domain.KnowledgeQuery{
		Query:         q,
		KnowledgeType: p.Get("knowledgeType"),
		GroupID:       p.Get("groupId"),
		Threshold:     p.Float("threshold", 0),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, query.Paginate(matches, p, compareMatches), cacheKnowledge)
}

func compareMatches(a, b domain.KnowledgeMatch, field string) int {
	if field == "createdAt" {
		return cmp.Compare(a.CreatedAt, b.CreatedAt)
	}
	return cmp.Or(cmp.Compare(a.Score, b.Score), cmp.Compare(b.ID, a.ID))
}
