package assistant

import (
	"sort"
	"strings"
	"unicode"

	"casper-learning/internal/domain"
)

// Passage is one retrievable piece of learning content.
type Passage struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
}

type document struct {
	Passage
	terms map[string]struct{}
}

// Index is a keyword index over the catalog: one document per module, per
// quiz and per question (with its correct option and explanation).
type Index struct {
	docs []document
}

func NewIndex(modules []domain.Module) *Index {
	idx := &Index{}
	for _, m := range modules {
		idx.add(m.Title, "/modules/"+m.ID, m.Title+". "+m.Description)
		for _, q := range m.Quizzes {
			url := "/quiz/" + m.ID + "/" + q.ID
			idx.add(m.Title+" / "+q.Title, url, q.Title+". "+q.Description)
			for _, question := range q.Questions {
				var b strings.Builder
				b.WriteString(question.Prompt)
				if question.CorrectAnswer >= 0 && question.CorrectAnswer < len(question.Options) {
					b.WriteString(" Answer: ")
					b.WriteString(question.Options[question.CorrectAnswer])
					b.WriteString(".")
				}
				if question.Explanation != "" {
					b.WriteString(" ")
					b.WriteString(question.Explanation)
				}
				idx.add(q.Title, url, b.String())
			}
		}
	}
	return idx
}

func (idx *Index) add(title, url, content string) {
	terms := make(map[string]struct{})
	for _, t := range tokenize(title + " " + content) {
		terms[t] = struct{}{}
	}
	idx.docs = append(idx.docs, document{
		Passage: Passage{Title: title, URL: url, Content: content},
		terms:   terms,
	})
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int { return len(idx.docs) }

// Search ranks documents by the share of distinct query terms they contain.
// Documents sharing no term are left out; ties keep catalog order.
func (idx *Index) Search(query string, n int) []Passage {
	queryTerms := unique(tokenize(query))
	if len(queryTerms) == 0 || n <= 0 {
		return []Passage{}
	}
	hits := make([]Passage, 0)
	for _, d := range idx.docs {
		matched := 0
		for _, t := range queryTerms {
			if _, ok := d.terms[t]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		p := d.Passage
		p.Relevance = float64(matched) / float64(len(queryTerms))
		hits = append(hits, p)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Relevance > hits[j].Relevance })
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "what": {}, "how": {}, "why": {}, "who": {}, "which": {},
	"does": {}, "are": {}, "its": {}, "with": {}, "that": {}, "this": {}, "from": {}, "can": {},
	"les": {}, "des": {}, "une": {}, "est": {}, "que": {}, "qui": {}, "quoi": {}, "comment": {},
	"pour": {}, "dans": {}, "sur": {}, "avec": {},
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
