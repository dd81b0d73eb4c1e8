package services

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Anything other than letters, digits, underscore, whitespace and '?'
	queryNoiseRe      = regexp.MustCompile(`[^\p{L}\p{N}_\s?]+`)
	queryWhitespaceRe = regexp.MustCompile(`\s+`)
)

// abbreviation is a tender-domain acronym and the gloss appended after it.
// match is the form the acronym takes once punctuation has been stripped.
type abbreviation struct {
	match string
	canon string
	gloss string
}

var abbreviations = []abbreviation{
	{match: "RFP", canon: "RFP", gloss: "Request for Proposal"},
	{match: "RFQ", canon: "RFQ", gloss: "Request for Quotation"},
	{match: "EOI", canon: "EOI", gloss: "Expression of Interest"},
	{match: "TC", canon: "T&C", gloss: "Terms and Conditions"},
	{match: "SOW", canon: "SOW", gloss: "Statement of Work"},
}

var abbreviationRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(abbreviations))
	for i, a := range abbreviations {
		res[i] = regexp.MustCompile(`\b` + a.match + `\b`)
	}
	return res
}()

// PreprocessQuery cleans a user question before it is embedded.
// Punctuation other than '?' is removed, whitespace is collapsed and known
// acronyms are followed by their expansion, so "RFP" becomes
// "RFP (Request for Proposal)". The acronym itself is kept for keyword matching.
func PreprocessQuery(query string) string {
	q := queryNoiseRe.ReplaceAllString(query, "")
	q = strings.TrimSpace(queryWhitespaceRe.ReplaceAllString(q, " "))

	for i, a := range abbreviations {
		q = abbreviationRes[i].ReplaceAllLiteralString(q, a.canon+" ("+a.gloss+")")
	}
	return q
}

var stopWords = func() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "all", "also", "am", "an", "and", "any",
		"are", "as", "at", "be", "because", "been", "before", "being", "below", "between",
		"both", "but", "by", "can", "could", "did", "do", "does", "doing", "down", "during",
		"each", "few", "for", "from", "further", "had", "has", "have", "having", "he", "her",
		"here", "hers", "him", "his", "how", "i", "if", "in", "into", "is", "it", "its",
		"just", "me", "more", "most", "my", "no", "nor", "not", "now", "of", "off", "on",
		"once", "only", "or", "other", "our", "ours", "out", "over", "own", "same", "she",
		"should", "so", "some", "such", "than", "that", "the", "their", "theirs", "them",
		"then", "there", "these", "they", "this", "those", "through", "to", "too", "under",
		"until", "up", "very", "was", "we", "were", "what", "when", "where", "which",
		"while", "who", "whom", "why", "will", "with", "would", "you", "your", "yours",
		"please", "tell", "give", "show", "list", "find",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()

// ExtractKeywords returns the distinct content words of a query in order of
// first appearance: lower-cased, stop words and tokens of two characters or
// fewer removed.
func ExtractKeywords(query string) []string {
	var keywords []string
	seen := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(query)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}
	return keywords
}
