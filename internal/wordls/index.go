package wordls

import "sort"

// occurrence locates a token inside an indexed document.
type occurrence struct {
	URI string
	token
}

// Index maps documents to their identifier tokens. It is rebuilt per document
// on every change and only read while diagnostics are computed.
type Index struct {
	files map[string][]token
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{files: make(map[string][]token)}
}

// Update rescans text for uri.
func (x *Index) Update(uri, text string) {
	x.files[uri] = scan(text)
}

// Remove drops uri from the index.
func (x *Index) Remove(uri string) {
	delete(x.files, uri)
}

// Has reports whether uri is indexed.
func (x *Index) Has(uri string) bool {
	_, ok := x.files[uri]
	return ok
}

// URIs lists indexed documents in sorted order.
func (x *Index) URIs() []string {
	out := make([]string, 0, len(x.files))
	for uri := range x.files {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// TokenAt returns the token under offset. A cursor right after the last
// character of a word still selects it.
func (x *Index) TokenAt(uri string, offset int) (token, bool) {
	tokens := x.files[uri]
	i := sort.Search(len(tokens), func(i int) bool { return tokens[i].End >= offset })
	if i < len(tokens) && tokens[i].Start <= offset {
		return tokens[i], true
	}
	return token{}, false
}

// Tokens returns the tokens of uri in document order.
func (x *Index) Tokens(uri string) []token {
	return x.files[uri]
}

// Occurrences lists every token named name, ordered by URI then offset.
func (x *Index) Occurrences(name string) []occurrence {
	return x.collect(name, false)
}

// Definitions lists the defining occurrences of name.
func (x *Index) Definitions(name string) []occurrence {
	return x.collect(name, true)
}

func (x *Index) collect(name string, defsOnly bool) []occurrence {
	var out []occurrence
	for _, uri := range x.URIs() {
		for _, tok := range x.files[uri] {
			if tok.Name != name || (defsOnly && !tok.Def) {
				continue
			}
			out = append(out, occurrence{URI: uri, token: tok})
		}
	}
	return out
}
