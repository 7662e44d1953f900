package main

import (
	"regexp"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"golang.org/x/net/html"
)

var (
	// Tokens starting with "http" or "www." are stripped up to the next
	// whitespace. Bare domains without either prefix are kept.
	urlPattern = regexp.MustCompile(`http\S+|www\.\S+`)

	// Everything that is neither a word character nor whitespace goes.
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

var (
	lemmatizerOnce sync.Once
	lemmatizer     *golem.Lemmatizer
)

func englishLemmatizer() *golem.Lemmatizer {
	lemmatizerOnce.Do(func() {
		l, err := golem.New(en.New())
		if err != nil {
			// The dictionary is compiled into the binary; an error here is a
			// broken build, not a runtime condition.
			panic(err)
		}
		lemmatizer = l
	})
	return lemmatizer
}

// Normalize applies the cleaning pipeline to one feedback string: lowercase,
// URL removal, HTML markup removal, punctuation removal, optional
// lemmatization, trim. It is pure and never fails; malformed HTML degrades to
// best-effort text extraction. Normalize is idempotent on its own output.
func Normalize(text string, lemmatize bool) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = stripHTML(text)
	text = punctuationPattern.ReplaceAllString(text, "")
	if lemmatize {
		words := strings.Fields(text)
		for i, w := range words {
			words[i] = englishLemmatizer().Lemma(w)
		}
		text = strings.Join(words, " ")
	}
	return strings.TrimSpace(text)
}

// stripHTML keeps only the text content of its input, dropping tags, comments
// and scripts. Plain text passes through unchanged apart from entity decoding.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	tok := html.NewTokenizer(strings.NewReader(s))
	for {
		switch tok.Next() {
		case html.ErrorToken:
			// io.EOF or unparseable input: return whatever text was recovered.
			return b.String()
		case html.TextToken:
			b.Write(tok.Text())
		}
	}
}
