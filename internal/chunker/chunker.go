package chunker

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits long text into translation-sized chunks along semantic
// boundaries: paragraphs first, sentences when a single paragraph exceeds the
// budget. The budget is measured in runes rather than model tokens; chunks
// land well under typical context limits either way.
type Chunker struct {
	maxChars int
	overlap  int
}

// New creates a chunker with the given rune budget per chunk and the number of
// trailing sentences carried over between chunks for context continuity.
func New(maxChars, overlapSentences int) *Chunker {
	if maxChars <= 0 {
		maxChars = 6000
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	return &Chunker{maxChars: maxChars, overlap: overlapSentences}
}

// NeedsChunking reports whether text exceeds the chunk budget.
func (c *Chunker) NeedsChunking(text string) bool {
	return utf8.RuneCountInString(text) > c.maxChars
}

// Split divides text into ordered chunks. Text within the budget is returned
// as a single chunk. Boundaries are fixed at this point and never recomputed.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !c.NeedsChunking(text) {
		return []string{text}
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, "\n\n"))

		overlap := c.overlapTail(current)
		current = current[:0]
		currentLen = 0
		if overlap != "" {
			current = append(current, overlap)
			currentLen = utf8.RuneCountInString(overlap)
		}
	}

	for _, para := range splitParagraphs(text) {
		for _, piece := range c.fit(para) {
			pieceLen := utf8.RuneCountInString(piece)
			if currentLen > 0 && currentLen+pieceLen > c.maxChars {
				flush()
			}
			current = append(current, piece)
			currentLen += pieceLen
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}

	return chunks
}

// fit returns para as-is when it is within budget, otherwise regroups its
// sentences into budget-sized pieces.
func (c *Chunker) fit(para string) []string {
	if utf8.RuneCountInString(para) <= c.maxChars {
		return []string{para}
	}

	var pieces []string
	var current []string
	currentLen := 0

	for _, sentence := range splitSentences(para) {
		sentenceLen := utf8.RuneCountInString(sentence)
		if currentLen > 0 && currentLen+sentenceLen > c.maxChars {
			pieces = append(pieces, strings.Join(current, " "))
			current = current[:0]
			currentLen = 0
		}
		current = append(current, sentence)
		currentLen += sentenceLen
	}
	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, " "))
	}

	return pieces
}

// overlapTail returns the last overlap sentences of the chunk being closed.
func (c *Chunker) overlapTail(parts []string) string {
	if c.overlap == 0 || len(parts) == 0 {
		return ""
	}
	sentences := splitSentences(parts[len(parts)-1])
	if len(sentences) > c.overlap {
		sentences = sentences[len(sentences)-c.overlap:]
	}
	return strings.Join(sentences, " ")
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences breaks text after sentence-ending punctuation, covering both
// ASCII and CJK terminators.
func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		sb.WriteRune(r)
		if !isSentenceEnd(r) {
			continue
		}
		// An ASCII terminator only ends a sentence before whitespace, so "1.2"
		// stays together. CJK terminators always end one.
		if isASCIITerminator(r) && i+1 < len(runes) && !isBoundary(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			sentences = append(sentences, s)
		}
		sb.Reset()
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return isASCIITerminator(r) || r == '。' || r == '！' || r == '？'
}

func isASCIITerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
