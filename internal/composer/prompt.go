package composer

import (
	"fmt"
	"strings"
	"time"

	"gopherai-docqa/internal/vectorindex"
)

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(`You are a document question-answering assistant. Today is %s.
Answer the user's question using only the numbered documents provided.
Cite the documents you use as [Document N].
If the documents do not contain the answer, say that you could not find it in the provided documents.
Do not make up facts.`, now.Format("2006-01-02"))
}

func userPrompt(query string, hits []vectorindex.Hit) string {
	var b strings.Builder
	b.WriteString("Documents:\n\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "Document %d [%s]:\n%s\n\n", i+1, label(h), strings.TrimSpace(h.Text))
	}
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", strings.TrimSpace(query))
	return b.String()
}

// label renders "name (page 3)" for located chunks and just the name otherwise.
func label(h vectorindex.Hit) string {
	if h.Locator == "" {
		return h.DocumentName
	}
	return fmt.Sprintf("%s (%s)", h.DocumentName, h.Locator)
}
