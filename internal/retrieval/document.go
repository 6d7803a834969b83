// Package retrieval loads the RAG corpus from a document source and ranks
// documents against a query by keyword overlap.
package retrieval

import "context"

// Document is one entry of the corpus.
type Document struct {
	Name    string
	Content string
}

// Text is the form the retriever scores and the RAG prompt shows:
// "[name] content", or just the content for unnamed documents.
func (d Document) Text() string {
	if d.Name == "" {
		return d.Content
	}
	return "[" + d.Name + "] " + d.Content
}

// Source produces the corpus.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Document, error)
}

// Pinger is implemented by sources backed by a remote service.
type Pinger interface {
	TestConnection(ctx context.Context) error
}

// SampleDocuments are served when the configured source yields nothing.
var SampleDocuments = []Document{
	{Content: "DSPy is a framework for programming language models. It provides structured ways to build AI applications."},
	{Content: "ReAct agents combine reasoning and acting to solve complex tasks using tools and external information."},
	{Content: "Chain of Thought prompting helps models break down complex problems into step-by-step reasoning."},
}
