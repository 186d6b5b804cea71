// Package report downloads annual reports from the exchange's document
// server and answers questions about them.
//
// A report PDF is reduced to plain text, split into overlapping chunks and
// embedded. The resulting Index is persisted as JSON next to the other
// indexes and searched by cosine similarity. Summarizer stuffs the best
// matching chunks into a single prompt for the language model.
package report
