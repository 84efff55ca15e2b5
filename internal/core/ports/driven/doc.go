// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the vector store, the language model
// service, and artifact persistence.
package driven
