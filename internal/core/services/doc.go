// Package services contains the core business logic: retrieval query
// construction, report generation and review, regulation ingestion, and
// batch archive orchestration. Services depend only on driven ports and
// the domain package.
package services
