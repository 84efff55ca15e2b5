// Package domain contains the core business entities for the raildoc
// pipeline: regulation units, vision detections, parsed reports, and
// batch artifacts. The domain has no dependencies on adapters.
package domain
