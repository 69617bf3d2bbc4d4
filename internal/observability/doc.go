// Package observability provides logging and metrics support for the
// research paper finder.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger.Info().Str("term", term).Msg("provider search completed")
//
// Components derive a child logger per concern:
//
//	logger = logger.With().Str("component", "orchestrator").Logger()
//	logger = observability.WithSearchContext(logger, term, "arxiv")
//
// # Metrics
//
//	metrics := observability.NewMetrics("paper_finder")
//	metrics.RecordProviderRequest("arxiv", "success", elapsed, 10)
//
// Every Record method is safe to call on a nil *Metrics, which lets tests and
// one-shot tools run without a registry.
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - search_id: identifier of one search or chat invocation
//   - query: user query, truncated to 50 characters
//   - term: derived search term
//   - provider: paper provider (arxiv, pubmed, doaj, ...)
//   - component: emitting component
package observability
