// Package operations runs the batch pipelines as a sequence of registered
// steps.
//
// A Step declares the steps it depends on; the Registry orders steps
// topologically (registration order breaks ties) and the Manager executes
// them one at a time, passing data between steps through the
// OperationState context. When a step fails, every step downstream of it is
// skipped.
//
// The predictor pipeline registers ingest, predict and report. The
// featurizer registers ingest, an optional label step, derive and
// export_features.
//
//	registry := operations.NewRegistry()
//	registry.Register(operations.NewIngestStep(reader, "data/raw"))
//	registry.Register(operations.NewPredictStep(orchestrator))
//	registry.Register(operations.NewReportStep(os.Stdout, nil, ""))
//	state, err := operations.NewManager(registry, nil, logger).Execute(ctx, "")
package operations
