// Package services sits between the HTTP handlers and the pipeline packages.
//
// PredictionService owns the loaded classifiers and turns a batch of
// uploaded session files into a run report. HealthService answers the
// health, readiness and liveness probes; readiness requires the instant
// classifier to be loaded and the models directory to exist.
//
// Services receive their *slog.Logger by injection and never write to
// stdout themselves.
package services
