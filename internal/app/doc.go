// Package app wires the prediction API server: configuration, telemetry,
// services, the chi router and the HTTP server lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Load the classifiers and build the services
//	4. Set up handlers and middleware
//	5. Start the HTTP server and wait for SIGINT or SIGTERM
//
// # Usage
//
//	application, err := app.NewApplication(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// A missing instant classifier does not stop the server. Readiness stays
// at 503 and predictions are refused until the models directory is fixed
// and the server restarted.
package app
