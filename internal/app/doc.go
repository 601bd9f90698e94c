// Package app is the composition root of creditfile. It turns a loaded
// configuration into a running service: telemetry providers, the report
// pipeline, the health service, the chi router and the HTTP server.
//
// # Initialization Flow
//
//  1. Initialize OpenTelemetry (noop providers for disabled signals)
//  2. Create pipeline metrics when metrics are enabled
//  3. Build the feature engine, scorer and report service
//  4. Set up middleware and routes
//  5. Wrap the router in otelhttp and create the server
//
// # Usage
//
//	a, err := app.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx) // blocks until ctx is cancelled
//
// Commands that only process files use NewReportService directly.
package app
