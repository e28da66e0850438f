// Package http implements the HTTP handlers of the prediction API.
//
// Handlers stay thin: they parse the request, call a service and render
// the result with go-chi/render. Failures are rendered as RFC 7807 problem
// details through errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Invalid request data",
//	    "status": 400,
//	    "detail": "Only CSV and XLSX session files are accepted",
//	    "instance": "/api/v1/predictions"
//	}
//
// # Routes
//
//	POST /api/v1/predictions     multipart upload, field "files"
//	GET  /api/v1/health          liveness summary
//	GET  /api/v1/health/ready    readiness (503 until classifiers load)
//	GET  /api/v1/health/live     runtime details
//	GET  /api/v1/version         build information
//
// Handlers are tested with httptest against fake services.
package http
