// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Request Logging

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start at debug level and completion with status and duration_ms.

# CORS

	server := http.Server{Handler: middleware.CORS(mux)}

Allows GET, POST, DELETE and OPTIONS with the Content-Type, Authorization
and X-Session-Token headers.

# Errors

AppError maps a classified error to its HTTP status and writes the reason
code alongside the message:

	if err := o.CastBallot(ctx, token, id); err != nil {
		middleware.AppError(w, r, err)
		return
	}

Responses look like {"error":"Conflict","message":"...","reason":"already_voted"}.
ErrorResponse writes the same shape for request validation failures that
carry no reason.
*/
package middleware
