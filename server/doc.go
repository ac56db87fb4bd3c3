// Package server runs the ragflow HTTP API: a Gin engine behind an h2c
// handler, wrapped in the net/http middleware of server/middleware.
//
// Every request passes through recovery, request-id, request logging, CORS
// and the body size limit before reaching Gin. API routes are registered on
// the group returned by API, which applies bearer authentication when it is
// enabled. The probe and metrics endpoints of server/endpoint stay public.
package server
