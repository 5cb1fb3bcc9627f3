// Package api handles incoming HTTP requests, request validation, and
// response formatting. It acts as an adapter between external clients and
// the internal application services, translating HTTP concerns to
// business operations. The JSON field names are part of the wire contract
// consumed by the web frontend.
package api
