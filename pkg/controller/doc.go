// Package controller contains HTTP middlewares and helper handlers used by the
// watch-mode status server.
//
// Provided middlewares:
//   - WithLogger: attaches a request-scoped logger and request ID to the context and logs access info.
//
// Provided helpers:
//   - PprofMux: returns a ServeMux exposing net/http/pprof handlers under PprofPrefix.
//   - WriteJSON: writes a jx-encoded body with a status code.
package controller
