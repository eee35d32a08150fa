// Package layer
// Author: momentics <momentics@gmail.com>
//
// Cross-cutting service layers. Every layer here wraps an api.Service and
// returns an api.Service of the same request type; only MapResponse changes
// the response type. Errors from the inner service are returned unchanged
// unless a layer exists to transform them (MapErr).
package layer
