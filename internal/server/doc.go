// Package server exposes the provider adapters over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Gateway
//
// [Gateway] is a read-only JSON API over a [Resolver]:
//
//	GET /health
//	GET /api/{provider}/search?q=&limit=&platform=
//	GET /api/search?q=&providers=netease,aggregator:qq
//	GET /api/{provider}/comments/{id}
//	GET /api/{provider}/lyrics/{id}
//	GET /api/{provider}/extra/{id}
//	GET /api/library?source=&name=
//
// Adapters never fail, so capability routes always answer 200 with an empty or
// placeholder body when the upstream is down. Unknown providers answer 404.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
