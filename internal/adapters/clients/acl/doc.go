// Package acl is the anti-corruption layer between the remote quote feed and
// the domain.
//
// The remote speaks in posts ({id, userId, title, body}); the domain speaks
// in quotes ({text, category}). Everything that knows about posts lives here:
//
//   - [RemoteQuotes] implements ports.QuoteSource and ports.HealthChecker.
//   - [MapHTTPError] turns transport failures and non-2xx answers into
//     *domain.SyncError, so callers only ever see domain errors.
//   - [DecodeResponse] and [TranslateSlice] decode and project remote records;
//     a malformed body becomes a *domain.ParseError wrapped by the SyncError.
//
// Projection on fetch: title → text, configured category → category, posts
// with a blank title are dropped. Projection on push: text → title,
// category → body, configured user id → userId.
package acl
