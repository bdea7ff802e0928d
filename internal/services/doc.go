// Package services implements the HTTP client layer for the tunefeed streaming API.
//
// The package contains three cooperating pieces:
//
//   - [Client] : an HTTP client with a shared cookie jar and the refresh
//     transport installed. All services share one client so a token refresh
//     performed for one request benefits every other.
//   - [AuthService] : credential login, session introspection, token refresh,
//     registration, password recovery, and federated identity verification.
//   - [CatalogService] : paginated song feed, per-artist listings, and curated
//     home sections, rate limited client-side.
//
// Authentication state lives entirely in cookies set by the server. The
// refresh transport reacts to 401 responses by refreshing the token pair once
// and retrying, collapsing concurrent failures into a single refresh call.
package services
