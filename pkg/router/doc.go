// Package router implements the ordered route table used for page
// navigation.
//
// Routes are matched in registration order and the first match wins, so a
// route registered after an overlapping one is unreachable for the paths
// they share.
//
// # Patterns
//
// A pattern is a "/"-delimited template. A segment of the form ":name"
// captures exactly one non-empty segment; everything else matches
// literally. There are no wildcards or optional segments:
//
//	/                         → /
//	/users/:id                → /users/123        {id: "123"}
//	/org/:orgId/user/:userId  → /org/acme/user/7  {orgId: "acme", userId: "7"}
//
// A trailing slash is significant: "/about" never matches "/about/".
// Captured values are URL path decoded.
//
// Malformed patterns (no leading slash, an empty or repeated parameter
// name) are accepted by Add but never match anything.
//
// # Usage
//
//	t := router.New[PageFactory](logger)
//	t.Add("/", home)
//	t.Add("/city/:name", city)
//
//	m, err := t.Match("/city/Oslo")
//	if errors.Is(err, router.ErrNotFound) {
//	    // keep the current page
//	}
//	// m.Value == city, m.Params["name"] == "Oslo"
package router
