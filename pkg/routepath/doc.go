// Package routepath provides the pure path and query helpers shared by the
// route table and the navigation surface.
//
// Paths are normalized by collapsing repeated slashes and dropping any
// "#fragment". A trailing slash is significant and is never added or
// removed: "/about" and "/about/" are different paths.
package routepath
