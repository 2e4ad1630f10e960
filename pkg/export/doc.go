// Package export renders the parameterless pages of an App to static HTML
// and writes them to a Store.
//
// Each page is pulled once, exactly as the first render of a live session
// would see it, and wrapped in a complete HTML document. Page "/" becomes
// "index.html" and "/docs/intro" becomes "docs/intro/index.html".
//
//	store, _ := export.NewDiskStore("dist")
//	result, err := export.New(app, store).Export(ctx)
//
// S3Store writes the same keys to a bucket.
package export
