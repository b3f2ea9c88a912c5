// Package fresco is a hot reload toolkit for server-rendered UI
// applications.
//
// Applications call reload.Shared once at startup to join a running
// fresco-watch daemon. Compiled template updates stream in over a
// websocket, land in a deduplicating cache and are published to
// subscribers through a lossy latest-value channel:
//
//	state := reload.Shared()
//	cursor := state.Subscribe()
//	for {
//		template, err := cursor.Next(ctx)
//		if err != nil {
//			break
//		}
//		rerender(template)
//	}
//
// The serve package configures server-side rendering around the
// application's index page, and cmd/fresco-watch hosts the file
// watching, compiling and broadcasting side of the loop.
package fresco
