// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tools

// Docs returns the database tool catalog without a live executor, for the
// documentation page on the bridge side. The handlers in the returned tools
// must not be invoked.
func Docs() []*Tool {
	return NewDatabaseRegistry(nil).List()
}
