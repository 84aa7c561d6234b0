// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package porchlight provides the version and commit information for the porchlight application.
package porchlight

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
	// Name is the application name used in logs and the user agent.
	Name = "porchlight"
)
