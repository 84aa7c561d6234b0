// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress defines the values that flow from a running workflow to a
// streaming client: progress events, the wire envelope that wraps them, the
// final result and the inbound request.
//
// Everything in this package is a plain value. The only behaviour is
// validation, JSON encoding and the per-run Clock, which keeps event
// timestamps from ever going backwards within a run.
package progress
