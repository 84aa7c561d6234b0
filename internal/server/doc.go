// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package server exposes workflow runs over HTTP.
//
// A client starts a run by POSTing a request to the run endpoint and reads the progress
// envelopes back as a server-sent event stream, or by sending the request as the first
// message of a WebSocket. Closing the connection cancels the run. Active runs can be
// listed and cancelled by ID.
package server
