// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time Terminal User Interface (TUI) for following a workflow
// run. Each step is shown with a status icon, a progress bar and the latest message; the
// outcome of the run is shown once its stream ends.
//
// The TUI consumes progress envelopes, so it works the same for a run executed in-process
// and for one streamed from a server. Quitting while the run is live cancels it.
package tui
