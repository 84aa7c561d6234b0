// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a workflow: an ordered batch of named steps executed one after
// another on the caller's goroutine.
// Each step reports when it starts, any intermediate progress, and when it finishes.
// Between steps, and whenever a step reports progress, the batch checks whether the run
// has been cancelled and, if so, stops without reporting anything further.
// The first failing step abandons the rest of the batch.
package runbatch
