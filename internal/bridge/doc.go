// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package bridge connects a blocking workflow executor to a push stream.
//
// Open starts the executor on a worker and returns a Stream. Every event the executor
// reports is wrapped in a progress envelope and queued, in order and without limit,
// for the consumer. When the executor returns, exactly one outcome is emitted:
//
//   - success: a result envelope followed by the synthetic end event
//   - failure: a single terminal error envelope
//   - cancellation: nothing
//
// after which the envelope channel is closed.
package bridge
