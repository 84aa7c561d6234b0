// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cancellation provides the write-once flag shared between the side that
// decides a run should stop (transport, operator, shutdown) and the executor that
// checks it at its checkpoints.
package cancellation
