// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sse encodes envelopes as Server-Sent Events frames and decodes them back.
//
// Each envelope becomes one frame whose event name is the envelope kind and whose data is
// the whole envelope as JSON, so decoding a frame gives back exactly the envelope that was
// encoded.
package sse
