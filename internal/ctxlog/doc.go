// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The level of the default loggers is read from the PORCHLIGHT_LOG_LEVEL environment
// variable (DEBUG, INFO, WARN or ERROR, default INFO) and can be changed at runtime
// through LevelVar.
package ctxlog
