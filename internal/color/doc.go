// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes when colour output is wanted.
// Colour is disabled by NO_COLOR, forced by FORCE_COLOR, and otherwise enabled only when
// stdout is a terminal.
package color
