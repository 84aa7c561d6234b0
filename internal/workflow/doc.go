// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workflow loads workflow definitions written in HCL and turns them into
// executable batches of simulated steps.
//
// A definition file holds one or more workflow blocks:
//
//	workflow "demo" {
//	  description = "Three simulated steps"
//
//	  step "a" {
//	    label       = "A"
//	    checkpoints = [40]
//	    interval    = "400ms"
//	  }
//	}
//
// Each step sleeps for interval before every checkpoint and once more before finishing.
// A step with fail_at set fails when it reaches that percent.
// Attribute values may refer to variables supplied by the caller as var.<name>.
package workflow
