// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
)

const jobIDField = "jobId"

// ErrInvalidRequest is returned when a request cannot start a run.
var ErrInvalidRequest = errors.New("invalid request")

// Request is the inbound description of a run.
// Fields other than the job identifier are kept verbatim and are opaque to the bridge.
type Request struct {
	JobID  string
	Fields map[string]json.RawMessage
}

// Validate checks that the request is well formed.
func (r Request) Validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, jobIDField)
	}

	return nil
}

// Field decodes the named extra field into v. It returns false if the field is absent.
func (r Request) Field(name string, v any) (bool, error) {
	raw, ok := r.Fields[name]
	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(raw, v)
}

// MarshalJSON emits the job identifier alongside the extra fields.
func (r Request) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Fields)+1)
	maps.Copy(out, r.Fields)

	id, err := json.Marshal(r.JobID)
	if err != nil {
		return nil, err
	}

	out[jobIDField] = id

	return json.Marshal(out)
}

// UnmarshalJSON extracts the job identifier and keeps every other field.
func (r *Request) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Join(ErrInvalidRequest, err)
	}

	var id string

	if raw, ok := fields[jobIDField]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidRequest, jobIDField)
		}

		delete(fields, jobIDField)
	}

	if len(fields) == 0 {
		fields = nil
	}

	r.JobID = id
	r.Fields = fields

	return nil
}
