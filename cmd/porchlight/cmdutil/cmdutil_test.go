// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdutil

import (
	"encoding/json"
	"testing"

	"github.com/matt-FFFFFF/porchlight/internal/prompt"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVars(t *testing.T) {
	vars, err := ParseVars([]string{"target=sources", "empty=", "expr=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"target": "sources", "empty": "", "expr": "a=b"}, vars)

	vars, err = ParseVars(nil)
	require.NoError(t, err)
	assert.Nil(t, vars)

	for _, bad := range []string{"novalue", "=x", " =x"} {
		_, err := ParseVars([]string{bad})
		assert.ErrorIs(t, err, ErrInvalidVar, bad)
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"count=3", `tags=["a","b"]`, "name=plain text", "quoted=\"x\""})
	require.NoError(t, err)

	assert.JSONEq(t, `3`, string(fields["count"]))
	assert.JSONEq(t, `["a","b"]`, string(fields["tags"]))
	assert.JSONEq(t, `"plain text"`, string(fields["name"]))
	assert.JSONEq(t, `"x"`, string(fields["quoted"]))

	_, err = ParseFields([]string{"missing"})
	assert.ErrorIs(t, err, ErrInvalidField)

	fields, err = ParseFields(nil)
	require.NoError(t, err)
	assert.Nil(t, fields)

	b, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

type answer string

func (a answer) Prompt(string) (string, error) { return string(a), nil }
func (answer) AppendHistory(string)            {}
func (answer) Close() error                    { return nil }

func TestJobID(t *testing.T) {
	stubs := gostub.Stub(&IsInteractive, func() bool { return false })
	defer stubs.Reset()

	id, err := JobID("  J1 ")
	require.NoError(t, err)
	assert.Equal(t, "J1", id)

	_, err = JobID("")
	require.ErrorIs(t, err, ErrJobIDRequired)

	stubs.Stub(&IsInteractive, func() bool { return true })
	stubs.Stub(&prompt.NewLineReader, func() prompt.LineReader { return answer("J2") })

	id, err = JobID(" ")
	require.NoError(t, err)
	assert.Equal(t, "J2", id)

	stubs.Stub(&prompt.NewLineReader, func() prompt.LineReader { return answer("") })

	_, err = JobID("")
	assert.ErrorIs(t, err, prompt.ErrEmpty)
}
