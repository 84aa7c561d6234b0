// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv(NoColor, "1")
	assert.False(t, isColorCapable(os.Stdout.Fd()))

	t.Setenv(ForceColor, "1")
	assert.False(t, isColorCapable(os.Stdout.Fd()), "NO_COLOR wins over FORCE_COLOR")

	t.Setenv(NoColor, "")
	assert.True(t, isColorCapable(os.Stdout.Fd()))
}

func TestColorize(t *testing.T) {
	restore := SetEnabled(true)
	defer restore()

	assert.Equal(t, "\033[31mfail\033[0m", Colorize("fail", FgRed))
	assert.Equal(t, "\033[1;92mok\033[0m", Colorize("ok", Bold, FgHiGreen))
	assert.Equal(t, "plain", Colorize("plain"))
	assert.Equal(t, "\033[36m", Sequence(FgCyan))
}

func TestColorize_Disabled(t *testing.T) {
	restore := SetEnabled(false)
	defer restore()

	assert.Equal(t, "fail", Colorize("fail", FgRed))
	assert.Empty(t, Sequence(FgRed))
}

func BenchmarkColorize(b *testing.B) {
	restore := SetEnabled(true)
	defer restore()

	for b.Loop() {
		Colorize("step a 40%", FgCyan)
	}
}
