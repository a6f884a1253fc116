// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSM3(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSM3(&out, []string{"abc"}))
	assert.Contains(t, out.String(), "66c7f0f462eeedd9d1f2d46bdc10e4e24167c4875cf2f7a2297da02b8f4ba8e0")
}

func TestRunSM4(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSM4(&out, []string{"-n", "37"}))
	assert.Contains(t, out.String(), "ciphertext 681edf34d206965e86b3e94f536e4246")
	assert.Contains(t, out.String(), "encrypted 37 blocks")

	assert.Error(t, runSM4(&out, []string{"-key", "00"}))
	assert.Error(t, runSM4(&out, []string{"-key", "zz"}))
}

func TestRunMerkle(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runMerkle(&out, []string{"-n", "1000"}))
	assert.Contains(t, out.String(), "steps): true")
	assert.Contains(t, out.String(), "non-membership of leaf-99999999: true")

	assert.Error(t, runMerkle(&out, []string{"-n", "0"}))
}

func TestRunLenext(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runLenext(&out, []string{"-secret", "21"}))
	assert.Contains(t, out.String(), "secret length 21 (actual 21), accepted: true")

	assert.Error(t, runLenext(&out, []string{"-secret", "40", "-max", "32"}))
}
