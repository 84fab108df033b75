// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderSize(t *testing.T) {
	p := MainNetParams()
	require.Equal(t, 141+p.SolLength, p.HeaderSize())
}

func TestNetworksHaveDistinctGenesis(t *testing.T) {
	main := MainNetParams()
	test := TestNetParams()
	reg := RegNetParams()

	require.NotEqual(t, main.Genesis, test.Genesis)
	require.NotEqual(t, main.Genesis, reg.Genesis)
	require.True(t, test.TestNet)
	require.True(t, reg.TestNet)
	require.False(t, main.TestNet)
}

func TestMainNetPoWEnabledByDefault(t *testing.T) {
	require.True(t, MainNetParams().PoWEnabled)
	require.False(t, TestNetParams().PoWEnabled)
	require.False(t, RegNetParams().PoWEnabled)
}
