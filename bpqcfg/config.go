// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bpqcfg parses the header chain store's command line options (no
// config file is read): the data directory it lives under, and the network
// selector (mainnet/testnet/regtest) that picks which chaincfg.Params
// apply.
package bpqcfg

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"

	"github.com/EXCCoin/exccd/chaincfg"
)

const defaultDataDirname = "bpqheaders"

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "."+defaultDataDirname)
}

// Config holds the parsed command line options for a header chain store
// daemon.
type Config struct {
	DataDir    string `short:"b" long:"datadir" description:"Directory to store header chain files in"`
	TestNet    bool   `long:"testnet" description:"Use the test network"`
	RegressionTest bool `long:"regtest" description:"Use the regression test network"`
	Simnet     bool   `long:"simnet" description:"Use the regression test network"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`
}

// Load parses args (typically os.Args[1:]) into a Config, applying
// defaults for any option not given, and resolves the active network's
// chaincfg.Params from the mutually-exclusive network flags.
func Load(args []string) (*Config, *chaincfg.Params, error) {
	cfg := Config{
		DataDir:    defaultDataDir(),
		DebugLevel: "info",
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, nil, err
	}

	numNets := 0
	params := chaincfg.MainNetParams()
	if cfg.TestNet {
		numNets++
		params = chaincfg.TestNetParams()
	}
	if cfg.RegressionTest {
		numNets++
		params = chaincfg.RegNetParams()
	}
	if cfg.Simnet {
		numNets++
		params = chaincfg.RegNetParams()
	}
	if numNets > 1 {
		return nil, nil, fmt.Errorf("bpqcfg: multiple networks selected, choose only one of testnet/regtest/simnet")
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("bpqcfg: cannot create data directory: %w", err)
	}

	return &cfg, params, nil
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(os.ExpandEnv(path))
}
