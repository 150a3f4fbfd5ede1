package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/vault"
	"github.com/xraph/vault/admin"
)

// scenario is a scripted sequence of vault calls against a fresh vault.
type scenario struct {
	Asset    string                          `yaml:"asset"`
	Admin    vault.Principal                 `yaml:"admin"`
	Custody  vault.Principal                 `yaml:"custody"`
	MinTopup vault.Amount                    `yaml:"min_topup"`
	Start    uint64                          `yaml:"start"`
	Balances map[vault.Principal]vault.Amount `yaml:"balances"`
	Steps    []step                          `yaml:"steps"`
}

// step is one call. Which fields are read depends on Op.
type step struct {
	Op        string                 `yaml:"op"`
	As        vault.Principal        `yaml:"as"`
	ID        vault.SubscriptionID   `yaml:"id"`
	IDs       []vault.SubscriptionID `yaml:"ids"`
	Merchant  vault.Principal        `yaml:"merchant"`
	Recipient vault.Principal        `yaml:"recipient"`
	Amount    vault.Amount           `yaml:"amount"`
	Interval  uint64                 `yaml:"interval"`
	Usage     bool                   `yaml:"usage"`
	Key       string                 `yaml:"key"`
	Seconds   uint64                 `yaml:"seconds"`
	Periods   uint32                 `yaml:"periods"`
	Reason    admin.RecoveryReason   `yaml:"reason"`
	// Expect is a code name such as "ok" or "replay". Empty skips the check.
	Expect string `yaml:"expect"`
}

func loadScenario(path string) (*scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeScenario(f)
}

func decodeScenario(r io.Reader) (*scenario, error) {
	var sc scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	if sc.Asset == "" {
		sc.Asset = "USDC"
	}
	if sc.Admin.IsZero() {
		sc.Admin = "admin"
	}
	if sc.Custody.IsZero() {
		sc.Custody = "custody"
	}
	if sc.Start == 0 {
		sc.Start = 1
	}
	for i, s := range sc.Steps {
		if _, ok := ops[s.Op]; !ok {
			return nil, fmt.Errorf("step %d: unknown op %q", i+1, s.Op)
		}
	}
	return &sc, nil
}
