// Package config loads the sidecar's YAML configuration.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/vimy/vimy-defense/advisory"
	"github.com/nstehr/vimy/vimy-defense/defense"
)

type Config struct {
	SocketPath  string   `yaml:"socket_path"`
	LogLevel    string   `yaml:"log_level"`
	Allies      []string `yaml:"player_allies"`
	HaulerRoles []string `yaml:"hauler_roles"`

	Allocation Allocation `yaml:"allocation"`
	Advisory   Advisory   `yaml:"advisory"`
	State      State      `yaml:"state"`
	Observer   Observer   `yaml:"observer"`
}

type Allocation struct {
	TurretPoolTTL         int     `yaml:"turret_pool_ttl"`
	EnergySourceTTL       int     `yaml:"energy_source_ttl"`
	SingleTurretMinEnergy int     `yaml:"single_turret_min_energy"`
	PoolMinEnergy         int     `yaml:"pool_min_energy"`
	ActionEnergy          int     `yaml:"action_energy"`
	HealMinEnergy         int     `yaml:"heal_min_energy"`
	HealSelectRatio       float64 `yaml:"heal_select_ratio"`
	HealKeepRatio         float64 `yaml:"heal_keep_ratio"`
	HealScanInterval      int     `yaml:"heal_scan_interval"`
	RepairMinEnergy       int     `yaml:"repair_min_energy"`
	RepairScanInterval    int     `yaml:"repair_scan_interval"`
	AdvisoryInterval      int     `yaml:"advisory_interval"`
	RepairRotationCap     int     `yaml:"repair_rotation_cap"`
	RepairNominal         int     `yaml:"repair_nominal"`
	ContainerSkipDamage   float64 `yaml:"container_skip_damage"`
	DiagnosticsEvery      int     `yaml:"diagnostics_every"`
}

// Advisory configures the haulage-coverage condition. The allocator asks for a
// verdict at most every allocation.advisory_interval ticks; EveryTicks is how
// long the advisory keeps a verdict. Zero means the same interval, and a value
// above it is rejected.
type Advisory struct {
	Condition  string `yaml:"condition"`
	EveryTicks int    `yaml:"every_ticks"`
}

type State struct {
	Driver            string `yaml:"driver"`
	Path              string `yaml:"path"`
	PersistEveryTicks int    `yaml:"persist_every_ticks"`
}

type Observer struct {
	Addr string `yaml:"addr"`
}

// Default mirrors defense.DefaultTuning and keeps state in a local SQLite file.
func Default() Config {
	t := defense.DefaultTuning()
	return Config{
		SocketPath:  "/tmp/vimy-defense.sock",
		LogLevel:    "info",
		HaulerRoles: t.HaulerRoles,
		Allocation: Allocation{
			TurretPoolTTL:         t.TurretPoolTTL,
			EnergySourceTTL:       t.EnergySourceTTL,
			SingleTurretMinEnergy: t.SingleTurretMinEnergy,
			PoolMinEnergy:         t.PoolMinEnergy,
			ActionEnergy:          t.ActionEnergy,
			HealMinEnergy:         t.HealMinEnergy,
			HealSelectRatio:       t.HealSelectRatio,
			HealKeepRatio:         t.HealKeepRatio,
			HealScanInterval:      t.HealScanInterval,
			RepairMinEnergy:       t.RepairMinEnergy,
			RepairScanInterval:    t.RepairScanInterval,
			AdvisoryInterval:      t.AdvisoryInterval,
			RepairRotationCap:     t.RepairRotationCap,
			RepairNominal:         t.RepairNominal,
			ContainerSkipDamage:   t.ContainerSkipDamage,
			DiagnosticsEvery:      t.DiagnosticsEvery,
		},
		Advisory: Advisory{
			Condition: advisory.DefaultCondition,
		},
		State: State{
			Driver:            "sqlite",
			Path:              "data/vimy-defense.sqlite",
			PersistEveryTicks: 50,
		},
	}
}

// Load reads path over Default. A missing path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates raw YAML against the config schema and overlays it on Default.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	if err := validate(raw); err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Allocation.HealKeepRatio < cfg.Allocation.HealSelectRatio {
		return Config{}, fmt.Errorf("heal_keep_ratio %.2f below heal_select_ratio %.2f", cfg.Allocation.HealKeepRatio, cfg.Allocation.HealSelectRatio)
	}
	if cfg.Advisory.EveryTicks > cfg.Allocation.AdvisoryInterval {
		return Config{}, fmt.Errorf("advisory every_ticks %d above allocation advisory_interval %d", cfg.Advisory.EveryTicks, cfg.Allocation.AdvisoryInterval)
	}
	return cfg, nil
}

// AdvisoryEvery is the advisory's effective cache lifetime in ticks.
func (c Config) AdvisoryEvery() int {
	if c.Advisory.EveryTicks > 0 {
		return c.Advisory.EveryTicks
	}
	return c.Allocation.AdvisoryInterval
}

var schema = jsonschema.MustCompileString("config.schema.json", configSchema)

// validate checks the document's shape. YAML is normalised through JSON so the
// validator sees the same value types it would for a JSON document.
func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalise config: %w", err)
	}
	var normalised any
	if err := json.Unmarshal(b, &normalised); err != nil {
		return fmt.Errorf("normalise config: %w", err)
	}
	if err := schema.Validate(normalised); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Tuning converts the allocation section for the allocator.
func (c Config) Tuning() defense.Tuning {
	a := c.Allocation
	return defense.Tuning{
		TurretPoolTTL:         a.TurretPoolTTL,
		EnergySourceTTL:       a.EnergySourceTTL,
		SingleTurretMinEnergy: a.SingleTurretMinEnergy,
		PoolMinEnergy:         a.PoolMinEnergy,
		ActionEnergy:          a.ActionEnergy,
		HealMinEnergy:         a.HealMinEnergy,
		HealSelectRatio:       a.HealSelectRatio,
		HealKeepRatio:         a.HealKeepRatio,
		HealScanInterval:      a.HealScanInterval,
		RepairMinEnergy:       a.RepairMinEnergy,
		RepairScanInterval:    a.RepairScanInterval,
		AdvisoryInterval:      a.AdvisoryInterval,
		RepairRotationCap:     a.RepairRotationCap,
		RepairNominal:         a.RepairNominal,
		ContainerSkipDamage:   a.ContainerSkipDamage,
		HaulerRoles:           c.HaulerRoles,
		DiagnosticsEvery:      a.DiagnosticsEvery,
	}
}

func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
