// Package config loads and writes Escanor's YAML configuration file:
// the database/network/server sections spec.md §6 names, plus the
// cluster topology the original never had to express because its CLI
// variants passed Raft identity as flags (see SPEC_FULL.md §3).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Database holds the log-compaction/persistence tuning knobs.
type Database struct {
	SaveAfter           int `yaml:"save_after"`
	Mutations           int `yaml:"mutations"`
	SnapshotIntervalOps int `yaml:"snapshot_interval_ops"`
}

// Network holds the client-facing RESP listener settings.
type Network struct {
	Port           int    `yaml:"port"`
	Bind           string `yaml:"bind"`
	MaxPacket      int    `yaml:"max_packet"`
	MaxConnections int    `yaml:"max_connections"`
}

// Server holds optional session-gate settings.
type Server struct {
	RequireAuth string `yaml:"require_auth,omitempty"`
}

// Peer is one statically configured cluster member, consulted only
// when this node bootstraps a fresh cluster.
type Peer struct {
	ID      string `yaml:"id"`
	Address string `yaml:"address"`
}

// Cluster holds this node's Raft identity and its view of the initial
// cluster membership. Bootstrap marks the single node that seeds a
// fresh cluster via raft.BootstrapCluster (SPEC_FULL.md §7); every
// other node starts as a lone Raft instance waiting to be Join-ed by
// the leader.
type Cluster struct {
	NodeID    string `yaml:"node_id"`
	Bind      string `yaml:"bind"`
	DataDir   string `yaml:"data_dir"`
	Bootstrap bool   `yaml:"bootstrap"`
	Peers     []Peer `yaml:"peers,omitempty"`
}

// Conf is the full configuration file.
type Conf struct {
	Database Database `yaml:"database"`
	Network  Network  `yaml:"network"`
	Server   Server   `yaml:"server,omitempty"`
	Cluster  Cluster  `yaml:"cluster"`
}

// Default returns the documented default configuration: port 6379,
// bind 127.0.0.1, a single-node cluster bootstrapped from itself.
func Default() Conf {
	return Conf{
		Database: Database{
			SaveAfter:           60,
			Mutations:           4,
			SnapshotIntervalOps: 1000,
		},
		Network: Network{
			Port:           6379,
			Bind:           "127.0.0.1",
			MaxPacket:      10,
			MaxConnections: 0,
		},
		Cluster: Cluster{
			NodeID:    "node-1",
			Bind:      "127.0.0.1:7946",
			DataDir:   "./data",
			Bootstrap: true,
		},
	}
}

// Load reads the YAML config at path. If the file is missing and
// reset is true, it writes and returns the documented default; if the
// file is missing and reset is false, Load returns an error rather
// than panicking the way the original CLI did.
func Load(path string, reset bool) (Conf, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return Conf{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if !reset {
			return Conf{}, fmt.Errorf("config: %s not found (pass --reset to create it)", path)
		}
		def := Default()
		if err := Write(path, def); err != nil {
			return Conf{}, err
		}
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Conf{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var conf Conf
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return Conf{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return conf, nil
}

// Write serializes conf to path, creating or truncating it.
func Write(path string, conf Conf) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
