package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/viper"

	"github.com/hyperledger-labs/yui-lane-relayer/core"
	"github.com/hyperledger-labs/yui-lane-relayer/relayers"
)

const (
	defaultRelayInterval = 3 * time.Second
	defaultStallTimeout  = 5 * time.Minute
	defaultBlockInterval = time.Second
)

type Config struct {
	Global   GlobalConfig   `yaml:"global" json:"global" mapstructure:"global"`
	Lanes    []LaneConfig   `yaml:"lanes" json:"lanes" mapstructure:"lanes"`
	Relayers RelayersConfig `yaml:"relayers" json:"relayers" mapstructure:"relayers"`

	// ConfigPath is the file the config has been loaded from
	ConfigPath string `yaml:"-" json:"-" mapstructure:"-"`
}

type GlobalConfig struct {
	Timeout string       `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	Logger  LoggerConfig `yaml:"logger" json:"logger" mapstructure:"logger"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level"`
	Format string `yaml:"format" json:"format" mapstructure:"format"`
	Output string `yaml:"output" json:"output" mapstructure:"output"`
}

// LaneConfig configures the race of a single lane.
type LaneConfig struct {
	ID            string              `yaml:"id" json:"id" mapstructure:"id"`
	Module        string              `yaml:"module" json:"module" mapstructure:"module"`
	Strategy      core.StrategyCfg    `yaml:"strategy" json:"strategy" mapstructure:"strategy"`
	Limits        core.DeliveryLimits `yaml:"limits" json:"limits" mapstructure:"limits"`
	RelayInterval string              `yaml:"relay_interval" json:"relay_interval" mapstructure:"relay_interval"`
	StallTimeout  string              `yaml:"stall_timeout" json:"stall_timeout" mapstructure:"stall_timeout"`
	// Reward is the reward per message the relayer bids for the lane.
	Reward string          `yaml:"reward" json:"reward" mapstructure:"reward"`
	Mock   MockChainConfig `yaml:"mock" json:"mock" mapstructure:"mock"`
}

// MockChainConfig configures the simulated chains of a lane.
type MockChainConfig struct {
	BlockInterval    string `yaml:"block_interval" json:"block_interval" mapstructure:"block_interval"`
	MessagesPerBlock uint64 `yaml:"messages_per_block" json:"messages_per_block" mapstructure:"messages_per_block"`
	// MaxMessages stops sending once reached; 0 means no limit.
	MaxMessages    uint64 `yaml:"max_messages" json:"max_messages" mapstructure:"max_messages"`
	FinalityDelay  uint64 `yaml:"finality_delay" json:"finality_delay" mapstructure:"finality_delay"`
	DispatchWeight uint64 `yaml:"dispatch_weight" json:"dispatch_weight" mapstructure:"dispatch_weight"`
	MessageSize    uint32 `yaml:"message_size" json:"message_size" mapstructure:"message_size"`
	MessageReward  int64  `yaml:"message_reward" json:"message_reward" mapstructure:"message_reward"`
	// DropSubmissions makes the target accept delivery transactions without ever including them.
	DropSubmissions bool `yaml:"drop_submissions" json:"drop_submissions" mapstructure:"drop_submissions"`
}

// RelayersConfig configures the registration of the relayer and the rotation of lane relayers.
type RelayersConfig struct {
	DBDir string `yaml:"db_dir" json:"db_dir" mapstructure:"db_dir"`
	// Address is the account of the relayer.
	Address string `yaml:"address" json:"address" mapstructure:"address"`
	// ValidTill is the last block of the registration of the relayer.
	ValidTill                 uint64 `yaml:"valid_till" json:"valid_till" mapstructure:"valid_till"`
	ActiveSetCapacity         uint32 `yaml:"active_set_capacity" json:"active_set_capacity" mapstructure:"active_set_capacity"`
	NextSetCapacity           uint32 `yaml:"next_set_capacity" json:"next_set_capacity" mapstructure:"next_set_capacity"`
	EpochLength               uint64 `yaml:"epoch_length" json:"epoch_length" mapstructure:"epoch_length"`
	RequiredStake             string `yaml:"required_stake" json:"required_stake" mapstructure:"required_stake"`
	RequiredRegistrationLease uint64 `yaml:"required_registration_lease" json:"required_registration_lease" mapstructure:"required_registration_lease"`
}

func DefaultConfig() Config {
	return Config{
		Global:   newDefaultGlobalConfig(),
		Lanes:    []LaneConfig{DefaultLaneConfig("00000000")},
		Relayers: newDefaultRelayersConfig(),
	}
}

// newDefaultGlobalConfig returns a global config with defaults set
func newDefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Timeout: "10s",
		Logger: LoggerConfig{
			Level:  "INFO",
			Format: "json",
			Output: "stderr",
		},
	}
}

func newDefaultRelayersConfig() RelayersConfig {
	params := relayers.DefaultParams()
	return RelayersConfig{
		DBDir:                     "data",
		Address:                   sdk.AccAddress("yui-lane-relayer-000").String(),
		ValidTill:                 1_000_000,
		ActiveSetCapacity:         params.ActiveSetCapacity,
		NextSetCapacity:           params.NextSetCapacity,
		EpochLength:               params.EpochLength,
		RequiredStake:             params.RequiredStake.String(),
		RequiredRegistrationLease: params.RequiredRegistrationLease,
	}
}

func DefaultLaneConfig(id string) LaneConfig {
	return LaneConfig{
		ID:       id,
		Module:   "mock",
		Strategy: core.StrategyCfg{Type: core.StrategyTypeDelivery},
		Limits: core.DeliveryLimits{
			MaxUnrewardedRelayerEntriesAtTarget: 16,
			MaxUnconfirmedNoncesAtTarget:        64,
			MaxMessagesInSingleBatch:            8,
			MaxMessagesWeightInSingleBatch:      8_000,
			MaxMessagesSizeInSingleBatch:        8_192,
		},
		RelayInterval: defaultRelayInterval.String(),
		StallTimeout:  defaultStallTimeout.String(),
		Reward:        "100",
		Mock: MockChainConfig{
			BlockInterval:    defaultBlockInterval.String(),
			MessagesPerBlock: 2,
			FinalityDelay:    2,
			DispatchWeight:   1_000,
			MessageSize:      256,
			MessageReward:    10,
		},
	}
}

// ConfigPath returns the path of the config file under homePath.
func ConfigPath(homePath string) string {
	return filepath.Join(homePath, "config", "config.yaml")
}

// Load reads the config file under homePath. Lanes are not merged with the default lanes.
func Load(homePath string) (*Config, error) {
	cfgPath := ConfigPath(homePath)

	v := viper.New()
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %v", cfgPath, err)
	}

	cfg := Config{
		Global:   newDefaultGlobalConfig(),
		Relayers: newDefaultRelayersConfig(),
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %v", cfgPath, err)
	}
	cfg.ConfigPath = cfgPath
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %v", cfgPath, err)
	}
	return &cfg, nil
}

// Save writes the config as YAML to the given path.
func (c Config) Save(cfgPath string) error {
	if err := os.MkdirAll(filepath.Dir(cfgPath), os.ModePerm); err != nil {
		return err
	}
	bz, err := MarshalYAML(c)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgPath, bz, 0600)
}

func (c Config) Validate() error {
	if _, err := c.Global.GetTimeout(); err != nil {
		return fmt.Errorf("invalid global timeout: %v", err)
	}
	seen := make(map[string]bool)
	for _, lane := range c.Lanes {
		if seen[lane.ID] {
			return fmt.Errorf("duplicate lane '%v'", lane.ID)
		}
		seen[lane.ID] = true
		if err := lane.Validate(); err != nil {
			return fmt.Errorf("invalid lane '%v': %v", lane.ID, err)
		}
	}
	if _, err := c.Relayers.GetAddress(); err != nil {
		return fmt.Errorf("invalid relayer address: %v", err)
	}
	params, err := c.Relayers.Params()
	if err != nil {
		return err
	}
	return params.Validate()
}

// GetLane returns the config of the lane with the given id.
func (c Config) GetLane(id string) (LaneConfig, error) {
	for _, lane := range c.Lanes {
		if lane.ID == id {
			return lane, nil
		}
	}
	return LaneConfig{}, fmt.Errorf("lane '%v' not found", id)
}

func (c GlobalConfig) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Timeout)
}

func (c LaneConfig) Validate() error {
	if c.ID == "" {
		return errors.New("lane id is empty")
	}
	if c.Module == "" {
		return errors.New("module is empty")
	}
	if c.Strategy.Type == core.StrategyTypeDelivery {
		if err := c.Limits.Validate(); err != nil {
			return err
		}
	}
	if _, err := c.GetRelayInterval(); err != nil {
		return fmt.Errorf("invalid relay interval: %v", err)
	}
	if _, err := c.GetStallTimeout(); err != nil {
		return fmt.Errorf("invalid stall timeout: %v", err)
	}
	if _, err := c.GetReward(); err != nil {
		return err
	}
	if _, err := c.Mock.GetBlockInterval(); err != nil {
		return fmt.Errorf("invalid block interval: %v", err)
	}
	return nil
}

func (c LaneConfig) GetRelayInterval() (time.Duration, error) {
	return parseDurationOr(c.RelayInterval, defaultRelayInterval)
}

// GetStallTimeout returns the time to wait for submitted nonces to appear at the target.
func (c LaneConfig) GetStallTimeout() (time.Duration, error) {
	return parseDurationOr(c.StallTimeout, defaultStallTimeout)
}

func (c LaneConfig) GetReward() (math.Int, error) {
	if c.Reward == "" {
		return math.ZeroInt(), nil
	}
	reward, ok := math.NewIntFromString(c.Reward)
	if !ok || reward.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid reward '%v'", c.Reward)
	}
	return reward, nil
}

// GetBlockInterval returns 0 if the chains produce blocks only on demand.
func (c MockChainConfig) GetBlockInterval() (time.Duration, error) {
	if c.BlockInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.BlockInterval)
}

func (c RelayersConfig) GetAddress() (sdk.AccAddress, error) {
	return sdk.AccAddressFromBech32(c.Address)
}

// GetDBDir returns the database directory, relative to homePath unless it is absolute.
func (c RelayersConfig) GetDBDir(homePath string) string {
	if filepath.IsAbs(c.DBDir) {
		return c.DBDir
	}
	return filepath.Join(homePath, c.DBDir)
}

func (c RelayersConfig) Params() (relayers.Params, error) {
	stake, ok := math.NewIntFromString(c.RequiredStake)
	if !ok {
		return relayers.Params{}, fmt.Errorf("invalid required stake '%v'", c.RequiredStake)
	}
	return relayers.Params{
		ActiveSetCapacity:         c.ActiveSetCapacity,
		NextSetCapacity:           c.NextSetCapacity,
		EpochLength:               c.EpochLength,
		RequiredStake:             stake,
		RequiredRegistrationLease: c.RequiredRegistrationLease,
	}, nil
}

func parseDurationOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
