package ops

import (
	"os"

	"anttrader/internal/bus"
	"anttrader/internal/model"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

const (
	defaultBusName         = "MessageBus"
	defaultApplicationName = "anttrader"
	defaultProfilerAddress = "http://localhost:4040"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	TraderID  string          `json:"trader_id"`
	Bus       BusConfig       `json:"bus"`
	Bridge    BridgeConfig    `json:"bridge"`
	Profiling ProfilingConfig `json:"profiling"`
}

// BusConfig names the bus and carries its free-form options.
type BusConfig struct {
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// BridgeConfig lists the topics forwarded to the async listener.
type BridgeConfig struct {
	Topics []string `json:"topics"`
}

// ProfilingConfig controls the continuous profiler.
type ProfilingConfig struct {
	Enabled         bool   `json:"enabled"`
	ServerAddress   string `json:"server_address"`
	ApplicationName string `json:"application_name"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	TraderID     model.TraderID
	BusName      string
	BusConfig    map[string]any
	BridgeTopics []bus.Topic
	Profiling    ProfilingConfig
}

// Load reads a JSON config file. An empty path yields the defaults.
func Load(path string) (Loaded, error) {
	if path == "" {
		return resolve(FileConfig{})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config").With("path", path)
	}

	loaded, err := Parse(data)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "parse config").With("path", path)
	}

	return loaded, nil
}

// Parse decodes and resolves a JSON config document.
func Parse(data []byte) (Loaded, error) {
	var cfg FileConfig
	if err := sonic.ConfigStd.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "unmarshal config")
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	traderID := model.DefaultTraderID
	if cfg.TraderID != "" {
		id, err := model.NewTraderID(cfg.TraderID)
		if err != nil {
			return Loaded{}, err
		}
		traderID = id
	}

	busName := cfg.Bus.Name
	if busName == "" {
		busName = defaultBusName
	}

	topics := make([]bus.Topic, 0, len(cfg.Bridge.Topics))
	for _, name := range cfg.Bridge.Topics {
		topic, err := bus.NewTopic(name)
		if err != nil {
			return Loaded{}, errors.Wrapf(err, "bridge topic %q", name)
		}
		topics = append(topics, topic)
	}

	return Loaded{
		TraderID:     traderID,
		BusName:      busName,
		BusConfig:    cfg.Bus.Config,
		BridgeTopics: topics,
		Profiling:    resolveProfiling(cfg.Profiling),
	}, nil
}

func resolveProfiling(cfg ProfilingConfig) ProfilingConfig {
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = defaultProfilerAddress
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = defaultApplicationName
	}
	return cfg
}
