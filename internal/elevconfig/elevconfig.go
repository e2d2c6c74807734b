package elevconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"

	"github.com/szymonmasternak/area51-elevator/internal/elevaccess"
	"github.com/szymonmasternak/area51-elevator/internal/elevconsts"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	ENV_DURATION      = "AREA51_DURATION"
	ENV_TIME_ON_FLOOR = "AREA51_TIME_ON_FLOOR"
	ENV_WORK_DURATION = "AREA51_WORK_DURATION"
	ENV_LOG_LEVEL     = "AREA51_LOG_LEVEL"
	ENV_SEED          = "AREA51_SEED"
)

// Clearance is a clearance level as written in a config file, e.g. "top_secret".
type Clearance elevconsts.Clearance

func (c *Clearance) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	level, err := elevconsts.ParseClearance(text)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = Clearance(level)
	return nil
}

func (c Clearance) MarshalYAML() (any, error) {
	return c.Level().String(), nil
}

func (c Clearance) Level() elevconsts.Clearance {
	return elevconsts.Clearance(c)
}

type AgentConfig struct {
	Name      string    `yaml:"name"`
	Clearance Clearance `yaml:"clearance"`
}

type Config struct {
	Floors       []string             `yaml:"floors"`
	Access       map[string]Clearance `yaml:"access"`
	TimeOnFloor  time.Duration        `yaml:"time_on_floor"`
	IdleTick     time.Duration        `yaml:"idle_tick"`
	WorkDuration time.Duration        `yaml:"work_duration"`
	// Zero runs until interrupted
	Duration time.Duration `yaml:"duration"`
	// Zero seeds every agent from the clock
	Seed     int64         `yaml:"seed"`
	LogLevel string        `yaml:"log_level"`
	Agents   []AgentConfig `yaml:"agents"`
}

var defaultConfig = Config{
	Floors: []string{
		elevconsts.GroundFloor,
		elevconsts.NuclearFloor,
		elevconsts.ExperimentalFloor,
		elevconsts.AlienFloor,
	},
	Access: map[string]Clearance{
		elevconsts.GroundFloor:       Clearance(elevconsts.Confidential),
		elevconsts.NuclearFloor:      Clearance(elevconsts.Secret),
		elevconsts.ExperimentalFloor: Clearance(elevconsts.TopSecret),
		elevconsts.AlienFloor:        Clearance(elevconsts.TopSecret),
	},
	TimeOnFloor:  elevconsts.TIME_ON_FLOOR,
	IdleTick:     elevconsts.IDLE_TICK,
	WorkDuration: elevconsts.WORK_DURATION,
	Duration:     elevconsts.RUN_DURATION,
	LogLevel:     "info",
	Agents: []AgentConfig{
		{Name: "Smith", Clearance: Clearance(elevconsts.Confidential)},
		{Name: "Jones", Clearance: Clearance(elevconsts.Confidential)},
		{Name: "Lazar", Clearance: Clearance(elevconsts.Confidential)},
	},
}

// Default returns a private copy of the built-in configuration.
func Default() *Config {
	cfg, err := defaultConfig.Clone()
	if err != nil {
		panic(fmt.Sprintf("copying built-in configuration: %v", err))
	}
	return cfg
}

func (c *Config) Clone() (*Config, error) {
	clone := &Config{}
	if err := deepcopy.Copy(clone, c); err != nil {
		return nil, fmt.Errorf("copying configuration: %w", err)
	}
	return clone, nil
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value; a file that sets "access" replaces the whole table.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %v: %w", path, err)
	}
	defer file.Close()

	access := cfg.Access
	cfg.Access = nil

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding config %v: %w", path, err)
	}
	if cfg.Access == nil {
		cfg.Access = access
	}
	return cfg, nil
}

// ApplyEnv overlays AREA51_* settings, first from envFile (if not empty) and
// then from the process environment.
func ApplyEnv(cfg *Config, envFile string) error {
	values := make(map[string]string)
	if envFile != "" {
		fileValues, err := godotenv.Read(envFile)
		if err != nil {
			return fmt.Errorf("reading env file %v: %w", envFile, err)
		}
		values = fileValues
	}
	for _, key := range []string{ENV_DURATION, ENV_TIME_ON_FLOOR, ENV_WORK_DURATION, ENV_LOG_LEVEL, ENV_SEED} {
		if value, ok := os.LookupEnv(key); ok {
			values[key] = value
		}
	}

	durations := map[string]*time.Duration{
		ENV_DURATION:      &cfg.Duration,
		ENV_TIME_ON_FLOOR: &cfg.TimeOnFloor,
		ENV_WORK_DURATION: &cfg.WorkDuration,
	}
	for key, target := range durations {
		value, ok := values[key]
		if !ok {
			continue
		}
		duration, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%v: %w", key, err)
		}
		*target = duration
	}

	if value, ok := values[ENV_LOG_LEVEL]; ok {
		cfg.LogLevel = value
	}
	if value, ok := values[ENV_SEED]; ok {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%v: %w", ENV_SEED, err)
		}
		cfg.Seed = seed
	}
	return nil
}

func (c *Config) Validate() error {
	floors, err := c.FloorSet()
	if err != nil {
		return err
	}
	if _, err := c.Policy(floors); err != nil {
		return err
	}

	if c.TimeOnFloor <= 0 {
		return fmt.Errorf("%w: time_on_floor must be positive, got %v", ErrInvalidConfig, c.TimeOnFloor)
	}
	if c.IdleTick <= 0 {
		return fmt.Errorf("%w: idle_tick must be positive, got %v", ErrInvalidConfig, c.IdleTick)
	}
	if c.WorkDuration < 0 {
		return fmt.Errorf("%w: work_duration must not be negative, got %v", ErrInvalidConfig, c.WorkDuration)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %v", ErrInvalidConfig, c.Duration)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}

	names := make(map[string]bool)
	for i, agent := range c.Agents {
		if !agent.Clearance.Level().Valid() {
			return fmt.Errorf("%w: agent %d (%q) has no valid clearance", ErrInvalidConfig, i, agent.Name)
		}
		if agent.Name == "" {
			continue
		}
		if names[agent.Name] {
			return fmt.Errorf("%w: agent name %q used twice", ErrInvalidConfig, agent.Name)
		}
		names[agent.Name] = true
	}
	return nil
}

func (c *Config) FloorSet() (*floorset.FloorSet, error) {
	floors, err := floorset.FromStrings(c.Floors)
	if err != nil {
		return nil, fmt.Errorf("%w: floors: %w", ErrInvalidConfig, err)
	}
	return floors, nil
}

func (c *Config) Policy(floors *floorset.FloorSet) (*elevaccess.Policy, error) {
	required := make(map[floorset.Floor]elevconsts.Clearance, len(c.Access))
	for floor, clearance := range c.Access {
		required[floorset.Floor(floor)] = clearance.Level()
	}
	policy, err := elevaccess.NewPolicy(floors, required)
	if err != nil {
		return nil, fmt.Errorf("%w: access: %w", ErrInvalidConfig, err)
	}
	return policy, nil
}
