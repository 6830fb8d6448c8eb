package bridge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pgs62/juliabridge/errors"
)

// ExeEnv, when set, overrides the configured executable path. It is
// read after the file so an operator can redirect a deployed config
// without editing it.
const ExeEnv = "JULIABRIDGE_EXE"

// Duration is a time.Duration that unmarshals from YAML strings like
// "250ms" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config collects every tunable of the bridge. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// ExePath pins the worker executable. Empty means search $PATH and
	// then InstallDirs.
	ExePath string `yaml:"exe_path"`

	// InstallDirs are scanned for the newest julia installation when
	// the executable is not on $PATH.
	InstallDirs []string `yaml:"install_dirs"`

	// TempDir hosts the exchange files. Empty means the system temp
	// directory.
	TempDir string `yaml:"temp_dir"`

	// StringLengthLimit rejects decoded strings of this many characters
	// or more, modelling the host cell's capacity. Zero disables it.
	StringLengthLimit int `yaml:"string_length_limit"`

	// AllowNesting permits arrays of arrays in decoded results.
	AllowNesting bool `yaml:"allow_nesting"`

	// VectorAsColumn materializes 1-D results as N x 1 grids.
	VectorAsColumn bool `yaml:"vector_as_column"`

	// Int64AsDouble down-casts 64-bit integers when this process serves
	// results, for hosts without a 64-bit integer type.
	Int64AsDouble bool `yaml:"int64_as_double"`

	// PollInterval is the fallback sleep while waiting on the flag.
	PollInterval Duration `yaml:"poll_interval"`

	// StartupTimeout bounds how long Launch waits for the worker's
	// bootstrap to complete.
	StartupTimeout Duration `yaml:"startup_timeout"`

	// Minimized silences the launched worker's stdio.
	Minimized bool `yaml:"minimized"`
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   Duration(20 * time.Millisecond),
		StartupTimeout: Duration(60 * time.Second),
		InstallDirs:    defaultInstallDirs(),
	}
}

func defaultInstallDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"/opt", "/usr/local"}
	}
	return []string{home + "/.julia/juliaup", home + "/AppData/Local/Programs", "/opt", "/usr/local"}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig, then
// applies the JULIABRIDGE_EXE override. An empty path skips the file
// and still honors the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.IO(errors.PhaseLaunch, "LoadConfig", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.InvalidData(errors.PhaseLaunch, "LoadConfig",
				"malformed config: "+err.Error(), path)
		}
	}
	if exe := os.Getenv(ExeEnv); exe != "" {
		cfg.ExePath = exe
	}
	return cfg, nil
}
