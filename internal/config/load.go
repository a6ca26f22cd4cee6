package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RALPH_LOOP"

// LoadOptions selects the files Load reads. Empty paths are skipped.
type LoadOptions struct {
	UserFile    string
	ProjectFile string
}

// DefaultLoadOptions returns the standard file locations for workDir.
func DefaultLoadOptions(workDir string) (LoadOptions, error) {
	userFile, err := UserSettingsFile()
	if err != nil {
		return LoadOptions{}, fmt.Errorf("resolving user settings file: %w", err)
	}
	return LoadOptions{UserFile: userFile, ProjectFile: ProjectFile(workDir)}, nil
}

func newViperConfig(enableEnv bool) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if enableEnv {
		bindEnvKeys(v)
	}
	SetDefaults(v)
	return v
}

// bindEnvKeys binds every leaf key of Config to its RALPH_LOOP_* variable,
// e.g. logging.max_size_mb to RALPH_LOOP_LOGGING_MAX_SIZE_MB.
func bindEnvKeys(v *viper.Viper) {
	replacer := strings.NewReplacer(".", "_")
	for _, key := range collectLeafPaths(reflect.TypeOf(Config{}), "") {
		envVar := envPrefix + "_" + strings.ToUpper(replacer.Replace(key))
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("config: BindEnv(%q, %q) failed: %v", key, envVar, err))
		}
	}
}

// collectLeafPaths walks a struct type and returns the dotted mapstructure
// path of every non-struct field.
func collectLeafPaths(t reflect.Type, prefix string) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var paths []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		fullPath := tag
		if prefix != "" {
			fullPath = prefix + "." + tag
		}

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			paths = append(paths, collectLeafPaths(ft, fullPath)...)
		} else {
			paths = append(paths, fullPath)
		}
	}
	return paths
}

// Load reads the configured files and the environment and returns the
// validated configuration. Missing files are not an error.
func Load(opts LoadOptions) (*Config, error) {
	v := newViperConfig(true)

	var merged []string
	for _, path := range []string{opts.UserFile, opts.ProjectFile} {
		if path == "" {
			continue
		}
		raw, err := readFileToMap(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(raw); err != nil {
			return nil, fmt.Errorf("merging config %s: %w", path, err)
		}
		merged = append(merged, path)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	cfg.Files = merged
	return cfg, nil
}

// ReadFromString parses a YAML document on top of the defaults, ignoring
// the environment. Useful for testing.
func ReadFromString(str string) (*Config, error) {
	v := newViperConfig(false)
	if str != "" {
		if err := validateYAMLStrict(str, &Config{}); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		m := map[string]any{}
		if err := yaml.Unmarshal([]byte(str), &m); err != nil {
			return nil, fmt.Errorf("parsing config from string: %w", err)
		}
		if err := v.MergeConfigMap(m); err != nil {
			return nil, fmt.Errorf("merging config from string: %w", err)
		}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readFileToMap reads a YAML file after checking it against the Config
// schema, so misspelled keys are reported instead of silently ignored.
func readFileToMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m := map[string]any{}
	if len(data) == 0 {
		return m, nil
	}
	if err := validateYAMLStrict(string(data), &Config{}); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

func validateYAMLStrict(yamlContent string, schema any) error {
	dec := yaml.NewDecoder(strings.NewReader(yamlContent))
	dec.KnownFields(true)
	if err := dec.Decode(schema); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
