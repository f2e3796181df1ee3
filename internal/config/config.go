// Package config resolves run settings from profile presets, an optional
// YAML file and CORPUS_* environment variables. Command-line flags are
// applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/imgcorpus/internal/corpusdoc"
	"github.com/AnyUserName/imgcorpus/internal/profile"
	"github.com/AnyUserName/imgcorpus/internal/storage"
	"github.com/AnyUserName/imgcorpus/internal/transform"
)

// ErrInvalidOption marks a bad flag, environment or config file value.
var ErrInvalidOption = errors.New("invalid option")

// Config is the resolved configuration of one run.
type Config struct {
	Profile     string
	Transform   transform.Config
	Quality     int
	Workers     int
	LocatorBase string
	MetricsFile string
	S3          storage.S3Config
}

// File is the YAML shape. Pointer fields distinguish "unset" from zero.
type File struct {
	Profile     string  `yaml:"profile"`
	Rows        *int    `yaml:"rows"`
	Columns     *int    `yaml:"columns"`
	Aspect      *bool   `yaml:"aspect"`
	Color       string  `yaml:"color"`
	Type        string  `yaml:"type"`
	Quality     *int    `yaml:"quality"`
	Workers     *int    `yaml:"workers"`
	LocatorBase string  `yaml:"locator_base"`
	MetricsFile string  `yaml:"metrics_file"`
	S3          *S3File `yaml:"s3"`
}

// S3File is the s3 section of the YAML file. Secrets belong in the
// environment, not here.
type S3File struct {
	Endpoint string `yaml:"endpoint"`
	UseSSL   *bool  `yaml:"use_ssl"`
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ReadFile parses a YAML config file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidOption, path, err)
	}
	return &f, nil
}

// Load resolves everything below the command line. path may be empty.
// profileName, when non-empty, wins over the file and environment.
func Load(path, profileName string) (*Config, error) {
	f := &File{}
	if path != "" {
		var err error
		if f, err = ReadFile(path); err != nil {
			return nil, err
		}
	}

	name := profile.DefaultName
	if f.Profile != "" {
		name = f.Profile
	}
	if v, ok := os.LookupEnv("CORPUS_PROFILE"); ok && v != "" {
		name = v
	}
	if profileName != "" {
		name = profileName
	}
	p, err := profile.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}

	cfg := &Config{
		Profile:     p.Name,
		Transform:   p.Transform,
		Workers:     1,
		LocatorBase: corpusdoc.DefaultLocatorBase,
	}
	if err := cfg.applyFile(f); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(f *File) error {
	if f.Rows != nil {
		c.Transform.Rows = *f.Rows
	}
	if f.Columns != nil {
		c.Transform.Columns = *f.Columns
	}
	if f.Aspect != nil {
		c.Transform.KeepAspect = *f.Aspect
	}
	if f.Color != "" {
		m, err := transform.ParseColorMode(f.Color)
		if err != nil {
			return fmt.Errorf("%w: config color: %v", ErrInvalidOption, err)
		}
		c.Transform.Color = m
	}
	if f.Type != "" {
		c.Transform.Type = f.Type
	}
	if f.Quality != nil {
		c.Quality = *f.Quality
	}
	if f.Workers != nil {
		c.Workers = *f.Workers
	}
	if f.LocatorBase != "" {
		c.LocatorBase = f.LocatorBase
	}
	if f.MetricsFile != "" {
		c.MetricsFile = f.MetricsFile
	}
	if f.S3 != nil {
		c.S3.Endpoint = f.S3.Endpoint
		if f.S3.UseSSL != nil {
			c.S3.UseSSL = *f.S3.UseSSL
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error
	setInt := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" || err != nil {
			return
		}
		n, perr := strconv.Atoi(strings.TrimSpace(v))
		if perr != nil {
			err = fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidOption, key, v)
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" || err != nil {
			return
		}
		b, perr := strconv.ParseBool(strings.TrimSpace(v))
		if perr != nil {
			err = fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidOption, key, v)
			return
		}
		*dst = b
	}
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setInt("CORPUS_ROWS", &c.Transform.Rows)
	setInt("CORPUS_COLUMNS", &c.Transform.Columns)
	setBool("CORPUS_ASPECT", &c.Transform.KeepAspect)
	setString("CORPUS_TYPE", &c.Transform.Type)
	setInt("CORPUS_QUALITY", &c.Quality)
	setInt("CORPUS_WORKERS", &c.Workers)
	setString("CORPUS_LOCATOR_BASE", &c.LocatorBase)
	setString("CORPUS_METRICS_FILE", &c.MetricsFile)
	setString("CORPUS_S3_ENDPOINT", &c.S3.Endpoint)
	setString("CORPUS_S3_ACCESS_KEY", &c.S3.AccessKey)
	setString("CORPUS_S3_SECRET_KEY", &c.S3.SecretKey)
	setBool("CORPUS_S3_USE_SSL", &c.S3.UseSSL)
	if err != nil {
		return err
	}

	if v, ok := os.LookupEnv("CORPUS_COLOR"); ok && v != "" {
		m, perr := transform.ParseColorMode(v)
		if perr != nil {
			return fmt.Errorf("%w: CORPUS_COLOR: %v", ErrInvalidOption, perr)
		}
		c.Transform.Color = m
	}
	return nil
}

// Validate normalizes the output type and checks ranges. Errors wrap
// ErrInvalidOption.
func (c *Config) Validate() error {
	t, err := transform.NormalizeType(c.Transform.Type)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	c.Transform.Type = t
	if err := c.Transform.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidOption, c.Workers)
	}
	if c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("%w: quality must be 0-100, got %d", ErrInvalidOption, c.Quality)
	}
	return nil
}
