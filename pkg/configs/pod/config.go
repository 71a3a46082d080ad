// Package pod is the configuration of a data pod process.
//
//	ingredients: ./ingredients.yaml  # input manifest
//	full_course: ./full_course.yaml  # output manifest
//	storage:
//	  s3:
//	    endpoint: minio:9000
//	    region: us-east-1
//	    secure: false
//	server:
//	  port: 8080
//	  loglevel: info
//
// Relative manifest paths are resolved from the directory of the configuration file.
package pod

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opst/datapod/pkg/storage"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoManifest      = errors.New("pod: no manifest is configured")
	ErrInvalidPort     = errors.New("pod: server port is invalid")
	ErrInvalidLogLevel = errors.New("pod: server loglevel is invalid")
	ErrInvalidEndpoint = errors.New("pod: s3 endpoint is invalid")
)

const (
	DefaultPort     = 8080
	DefaultLogLevel = "info"
)

var logLevels = []string{"debug", "info", "warn", "error", "off"}

type S3 struct {
	// Endpoint is host[:port] of the object storage. Empty means the default of the driver.
	Endpoint string

	Region string

	// Secure tells to use https. nil means the default of the driver.
	Secure *bool
}

func (s *S3) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Endpoint string `yaml:"endpoint"`
		Region   string `yaml:"region"`
		Secure   *bool  `yaml:"secure"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if strings.Contains(raw.Endpoint, "://") || strings.Contains(raw.Endpoint, "/") {
		return fmt.Errorf("%w: should be host[:port], not URL: %s", ErrInvalidEndpoint, raw.Endpoint)
	}

	s.Endpoint = raw.Endpoint
	s.Region = raw.Region
	s.Secure = raw.Secure
	return nil
}

// Options for "s3" protocol.
func (s S3) Options() storage.Options {
	opts := storage.Options{}
	if s.Endpoint != "" {
		opts[storage.S3Endpoint] = s.Endpoint
	}
	if s.Region != "" {
		opts[storage.S3Region] = s.Region
	}
	if s.Secure != nil {
		opts[storage.S3Secure] = strconv.FormatBool(*s.Secure)
	}
	return opts
}

type Storage struct {
	S3 S3 `yaml:"s3"`
}

type Server struct {
	Port     int
	LogLevel string
}

func (s *Server) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Port     *int   `yaml:"port"`
		LogLevel string `yaml:"loglevel"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	s.Port = DefaultPort
	if raw.Port != nil {
		if *raw.Port <= 0 || 65535 < *raw.Port {
			return fmt.Errorf("%w: %d", ErrInvalidPort, *raw.Port)
		}
		s.Port = *raw.Port
	}

	s.LogLevel = DefaultLogLevel
	if raw.LogLevel != "" {
		lv := strings.ToLower(raw.LogLevel)
		found := false
		for _, l := range logLevels {
			found = found || l == lv
		}
		if !found {
			return fmt.Errorf("%w: %s (should be one of %v)", ErrInvalidLogLevel, raw.LogLevel, logLevels)
		}
		s.LogLevel = lv
	}
	return nil
}

type Config struct {
	// Ingredients is the path to the input manifest.
	Ingredients string

	// FullCourse is the path to the output manifest.
	FullCourse string

	Storage Storage

	Server Server
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Ingredients string  `yaml:"ingredients"`
		FullCourse  string  `yaml:"full_course"`
		Storage     Storage `yaml:"storage"`
		Server      *Server `yaml:"server"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Ingredients == "" && raw.FullCourse == "" {
		return fmt.Errorf("%w: set ingredients, full_course or both", ErrNoManifest)
	}

	c.Ingredients = raw.Ingredients
	c.FullCourse = raw.FullCourse
	c.Storage = raw.Storage
	if raw.Server != nil {
		c.Server = *raw.Server
	} else {
		c.Server = Server{Port: DefaultPort, LogLevel: DefaultLogLevel}
	}
	return nil
}

// Files are paths of the configured manifests.
func (c Config) Files() []string {
	files := []string{}
	for _, f := range []string{c.Ingredients, c.FullCourse} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// Load loads configuration from the file.
//
// Relative manifest paths are resolved from the directory of the file.
func Load(file string) (Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	cfg := Config{}
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: %s is empty", ErrNoManifest, file)
		}
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}

	dir := filepath.Dir(file)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	cfg.Ingredients = resolve(cfg.Ingredients)
	cfg.FullCourse = resolve(cfg.FullCourse)
	return cfg, nil
}
