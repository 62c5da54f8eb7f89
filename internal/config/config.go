package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used by `ufs start` when -c is not given.
const DefaultPath = "./config/default.toml"

var (
	ErrMissingServerConfig = errors.New("missing [server_config] section")
	ErrMissingKey          = errors.New("missing key")
	ErrInvalid             = errors.New("invalid config")
)

// RuntimeConfig is resolved once at startup and never mutated afterwards.
type RuntimeConfig struct {
	FSRoot string       `json:"fs_root"`
	Server ServerConfig `json:"server_config"`
	TLS    TLSConfig    `json:"tls_config"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Host string `json:"host"`
	IP   string `json:"ip"`
	Port uint16 `json:"port"`
}

// TLSConfig is parsed but not used by the server yet.
type TLSConfig struct {
	Enable          bool    `toml:"enable" yaml:"enable" json:"enable"`
	CertificatePath *string `toml:"certificate_path" yaml:"certificate_path" json:"certificate_path,omitempty"`
	KeyPath         *string `toml:"key_path" yaml:"key_path" json:"key_path,omitempty"`
}

// fileConfig mirrors the on-disk layout; pointers tell missing keys from zero values.
type fileConfig struct {
	FSRoot string     `toml:"fs_root" yaml:"fs_root"`
	Server *rawServer `toml:"server_config" yaml:"server_config"`
	TLS    TLSConfig  `toml:"tls_config" yaml:"tls_config"`
}

type rawServer struct {
	Host *string `toml:"host" yaml:"host"`
	IP   *string `toml:"ip" yaml:"ip"`
	Port *uint16 `toml:"port" yaml:"port"`
}

// Load читает конфигурацию из TOML (или YAML по расширению .yaml/.yml).
func Load(path string) (RuntimeConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RuntimeConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg RuntimeConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(b)
	default:
		cfg, err = ParseTOML(b)
	}
	if err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ParseTOML decodes a TOML document.
func ParseTOML(b []byte) (RuntimeConfig, error) {
	var fc fileConfig
	if _, err := toml.NewDecoder(bytes.NewReader(b)).Decode(&fc); err != nil {
		return RuntimeConfig{}, err
	}
	return fc.resolve()
}

// ParseYAML decodes a YAML document with the same keys as the TOML layout.
func ParseYAML(b []byte) (RuntimeConfig, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return RuntimeConfig{}, err
	}
	return fc.resolve()
}

func (fc fileConfig) resolve() (RuntimeConfig, error) {
	if fc.Server == nil {
		return RuntimeConfig{}, ErrMissingServerConfig
	}

	switch {
	case fc.Server.Host == nil:
		return RuntimeConfig{}, fmt.Errorf("%w: server_config.host", ErrMissingKey)
	case fc.Server.IP == nil:
		return RuntimeConfig{}, fmt.Errorf("%w: server_config.ip", ErrMissingKey)
	case fc.Server.Port == nil:
		return RuntimeConfig{}, fmt.Errorf("%w: server_config.port", ErrMissingKey)
	}

	return RuntimeConfig{
		FSRoot: fc.FSRoot,
		Server: ServerConfig{
			Host: *fc.Server.Host,
			IP:   *fc.Server.IP,
			Port: *fc.Server.Port,
		},
		TLS: fc.TLS,
	}, nil
}

// Override carries optional replacement values. Nil fields leave the base untouched.
type Override struct {
	FSRoot *string
	Host   *string
	IP     *string
	Port   *uint16
}

// Merge applies overrides to base in order; later overrides win.
func Merge(base RuntimeConfig, overrides ...Override) RuntimeConfig {
	out := base
	for _, o := range overrides {
		if o.FSRoot != nil {
			out.FSRoot = *o.FSRoot
		}
		if o.Host != nil {
			out.Server.Host = *o.Host
		}
		if o.IP != nil {
			out.Server.IP = *o.IP
		}
		if o.Port != nil {
			out.Server.Port = *o.Port
		}
	}

	return out
}

// Env keys read by FromEnv.
const (
	EnvFSRoot     = "UFS_FS_ROOT"
	EnvServerHost = "UFS_SERVER_HOST"
	EnvServerIP   = "UFS_SERVER_IP"
	EnvServerPort = "UFS_SERVER_PORT"
)

// FromEnv собирает переопределения из переменных окружения.
func FromEnv(lookup func(string) (string, bool)) (Override, error) {
	var o Override
	if v, ok := lookupNonEmpty(lookup, EnvFSRoot); ok {
		o.FSRoot = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvServerHost); ok {
		o.Host = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvServerIP); ok {
		o.IP = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvServerPort); ok {
		p, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return Override{}, fmt.Errorf("%w: %s=%q is not a port", ErrInvalid, EnvServerPort, v)
		}
		port := uint16(p)
		o.Port = &port
	}

	return o, nil
}

func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate checks the merged config. The listen address is checked at bind time.
func (c RuntimeConfig) Validate() error {
	if strings.TrimSpace(c.FSRoot) == "" {
		return fmt.Errorf("%w: fs_root is empty", ErrInvalid)
	}

	return nil
}

// Addr returns the listen address ip:port (IPv6 literals are bracketed).
func (c RuntimeConfig) Addr() string {
	return net.JoinHostPort(c.Server.IP, strconv.FormatUint(uint64(c.Server.Port), 10))
}
