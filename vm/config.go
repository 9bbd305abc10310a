package vm

import "github.com/BurntSushi/toml"

// Config holds every knob the cmd/ front-ends expose via a TOML file, kept
// deliberately small: the ISA and object format are fixed by the spec, so
// nothing about instruction semantics belongs here.
type Config struct {
	// LogLevel is a logrus level name: "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`

	// CompressObjectFiles is decoded from the file but no front end reads
	// it; cmd/stackasm loads no config and chooses gzip framing
	// (objectfile.SaveCompressed vs Save) only from its --compress flag.
	CompressObjectFiles bool `toml:"compress_object_files"`

	// UseMappedLoad controls whether cmd/stackvm and cmd/stackdbg load
	// object files via mmap instead of a plain read.
	UseMappedLoad bool `toml:"use_mapped_load"`
}

// DefaultConfig returns the configuration used when no TOML file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
	}
}

// LoadConfig decodes a TOML file at path over DefaultConfig, so a file
// that only sets log_level leaves every other field at its default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
