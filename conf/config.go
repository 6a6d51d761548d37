package conf

/*
   Package conf wraps viper for the scrub application. Configuration is read
   from an env-format file named local.env when one is found in a known
   location; any key missing from the file falls back to the process
   environment.

   Assumptions:
   1. The configuration file is an env file.
   2. Once loaded, the file stays immutable for the life of the process
   (tests may override values through SetEnv/UnsetEnv).
*/

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// An instance of viper holding the conf information. Only reachable through
// GetEnv, LookupEnv, SetEnv and UnsetEnv.
var envVars *viper.Viper

const (
	configgood    uint8 = 0
	configbad     uint8 = 1
	noconfigfound uint8 = 2
)

var state uint8 = configgood

func setup(dir string) *viper.Viper {
	var v = viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		state = configbad
	}

	return v
}

func init() {
	locations := []string{
		os.Getenv("SCRUB_CONFIG_DIR"),
		"./shared_files/decrypted",
		"/go/src/github.com/CMSgov/scrub-app/shared_files/decrypted",
	}

	if success, loc := findEnv(locations); success {
		envVars = setup(loc)
	} else {
		envVars = viper.New()
		state = noconfigfound
	}
}

// findEnv returns the first location holding a local.env file.
func findEnv(location []string) (bool, string) {
	if len(location) == 0 {
		return false, ""
	}

	if location[0] != "" {
		if _, err := os.Stat(filepath.Join(location[0], "local.env")); err == nil {
			return true, location[0]
		}
	}

	return findEnv(location[1:])
}

// GetEnv retrieves the value stored in conf, falling back to the environment.
// "" is returned when the key exists in neither.
func GetEnv(key string) string {
	value, _ := LookupEnv(key)
	return value
}

// LookupEnv augments os.LookupEnv by consulting the loaded config file first.
func LookupEnv(key string) (string, bool) {
	if state == configgood {
		if value := envVars.GetString(key); value != "" {
			return value, true
		}
	}

	return os.LookupEnv(key)
}

// SetEnv adds a key value pair into conf. It should only be used inside this
// package or in tests; the protect parameter makes callers opt in knowingly.
func SetEnv(protect *testing.T, key string, value string) error {
	if state == configgood {
		envVars.Set(key, value)
		return nil
	}

	return os.Setenv(key, value)
}

// UnsetEnv removes a key from conf and from the environment. Like SetEnv it is
// meant for tests.
func UnsetEnv(protect *testing.T, key string) error {
	if state == configgood {
		envVars.Set(key, "")
	}

	return os.Unsetenv(key)
}
