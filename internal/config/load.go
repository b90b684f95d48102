package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCENESYNC"

// Load reads parameters from defaults, the optional params file at path,
// an optional .env file and the environment, then validates them.
// An empty path skips the params file; the .env is looked up in the
// current directory.
func Load(path string) (Params, error) {
	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	}

	// Missing .env is normal outside development. Variables already in the
	// environment take precedence over the file.
	dotenv := filepath.Join(dir, ".env")
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Params{}, fmt.Errorf("read %s: %w", dotenv, err)
	}

	v := viper.New()
	bindValues(v, Params{}, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Params{}, fmt.Errorf("read params %s: %w", path, err)
		}
	}

	var p Params
	if err := v.Unmarshal(&p); err != nil {
		return Params{}, fmt.Errorf("decode params: %w", err)
	}

	if errs := Validate(p); len(errs) > 0 {
		return p, &InvalidParamsError{Errors: errs}
	}
	return p, nil
}

// bindValues walks the struct and registers every mapstructure key with its
// `default` tag so AutomaticEnv can see it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
