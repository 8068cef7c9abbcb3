// Package config loads the database server settings used by the tabula command
//
// settings are read (lowest to highest priority) from defaults, a .tabula config file, .env files and
// TABULA_ prefixed environment variables
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/go-andiamo/tabula"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem config files and .env files are read from
var AppFs = afero.NewOsFs()

const (
	configName = ".tabula"
	envPrefix  = "TABULA"
)

const (
	KeyDriver   = "driver"
	KeyHost     = "host"
	KeyPort     = "port"
	KeyName     = "name"
	KeyUsername = "username"
	KeyPassword = "password"
	KeyDebug    = "debug"
)

// Config holds the loaded settings
type Config struct {
	Server tabula.Server
	Debug  bool
	// File is the config file that was read (empty if none was found)
	File string
}

// Load loads the configuration
//
// if file is empty, a .tabula.{yaml,json,toml} file is searched for in the working directory, the home directory and
// ~/.config/tabula - not finding one is not an error
func Load(file string) (*Config, error) {
	if err := loadDotEnv(".env", false); err != nil {
		return nil, err
	}
	if err := loadDotEnv(".env.local", true); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetFs(AppFs)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyDriver, tabula.MySQL.String())
	v.SetDefault(KeyHost, "localhost")
	v.SetDefault(KeyPort, 0)
	v.SetDefault(KeyDebug, false)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "tabula"))
		if err = v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}
	kind, err := tabula.ParseDriverKind(v.GetString(KeyDriver))
	if err != nil {
		return nil, err
	}
	return &Config{
		Server: tabula.Server{
			Driver:   kind,
			Host:     v.GetString(KeyHost),
			Port:     v.GetInt(KeyPort),
			Name:     v.GetString(KeyName),
			Username: v.GetString(KeyUsername),
			Password: v.GetString(KeyPassword),
		},
		Debug: v.GetBool(KeyDebug),
		File:  v.ConfigFileUsed(),
	}, nil
}

// loadDotEnv sets environment variables from a .env file (if it exists)
//
// unless overload is set, variables already present in the environment are left untouched
func loadDotEnv(name string, overload bool) error {
	if _, err := AppFs.Stat(name); err != nil {
		return nil
	}
	f, err := AppFs.Open(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	vars, err := godotenv.Parse(f)
	if err != nil {
		return err
	}
	for k, val := range vars {
		if _, exists := os.LookupEnv(k); exists && !overload {
			continue
		}
		if err = os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}
