package config

import (
	"log"
	"os"
	"os/user"
	"path/filepath"
)

// HomeDirEnv overrides the data directory, mostly for tests.
const HomeDirEnv = "CAREBOOK_HOME"

func getHomeDir() string {
	usr, err := user.Current()
	if err != nil {
		log.Fatal(err)
	}
	return usr.HomeDir
}

// DataDir is where carebook keeps accounts, keystores, custom networks and
// the provider directory.
func DataDir() string {
	if dir := os.Getenv(HomeDirEnv); dir != "" {
		return dir
	}
	return filepath.Join(getHomeDir(), ".carebook")
}

func AccountsDir() string {
	return filepath.Join(DataDir(), "accounts")
}

func KeystoresDir() string {
	return filepath.Join(DataDir(), "keystores")
}

func NetworksDir() string {
	return filepath.Join(DataDir(), "networks")
}

func ProvidersFile() string {
	return filepath.Join(DataDir(), "providers.json")
}
