package conf

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	Path string       // Config path
	mu   sync.RWMutex // Protects access to Conf
	Conf = Config{    // Default values
		Monitor: Monitor{
			RefreshSeconds: 2,
		},
		Web: Web{
			Listen: ":5000",
		},
	}
)

// LoadConfig Set Path and load config into memory
// Run this at start; a missing file keeps the defaults
func LoadConfig(path string) error {
	Path = path
	err := Update()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Update reads the config file and loads it into the global Conf variable
func Update() (err error) {
	mu.Lock()
	defer mu.Unlock()

	if _, err = os.Stat(Path); os.IsNotExist(err) {
		return err
	}
	_, err = toml.DecodeFile(Path, &Conf)
	if err != nil {
		return fmt.Errorf("failed to update global config %w", err)
	}
	if Conf.Monitor.RefreshSeconds < 1 {
		Conf.Monitor.RefreshSeconds = 1
	}
	return nil
}

// Write saves the provided config to the TOML file at the global Path
func Write(conf Config) (err error) {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.Create(Path)
	if err != nil {
		return fmt.Errorf("failed to create config file %w", err)
	}
	defer f.Close()
	err = toml.NewEncoder(f).Encode(conf)
	if err != nil {
		return fmt.Errorf("failed to write config file %w", err)
	}

	// Update global config after successful write
	Conf = conf
	return nil
}

// Read returns a copy of the current configuration
func Read() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Conf
}

// GetListen returns the HTTP bind address in a thread-safe manner
func GetListen() string {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Web.Listen
}

// GetRefreshInterval returns the sampling period in a thread-safe manner
func GetRefreshInterval() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return time.Duration(Conf.Monitor.RefreshSeconds) * time.Second
}

// SetListen overrides the bind address (flag takes priority over file)
func SetListen(listen string) {
	mu.Lock()
	defer mu.Unlock()
	Conf.Web.Listen = listen
}

// SetRefreshSeconds overrides the sampling period
func SetRefreshSeconds(seconds int) {
	mu.Lock()
	defer mu.Unlock()
	if seconds < 1 {
		seconds = 1
	}
	Conf.Monitor.RefreshSeconds = seconds
}
