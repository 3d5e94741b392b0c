package common

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// TestConfig is read from tests/ui/test_config.toml when present.
type TestConfig struct {
	Results struct {
		Dir string `toml:"dir"`
	} `toml:"results"`
	Browser struct {
		Headless    bool `toml:"headless"`
		TimeoutSecs int  `toml:"timeout_seconds"`
	} `toml:"browser"`
}

var (
	globalConfig     *TestConfig
	globalConfigOnce sync.Once
	resultsDir       string
	resultsDirOnce   sync.Once
)

func LoadTestConfig() *TestConfig {
	globalConfigOnce.Do(func() {
		globalConfig = &TestConfig{}
		globalConfig.Results.Dir = "tests/results"
		globalConfig.Browser.Headless = true
		globalConfig.Browser.TimeoutSecs = 30

		configPaths := []string{
			"test_config.toml",
			"tests/ui/test_config.toml",
		}
		for _, path := range configPaths {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := toml.Unmarshal(data, globalConfig); err == nil {
				break
			}
		}
		if globalConfig.Browser.TimeoutSecs <= 0 {
			globalConfig.Browser.TimeoutSecs = 30
		}
	})
	return globalConfig
}

// ResultsDir returns this run's timestamped results directory.
// GENVEST_TEST_RESULTS_DIR overrides it.
func ResultsDir() string {
	if dir := os.Getenv("GENVEST_TEST_RESULTS_DIR"); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
		return dir
	}

	resultsDirOnce.Do(func() {
		baseDir := LoadTestConfig().Results.Dir
		if !filepath.IsAbs(baseDir) {
			if wd, err := os.Getwd(); err == nil && filepath.Base(wd) == "ui" {
				baseDir = filepath.Join("..", "..", baseDir)
			}
		}
		resultsDir = filepath.Join(baseDir, time.Now().Format("2006-01-02-15-04-05"))
	})
	return resultsDir
}

func ScreenshotPath(name string) string {
	dir := filepath.Join(ResultsDir(), "screenshots")
	os.MkdirAll(dir, 0755)
	return filepath.Join(dir, name)
}
