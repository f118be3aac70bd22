package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/rapporthq/rapport/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:8480")
				convey.So(cfg.DBPath, convey.ShouldEqual, "./rapport.db")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.OverdueThreshold, convey.ShouldEqual, 1.5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RAPPORT_ADDR", "127.0.0.1:9090")
			_ = os.Setenv("RAPPORT_QUEUE_SIZE", "5000")
			_ = os.Setenv("RAPPORT_WORKER_COUNT", "4")
			_ = os.Setenv("RAPPORT_OVERDUE_THRESHOLD", "2.0")
			_ = os.Setenv("RAPPORT_IMPORT_PATH", "/tmp/export.json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.OverdueThreshold, convey.ShouldEqual, 2.0)
				convey.So(cfg.ImportPath, convey.ShouldEqual, "/tmp/export.json")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: "127.0.0.1:9191"
db_path: "/tmp/rapport-test.db"
worker_count: 8
lead_stuck_days: 45
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RAPPORT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and merge defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9191")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/rapport-test.db")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.LeadStuckDays, convey.ShouldEqual, 45)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)      // From defaults
				convey.So(cfg.ApplicantStuckDays, convey.ShouldEqual, 14)  // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: "127.0.0.1:9191"
worker_count: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RAPPORT_CONFIG", tmpFile)
			_ = os.Setenv("RAPPORT_ADDR", "127.0.0.1:7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:7070") // Overridden by env
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)         // From file
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RAPPORT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RAPPORT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When enabling the LLM without an API key", func() {
			_ = os.Setenv("RAPPORT_LLM_ENABLED", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "anthropic_api_key")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When enabling the LLM with an API key", func() {
			_ = os.Setenv("RAPPORT_LLM_ENABLED", "true")
			_ = os.Setenv("RAPPORT_ANTHROPIC_API_KEY", "test-key")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LLMEnabled, convey.ShouldBeTrue)
				convey.So(cfg.AnthropicAPIKey, convey.ShouldEqual, "test-key")
			})
		})

		convey.Convey("When loading config with an overdue threshold at or below 1", func() {
			_ = os.Setenv("RAPPORT_OVERDUE_THRESHOLD", "1.0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "overdue_threshold")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RAPPORT_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RAPPORT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RAPPORT_CONFIG",
		"RAPPORT_ADDR",
		"RAPPORT_DB_PATH",
		"RAPPORT_QUEUE_SIZE",
		"RAPPORT_WORKER_COUNT",
		"RAPPORT_DEDUPE_SIZE",
		"RAPPORT_OVERDUE_THRESHOLD",
		"RAPPORT_LLM_ENABLED",
		"RAPPORT_ANTHROPIC_API_KEY",
		"RAPPORT_IMPORT_PATH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rapport-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
