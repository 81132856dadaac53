package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name, content string) string {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	Convey("Given a config file and an env file", t, func() {
		dir := t.TempDir()
		envPath := writeFile(t, dir, ".env", "POSTGRES_USER=hermes\nPOSTGRES_DB=hlink_db\nPOSTGRES_PASSWORD=s3cret\n")

		Convey("When only the env file is set", func() {
			cfgPath := writeFile(t, dir, "config.yaml", "database:\n  env_file: "+envPath+"\n")
			cfg, err := Load(cfgPath)

			Convey("Defaults should be applied", func() {
				So(err, ShouldBeNil)
				So(cfg.App.Name, ShouldEqual, "hlink-backup")
				So(cfg.App.LogLevel, ShouldEqual, "info")
				So(cfg.Database.Service, ShouldEqual, "postgres")
				So(cfg.Database.RequireRunning, ShouldBeTrue)
				So(cfg.Backup.LocalPath, ShouldEqual, "/var/backups/hlink")
				So(cfg.Backup.FilePrefix, ShouldEqual, "hlink_backup_")
				So(cfg.Backup.RetentionDays, ShouldEqual, 14)
				So(cfg.Backup.LockFile, ShouldEqual, "/tmp/hlink-backup.lock")
				So(cfg.Backup.Schedule, ShouldEqual, "0 0 3 * * *")
				So(cfg.Backup.Timeout, ShouldEqual, 30*time.Minute)
				So(cfg.Restore.StopOnError, ShouldBeTrue)
				So(cfg.Retention(), ShouldEqual, 14*24*time.Hour)
			})

			Convey("Credentials should come from the env file", func() {
				So(cfg.Database.User, ShouldEqual, "hermes")
				So(cfg.Database.Name, ShouldEqual, "hlink_db")
				So(cfg.Database.Password, ShouldEqual, "s3cret")
			})
		})

		Convey("When the process environment sets a credential", func() {
			t.Setenv("POSTGRES_DB", "hlink_staging")
			cfgPath := writeFile(t, dir, "config.yaml", "database:\n  env_file: "+envPath+"\n")
			cfg, err := Load(cfgPath)

			Convey("It should win over the env file", func() {
				So(err, ShouldBeNil)
				So(cfg.Database.Name, ShouldEqual, "hlink_staging")
				So(cfg.Database.User, ShouldEqual, "hermes")
			})
		})

		Convey("When values are overridden in YAML", func() {
			cfgPath := writeFile(t, dir, "config.yaml", `
database:
  service: db
  compose_file: /srv/hlink/docker-compose.yml
  require_running: false
  env_file: `+envPath+`
backup:
  local_path: /srv/backups
  retention_days: 7
  timeout: 5m
  upload_targets:
    - type: s3
      enabled: true
      bucket: hlink-backups
    - type: telegram
      enabled: false
`)
			cfg, err := Load(cfgPath)

			Convey("They should replace the defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Database.Service, ShouldEqual, "db")
				So(cfg.Database.ComposeFile, ShouldEqual, "/srv/hlink/docker-compose.yml")
				So(cfg.Database.RequireRunning, ShouldBeFalse)
				So(cfg.Backup.LocalPath, ShouldEqual, "/srv/backups")
				So(cfg.Backup.Timeout, ShouldEqual, 5*time.Minute)
				So(cfg.Retention(), ShouldEqual, 7*24*time.Hour)
			})

			Convey("Only enabled targets should be returned", func() {
				targets := cfg.GetEnabledUploadTargets()
				So(targets, ShouldHaveLength, 1)
				So(targets[0].Type, ShouldEqual, "s3")
				So(targets[0].Bucket, ShouldEqual, "hlink-backups")
			})
		})

		Convey("When the env file is missing", func() {
			cfgPath := writeFile(t, dir, "config.yaml", "database:\n  env_file: "+filepath.Join(dir, "missing.env")+"\n")
			_, err := Load(cfgPath)

			Convey("Loading should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to read env file")
			})
		})

		Convey("When POSTGRES_USER is absent", func() {
			partial := writeFile(t, dir, "partial.env", "POSTGRES_DB=hlink_db\n")
			cfgPath := writeFile(t, dir, "config.yaml", "database:\n  env_file: "+partial+"\n")
			_, err := Load(cfgPath)

			Convey("Validation should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "POSTGRES_USER is not set")
			})
		})

		Convey("When an enabled target has an unknown type", func() {
			cfgPath := writeFile(t, dir, "config.yaml", `
database:
  env_file: `+envPath+`
backup:
  upload_targets:
    - type: ftp
      enabled: true
`)
			_, err := Load(cfgPath)

			Convey("Validation should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, `unknown type "ftp"`)
			})
		})

		Convey("When retention is not positive", func() {
			cfgPath := writeFile(t, dir, "config.yaml", "database:\n  env_file: "+envPath+"\nbackup:\n  retention_days: 0\n")
			_, err := Load(cfgPath)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "retention_days must be positive")
		})

		Convey("When the config file does not exist", func() {
			_, err := Load(filepath.Join(dir, "nope.yaml"))

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to read config")
		})
	})
}

func TestLoadStylesheet(t *testing.T) {
	Convey("Given a stylesheet section", t, func() {
		dir := t.TempDir()

		Convey("When content globs are present", func() {
			cfgPath := writeFile(t, dir, "config.yaml", `
stylesheet:
  content:
    - ./templates/**/*.html
  safelist:
    - bg-red-500
  box_shadow:
    - name: cardHover
      value: 0 1px 3px rgba(0,0,0,0.1)
`)
			cfg, err := LoadStylesheet(cfgPath)

			Convey("It should load without an env file", func() {
				So(err, ShouldBeNil)
				So(cfg.Output, ShouldEqual, "tailwind.config.js")
				So(cfg.Content, ShouldResemble, []string{"./templates/**/*.html"})
				So(cfg.Safelist, ShouldResemble, []string{"bg-red-500"})
				So(cfg.BoxShadow, ShouldResemble, []Shadow{{Name: "cardHover", Value: "0 1px 3px rgba(0,0,0,0.1)"}})
			})
		})

		Convey("When content is empty", func() {
			cfgPath := writeFile(t, dir, "config.yaml", "stylesheet:\n  output: out.js\n")
			_, err := LoadStylesheet(cfgPath)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "stylesheet.content")
		})
	})
}
