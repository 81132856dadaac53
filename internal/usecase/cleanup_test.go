package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hermeslink/hlink-backup/internal/adapter/storage"
)

func TestCleanup(t *testing.T) {
	Convey("Given backups of different ages", t, func() {
		tempDir, err := os.MkdirTemp("", "cleanup_usecase")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		ctx := context.Background()
		naming := NewNaming("hlink_backup_", ".gz")
		local, err := storage.NewLocal(tempDir, naming.Match)
		So(err, ShouldBeNil)

		touch := func(name string, age time.Duration) {
			p := filepath.Join(tempDir, name)
			So(os.WriteFile(p, []byte("backup"), 0644), ShouldBeNil)
			mod := time.Now().Add(-age)
			So(os.Chtimes(p, mod, mod), ShouldBeNil)
		}
		exists := func(name string) bool {
			_, err := os.Stat(filepath.Join(tempDir, name))
			return err == nil
		}

		day := 24 * time.Hour
		touch("hlink_backup_20260101_030000.sql.gz", 30*day)
		touch("hlink_backup_20260102_030000.sql.gz", 15*day)
		touch("hlink_backup_20260103_030000.sql.gz", 13*day)
		touch("hlink_backup_20260104_030000.sql.gz", 0)
		touch("notes.txt", 60*day)
		touch("hlink_backup_20260101_030000.sql", 60*day)

		logger := &fakeLogger{}

		Convey("When only local storage is configured", func() {
			uc := NewCleanup(local, nil, naming, logger, 14*day)
			err := uc.Execute(ctx)

			Convey("Expired backups should be deleted and everything else kept", func() {
				So(err, ShouldBeNil)
				So(exists("hlink_backup_20260101_030000.sql.gz"), ShouldBeFalse)
				So(exists("hlink_backup_20260102_030000.sql.gz"), ShouldBeFalse)
				So(exists("hlink_backup_20260103_030000.sql.gz"), ShouldBeTrue)
				So(exists("hlink_backup_20260104_030000.sql.gz"), ShouldBeTrue)
				So(exists("notes.txt"), ShouldBeTrue)
				So(exists("hlink_backup_20260101_030000.sql"), ShouldBeTrue)
				So(logger.lines, ShouldContain, "INFO Deleted 2 old backup(s) from local")
			})
		})

		Convey("When a remote target filters by age", func() {
			remote := newMemStorage()
			remote.files["hlink_backup_20260101_030000.sql.gz"] = time.Now().Add(-20 * day)
			remote.files["hlink_backup_20260104_030000.sql.gz"] = time.Now()
			remote.files["unrelated.tar"] = time.Now().Add(-20 * day)

			uc := NewCleanup(local, []UploadTarget{{Name: "minio", Storage: remote}}, naming, logger, 14*day)
			So(uc.Execute(ctx), ShouldBeNil)

			Convey("Only expired backups should be removed remotely", func() {
				So(remote.has("hlink_backup_20260101_030000.sql.gz"), ShouldBeFalse)
				So(remote.has("hlink_backup_20260104_030000.sql.gz"), ShouldBeTrue)
				So(remote.has("unrelated.tar"), ShouldBeTrue)
			})
		})

		Convey("When a remote target cannot filter by age", func() {
			remote := newMemStorage()
			remote.oldErr = errors.New("not supported")
			remote.files["hlink_backup_20260101_030000.sql.gz"] = time.Now()
			remote.files["hlink_backup_20261017_030000.sql.gz"] = time.Now()

			uc := NewCleanup(local, []UploadTarget{{Name: "telegram", Storage: remote}}, naming, logger, 14*day)
			uc.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.Local) }
			So(uc.Execute(ctx), ShouldBeNil)

			Convey("The timestamp in the name should be used instead", func() {
				So(remote.has("hlink_backup_20260101_030000.sql.gz"), ShouldBeFalse)
				So(remote.has("hlink_backup_20261017_030000.sql.gz"), ShouldBeTrue)
			})
		})

		Convey("When the backup directory is gone", func() {
			So(os.RemoveAll(tempDir), ShouldBeNil)
			uc := NewCleanup(local, nil, naming, logger, 14*day)

			Convey("The local failure should be returned", func() {
				err := uc.Execute(ctx)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "local cleanup")
			})
		})
	})
}
