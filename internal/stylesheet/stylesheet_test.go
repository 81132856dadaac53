package stylesheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hermeslink/hlink-backup/internal/config"
)

func TestRender(t *testing.T) {
	Convey("Given a stylesheet config", t, func() {
		cfg := &config.StylesheetConfig{
			Content:  []string{"./templates/**/*.html", "./**/templates/**/*.html"},
			Safelist: []string{"text-green-600", "bg-red-100", "text-green-600"},
			BoxShadow: []config.Shadow{
				{Name: "inner-lg", Value: "inset 0 2px 8px 0 rgba(0, 0, 0, 0.1)"},
				{Name: "card", Value: "0 1px 3px 0 rgba(0, 0, 0, 0.1)"},
			},
		}

		Convey("When it is rendered", func() {
			var buf bytes.Buffer
			So(Render(&buf, cfg), ShouldBeNil)
			out := buf.String()

			Convey("Every glob, class and shadow should be present", func() {
				So(out, ShouldStartWith, "/** @type {import('tailwindcss').Config} */")
				So(out, ShouldContainSubstring, `"./templates/**/*.html",`)
				So(out, ShouldContainSubstring, `"./**/templates/**/*.html",`)
				So(out, ShouldContainSubstring, `"bg-red-100",`)
				So(out, ShouldContainSubstring, `"card": "0 1px 3px 0 rgba(0, 0, 0, 0.1)",`)
				So(out, ShouldContainSubstring, `"inner-lg": "inset 0 2px 8px 0 rgba(0, 0, 0, 0.1)",`)
			})

			Convey("Safelist entries should be sorted and unique", func() {
				So(strings.Count(out, `"text-green-600"`), ShouldEqual, 1)
				So(strings.Index(out, `"bg-red-100"`), ShouldBeLessThan, strings.Index(out, `"text-green-600"`))
			})

			Convey("Shadows should be sorted by name", func() {
				So(strings.Index(out, `"card"`), ShouldBeLessThan, strings.Index(out, `"inner-lg"`))
			})

			Convey("The output should not depend on input order", func() {
				reordered := &config.StylesheetConfig{
					Content:  cfg.Content,
					Safelist: []string{"bg-red-100", "text-green-600"},
					BoxShadow: []config.Shadow{
						{Name: "card", Value: "0 1px 3px 0 rgba(0, 0, 0, 0.1)"},
						{Name: "inner-lg", Value: "inset 0 2px 8px 0 rgba(0, 0, 0, 0.1)"},
					},
				}
				var again bytes.Buffer
				So(Render(&again, reordered), ShouldBeNil)
				So(again.String(), ShouldEqual, out)
			})
		})

		Convey("When a shadow name is mixed-case", func() {
			cfg.BoxShadow = []config.Shadow{{Name: "cardHover", Value: "0 4px 6px -1px rgba(0, 0, 0, 0.1)"}}
			var buf bytes.Buffer
			So(Render(&buf, cfg), ShouldBeNil)

			So(buf.String(), ShouldContainSubstring, `"cardHover": "0 4px 6px -1px rgba(0, 0, 0, 0.1)",`)
		})

		Convey("When a shadow is declared twice", func() {
			cfg.BoxShadow = append(cfg.BoxShadow, config.Shadow{Name: "card", Value: "none"})
			err := Render(&bytes.Buffer{}, cfg)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, `"card" is declared twice`)
		})

		Convey("When a shadow has no name", func() {
			cfg.BoxShadow = []config.Shadow{{Value: "none"}}
			So(Render(&bytes.Buffer{}, cfg), ShouldNotBeNil)
		})

		Convey("When a class contains characters outside the basic plane", func() {
			cfg.Safelist = []string{"after:content-['\U000E0001']", "before:content-['<&>']"}
			var buf bytes.Buffer
			So(Render(&buf, cfg), ShouldBeNil)
			out := buf.String()

			Convey("They should be emitted as valid JavaScript string literals", func() {
				So(out, ShouldNotContainSubstring, `\U`)
				So(out, ShouldContainSubstring, "\"after:content-['\U000E0001']\",")
				So(out, ShouldContainSubstring, `"before:content-['<&>']",`)
			})
		})

		Convey("When there are no shadows", func() {
			cfg.BoxShadow = nil
			var buf bytes.Buffer
			So(Render(&buf, cfg), ShouldBeNil)

			So(buf.String(), ShouldNotContainSubstring, "boxShadow")
		})

		Convey("When content is empty", func() {
			cfg.Content = nil
			So(Render(&bytes.Buffer{}, cfg), ShouldNotBeNil)
		})

		Convey("When a safelist entry is blank", func() {
			cfg.Safelist = append(cfg.Safelist, "  ")
			err := Render(&bytes.Buffer{}, cfg)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "safelist entry 3 is empty")
		})

		Convey("When it is written to disk", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "tailwind.config.js")
			So(os.WriteFile(path, []byte("stale"), 0644), ShouldBeNil)

			So(WriteFile(path, cfg), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "module.exports")

			entries, err := os.ReadDir(dir)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
		})
	})
}
