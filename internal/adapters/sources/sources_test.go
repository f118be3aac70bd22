package sources_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rapporthq/rapport/internal/adapters/sources"
	"github.com/rapporthq/rapport/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManualSource(t *testing.T) {
	Convey("Given a manual source", t, func() {
		ctx := context.Background()
		src := sources.NewManualSource()

		Convey("Then it reports its name", func() {
			So(src.Name(), ShouldEqual, "manual")
		})

		Convey("When nothing was submitted", func() {
			items, err := src.Fetch(ctx, time.Time{})

			Convey("Then fetch returns nothing", func() {
				So(err, ShouldBeNil)
				So(items, ShouldBeEmpty)
			})
		})

		Convey("When items are submitted", func() {
			src.Submit(sources.Item{Evidence: model.Evidence{SourceRef: "manual:1"}})
			src.Submit(sources.Item{Evidence: model.Evidence{SourceRef: "manual:2"}})

			Convey("Then fetch drains them in order", func() {
				items, err := src.Fetch(ctx, time.Time{})
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
				So(items[0].Evidence.SourceRef, ShouldEqual, "manual:1")

				Convey("And a second fetch is empty", func() {
					items, err := src.Fetch(ctx, time.Time{})
					So(err, ShouldBeNil)
					So(items, ShouldBeEmpty)
				})
			})

			Convey("And the since watermark is ignored", func() {
				items, err := src.Fetch(ctx, time.Now().Add(time.Hour))
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
			})
		})
	})
}

func TestFileSource(t *testing.T) {
	Convey("Given a JSON export file", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "export.json")

		export := `[
			{
				"kind": "meeting",
				"occurred_at": "2026-03-09T10:00:00Z",
				"ended_at": "2026-03-09T11:00:00Z",
				"source_ref": "calendar:abc",
				"summary": "quarterly review",
				"person_ids": ["p1"],
				"people": [{"id": "p1", "display_name": "Dana", "roles": ["client"]}],
				"notes": ["asked about renewal"]
			},
			{
				"kind": "email",
				"occurred_at": "2026-03-10T09:00:00Z",
				"summary": "intro thread",
				"person_ids": ["p2"]
			}
		]`
		So(os.WriteFile(path, []byte(export), 0o644), ShouldBeNil)

		src := sources.NewFileSource("calendar", path)

		Convey("When fetching everything", func() {
			items, err := src.Fetch(ctx, time.Time{})

			Convey("Then both items come back fully mapped", func() {
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)

				first := items[0]
				So(first.Evidence.Kind, ShouldEqual, model.KindMeeting)
				So(first.Evidence.SourceRef, ShouldEqual, "calendar:abc")
				So(first.Evidence.EndedAt, ShouldNotBeNil)
				So(first.People, ShouldHaveLength, 1)
				So(first.People[0].DisplayName, ShouldEqual, "Dana")
				So(first.People[0].HasRole(model.RoleClient), ShouldBeTrue)
				So(first.Notes, ShouldHaveLength, 1)
				So(first.Notes[0].Body, ShouldEqual, "asked about renewal")
			})

			Convey("And the item without a ref gets a positional one", func() {
				So(err, ShouldBeNil)
				second := items[1]
				So(second.Evidence.SourceRef, ShouldStartWith, "calendar:2026-03-10T09:00:00Z")
			})
		})

		Convey("When fetching with a watermark", func() {
			since := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
			items, err := src.Fetch(ctx, since)

			Convey("Then older items are skipped", func() {
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 1)
				So(items[0].Evidence.Kind, ShouldEqual, model.KindEmail)
			})
		})

		Convey("When the file does not exist", func() {
			missing := sources.NewFileSource("calendar", filepath.Join(dir, "nope.json"))
			items, err := missing.Fetch(ctx, time.Time{})

			Convey("Then the fetch is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(items, ShouldBeEmpty)
			})
		})

		Convey("When the file holds invalid JSON", func() {
			bad := filepath.Join(dir, "bad.json")
			So(os.WriteFile(bad, []byte("{not json"), 0o644), ShouldBeNil)

			_, err := sources.NewFileSource("calendar", bad).Fetch(ctx, time.Time{})

			Convey("Then the error names the file", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "bad.json")
			})
		})
	})
}
