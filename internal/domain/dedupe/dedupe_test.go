package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/rapporthq/rapport/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given an in-memory deduper", t, func() {
		ctx := context.Background()

		Convey("When recording a fresh source ref", func() {
			d := dedupe.NewInMemoryDeduper()
			seen := d.SeenAndRecord(ctx, "calendar:evt-1")

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And recording it again reports it as seen", func() {
				So(d.SeenAndRecord(ctx, "calendar:evt-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording several distinct refs", func() {
			d := dedupe.NewInMemoryDeduper()
			refs := []string{"mail:a", "mail:b", "calendar:c", "notes:d"}
			for _, ref := range refs {
				So(d.SeenAndRecord(ctx, ref), ShouldBeFalse)
			}

			Convey("Then all of them are tracked independently", func() {
				So(d.Size(), ShouldEqual, int64(len(refs)))
				for _, ref := range refs {
					So(d.SeenAndRecord(ctx, ref), ShouldBeTrue)
				}
			})
		})

		Convey("When unrecording a ref", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "mail:a")
			So(d.Size(), ShouldEqual, 1)

			d.Unrecord(ctx, "mail:a")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "mail:a"), ShouldBeFalse)
			})
		})

		Convey("When unrecording a ref that was never recorded", func() {
			d := dedupe.NewInMemoryDeduper()
			d.Unrecord(ctx, "nonexistent")

			Convey("Then the size is unchanged", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the deduper is bounded and at capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, ref := range []string{"r1", "r2", "r3"} {
				So(d.SeenAndRecord(ctx, ref), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, 3)

			seen := d.SeenAndRecord(ctx, "r4")

			Convey("Then the oldest ref is evicted to make room", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)

				// r1 was evicted, so it reads as fresh again.
				So(d.SeenAndRecord(ctx, "r1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When the deduper is unbounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("ref-%d", i)), ShouldBeFalse)
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, int64(n))
				So(d.SeenAndRecord(ctx, "ref-0"), ShouldBeTrue)
			})
		})
	})
}
