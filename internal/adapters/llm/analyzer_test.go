package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseInsightResponse(t *testing.T) {
	Convey("Given model responses", t, func() {
		Convey("When the response is bare JSON", func() {
			out, err := parseInsightResponse(`[{"person_id":"p1","kind":"fact","body":"runs marathons","confidence":0.9}]`)

			Convey("Then it parses", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 1)
				So(out[0].PersonID, ShouldEqual, "p1")
				So(out[0].Kind, ShouldEqual, "fact")
				So(out[0].Confidence, ShouldAlmostEqual, 0.9, 0.001)
			})
		})

		Convey("When the response is wrapped in a json fence", func() {
			text := "```json\n[{\"person_id\":\"p1\",\"kind\":\"action_item\",\"body\":\"send deck\",\"confidence\":0.7}]\n```"
			out, err := parseInsightResponse(text)

			Convey("Then the fence is stripped", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 1)
				So(out[0].Body, ShouldEqual, "send deck")
			})
		})

		Convey("When the response is wrapped in a plain fence", func() {
			text := "```\n[]\n```"
			out, err := parseInsightResponse(text)

			Convey("Then it still parses", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When the response is not JSON", func() {
			_, err := parseInsightResponse("I could not find any insights, sorry!")

			Convey("Then the error carries the response text", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "parsing insight response")
			})
		})

		Convey("When a long bad response is reported", func() {
			_, err := parseInsightResponse(strings.Repeat("x", 2048))

			Convey("Then the quoted text is truncated", func() {
				So(err, ShouldNotBeNil)
				So(len(err.Error()), ShouldBeLessThan, 1024)
			})
		})
	})
}

func TestBuildPrompts(t *testing.T) {
	Convey("Given an extractor", t, func() {
		e := &Extractor{model: defaultModel, maxNotes: 2, now: time.Now}

		ev := model.Evidence{
			ID:         "ev1",
			Kind:       model.KindMeeting,
			OccurredAt: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
			Summary:    "quarterly review",
			PersonIDs:  []string{"p1", "p2"},
		}

		Convey("When building prompts without notes", func() {
			system, user := e.buildPrompts(ev, nil)

			Convey("Then the people list and interaction appear", func() {
				So(system, ShouldContainSubstring, "- p1")
				So(system, ShouldContainSubstring, "- p2")
				So(user, ShouldContainSubstring, "meeting")
				So(user, ShouldContainSubstring, "2026-03-11")
				So(user, ShouldContainSubstring, "quarterly review")
				So(user, ShouldNotContainSubstring, "Notes:")
			})
		})

		Convey("When more notes exist than the cap allows", func() {
			notes := []model.Note{
				{ID: "n1", Body: "first"},
				{ID: "n2", Body: "second"},
				{ID: "n3", Body: "third"},
			}

			_, user := e.buildPrompts(ev, notes)

			Convey("Then only the first maxNotes are included", func() {
				So(user, ShouldContainSubstring, "first")
				So(user, ShouldContainSubstring, "second")
				So(user, ShouldNotContainSubstring, "third")
			})
		})

		Convey("When a note is enormous", func() {
			notes := []model.Note{{ID: "n1", Body: strings.Repeat("a", maxNoteChars+100)}}

			_, user := e.buildPrompts(ev, notes)

			Convey("Then it is truncated with an ellipsis", func() {
				So(len(user), ShouldBeLessThan, maxNoteChars+200)
				So(user, ShouldContainSubstring, "...")
			})
		})
	})
}

func TestUsage(t *testing.T) {
	Convey("Given accumulated usage", t, func() {
		var u Usage
		u.Add(Usage{InputTokens: 100, OutputTokens: 20})
		u.Add(Usage{InputTokens: 50, OutputTokens: 10})

		Convey("Then the totals add up", func() {
			So(u.InputTokens, ShouldEqual, 150)
			So(u.OutputTokens, ShouldEqual, 30)
			So(u.TotalTokens(), ShouldEqual, 180)
		})
	})
}
