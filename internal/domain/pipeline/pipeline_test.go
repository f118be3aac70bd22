package pipeline_test

import (
	"testing"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/internal/domain/pipeline"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

func person(id, name string, roles ...model.Role) model.Person {
	return model.Person{ID: id, DisplayName: name, Roles: roles}
}

func daysAgo(d int) time.Time {
	return now.AddDate(0, 0, -d)
}

func TestDetector_Stuck(t *testing.T) {
	Convey("Given a default detector", t, func() {
		d := pipeline.NewDetector()

		Convey("When a lead has been quiet past the threshold", func() {
			people := []model.Person{person("p1", "Lead", model.RoleLead)}
			latest := map[string]time.Time{"p1": daysAgo(31)}

			stuck := d.Stuck(people, latest, now)

			Convey("Then they are flagged with the lead stage", func() {
				So(stuck, ShouldHaveLength, 1)
				So(stuck[0].Stage, ShouldEqual, model.RoleLead)
				So(stuck[0].DaysStuck, ShouldEqual, 31)
			})
		})

		Convey("When a lead is inside the threshold", func() {
			people := []model.Person{person("p1", "Lead", model.RoleLead)}
			latest := map[string]time.Time{"p1": daysAgo(29)}

			Convey("Then nobody is flagged", func() {
				So(d.Stuck(people, latest, now), ShouldBeEmpty)
			})
		})

		Convey("When an applicant sits quiet past their tighter threshold", func() {
			people := []model.Person{person("p1", "Applicant", model.RoleApplicant)}
			latest := map[string]time.Time{"p1": daysAgo(15)}

			stuck := d.Stuck(people, latest, now)

			Convey("Then fifteen days is already stuck", func() {
				So(stuck, ShouldHaveLength, 1)
				So(stuck[0].Stage, ShouldEqual, model.RoleApplicant)
			})
		})

		Convey("When a person is both applicant and lead", func() {
			people := []model.Person{person("p1", "Both", model.RoleLead, model.RoleApplicant)}
			latest := map[string]time.Time{"p1": daysAgo(20)}

			stuck := d.Stuck(people, latest, now)

			Convey("Then the applicant stage wins", func() {
				So(stuck, ShouldHaveLength, 1)
				So(stuck[0].Stage, ShouldEqual, model.RoleApplicant)
			})
		})

		Convey("When a person has no funnel stage", func() {
			people := []model.Person{person("p1", "Client", model.RoleClient)}
			latest := map[string]time.Time{"p1": daysAgo(100)}

			Convey("Then they are never flagged", func() {
				So(d.Stuck(people, latest, now), ShouldBeEmpty)
			})
		})

		Convey("When a stuck person is archived", func() {
			p := person("p1", "Gone", model.RoleLead)
			p.Archived = true
			latest := map[string]time.Time{"p1": daysAgo(60)}

			Convey("Then they are skipped", func() {
				So(d.Stuck([]model.Person{p}, latest, now), ShouldBeEmpty)
			})
		})

		Convey("When a lead has no evidence at all", func() {
			p := person("p1", "Quiet", model.RoleLead)
			p.LastSyncedAt = daysAgo(45)

			stuck := d.Stuck([]model.Person{p}, map[string]time.Time{}, now)

			Convey("Then the last sync time stands in", func() {
				So(stuck, ShouldHaveLength, 1)
				So(stuck[0].DaysStuck, ShouldEqual, 45)
			})
		})

		Convey("When a lead has neither evidence nor a sync time", func() {
			p := person("p1", "Unknown", model.RoleLead)

			Convey("Then they are skipped rather than flagged forever", func() {
				So(d.Stuck([]model.Person{p}, map[string]time.Time{}, now), ShouldBeEmpty)
			})
		})

		Convey("When several people are stuck", func() {
			people := []model.Person{
				person("p1", "A", model.RoleLead),
				person("p2", "B", model.RoleApplicant),
				person("p3", "C", model.RoleLead),
			}
			latest := map[string]time.Time{
				"p1": daysAgo(35),
				"p2": daysAgo(20),
				"p3": daysAgo(50),
			}

			stuck := d.Stuck(people, latest, now)

			Convey("Then they sort by days stuck descending", func() {
				So(stuck, ShouldHaveLength, 3)
				So(stuck[0].Person.ID, ShouldEqual, "p3")
				So(stuck[1].Person.ID, ShouldEqual, "p1")
				So(stuck[2].Person.ID, ShouldEqual, "p2")
			})
		})
	})

	Convey("Given custom thresholds", t, func() {
		d := pipeline.NewDetector(
			pipeline.WithLeadThreshold(10),
			pipeline.WithApplicantThreshold(5),
		)

		Convey("When a lead is quiet for 12 days", func() {
			people := []model.Person{person("p1", "Lead", model.RoleLead)}
			latest := map[string]time.Time{"p1": daysAgo(12)}

			Convey("Then the tighter threshold flags them", func() {
				So(d.Stuck(people, latest, now), ShouldHaveLength, 1)
			})
		})
	})
}
