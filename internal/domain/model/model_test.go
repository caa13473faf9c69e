package model_test

import (
	"errors"
	"testing"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPostingID(t *testing.T) {
	convey.Convey("Given a posting identity", t, func() {
		convey.Convey("When the same source, company and title are hashed twice", func() {
			a := model.PostingID("greenhouse", "datadog", "Senior SRE")
			b := model.PostingID("greenhouse", "datadog", "Senior SRE")

			convey.Convey("Then the ids are equal and hex encoded", func() {
				convey.So(a, convey.ShouldEqual, b)
				convey.So(len(a), convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When any component differs", func() {
			base := model.PostingID("greenhouse", "datadog", "Senior SRE")

			convey.Convey("Then the id changes", func() {
				convey.So(model.PostingID("adzuna", "datadog", "Senior SRE"), convey.ShouldNotEqual, base)
				convey.So(model.PostingID("greenhouse", "elastic", "Senior SRE"), convey.ShouldNotEqual, base)
				convey.So(model.PostingID("greenhouse", "datadog", "Staff SRE"), convey.ShouldNotEqual, base)
			})
		})

		convey.Convey("Then it matches the md5 of the dash-joined fields", func() {
			convey.So(model.PostingID("greenhouse", "acme", "SRE"), convey.ShouldEqual, "f12a35fd5e38f8916ad0558fb5cbdc43")
		})
	})
}

func TestNewPosting(t *testing.T) {
	convey.Convey("Given raw posting fields", t, func() {
		p := model.NewPosting("greenhouse", "cloudflare", "Platform Engineer", "Remote - US", "desc", "https://x")

		convey.Convey("Then id and remote are derived", func() {
			convey.So(p.ID, convey.ShouldEqual, model.PostingID("greenhouse", "cloudflare", "Platform Engineer"))
			convey.So(p.Remote, convey.ShouldBeTrue)
			convey.So(p.RequiredSkills, convey.ShouldBeEmpty)
			convey.So(p.RequiredYears, convey.ShouldEqual, 0)
		})

		convey.Convey("Then office locations are not remote", func() {
			convey.So(model.IsRemote("Austin, TX"), convey.ShouldBeFalse)
			convey.So(model.IsRemote("REMOTE"), convey.ShouldBeTrue)
		})
	})
}

func TestParseStatus(t *testing.T) {
	convey.Convey("Given status strings", t, func() {
		convey.Convey("When every known value is parsed", func() {
			for _, st := range model.Statuses() {
				got, err := model.ParseStatus(string(st))
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, st)
			}
		})

		convey.Convey("When an unknown value is parsed", func() {
			_, err := model.ParseStatus("hired")

			convey.Convey("Then ErrInvalidStatus is returned", func() {
				convey.So(errors.Is(err, model.ErrInvalidStatus), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When casing differs", func() {
			_, err := model.ParseStatus("Applied")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestTransitions(t *testing.T) {
	convey.Convey("Given the lifecycle graph", t, func() {
		convey.So(model.CanTransition(model.StatusNew, model.StatusApplied), convey.ShouldBeTrue)
		convey.So(model.CanTransition(model.StatusApplied, model.StatusRejected), convey.ShouldBeTrue)
		convey.So(model.CanTransition(model.StatusFinalRound, model.StatusOffer), convey.ShouldBeTrue)
		convey.So(model.CanTransition(model.StatusNew, model.StatusOffer), convey.ShouldBeFalse)
		convey.So(model.CanTransition(model.StatusOffer, model.StatusRejected), convey.ShouldBeFalse)

		convey.So(model.StatusOffer.Terminal(), convey.ShouldBeTrue)
		convey.So(model.StatusRejected.Terminal(), convey.ShouldBeTrue)
		convey.So(model.StatusTechnical.Terminal(), convey.ShouldBeFalse)

		convey.So(model.IsInterviewing(model.StatusPhoneScreen), convey.ShouldBeTrue)
		convey.So(model.IsInterviewing(model.StatusApplied), convey.ShouldBeFalse)
	})
}
