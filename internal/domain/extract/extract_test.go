package extract_test

import (
	"testing"

	"github.com/okian/applyflow/internal/domain/extract"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractSkills(t *testing.T) {
	Convey("Given the default extractor", t, func() {
		e := extract.New()

		Convey("When the text names known skills", func() {
			skills := e.ExtractSkills("We need Terraform, Docker, and AWS experience.")

			Convey("Then exactly those skills are returned in vocabulary order", func() {
				So(skills, ShouldResemble, []string{"aws", "docker", "terraform"})
			})
		})

		Convey("When the text uses different casing", func() {
			skills := e.ExtractSkills("Experience with KUBERNETES and Python required.")

			Convey("Then matching is case-insensitive", func() {
				So(skills, ShouldContain, "kubernetes")
				So(skills, ShouldContain, "python")
			})
		})

		Convey("When the text has no skills", func() {
			skills := e.ExtractSkills("We are a great company with amazing culture.")

			Convey("Then an empty, non-nil slice is returned", func() {
				So(skills, ShouldNotBeNil)
				So(skills, ShouldBeEmpty)
			})
		})

		Convey("When a skill is mentioned repeatedly", func() {
			skills := e.ExtractSkills("docker docker DOCKER and Helm charts")

			Convey("Then it appears once", func() {
				So(skills, ShouldResemble, []string{"docker", "helm chart"})
			})
		})

		Convey("When common words contain short acronyms", func() {
			text := "Digital standards work: translated specs for weeks, an overwhelming " +
				"diameter of JavaScript, Slack and slow slides."

			Convey("Then none of them is reported as a skill", func() {
				So(e.ExtractSkills(text), ShouldBeEmpty)
			})
		})

		Convey("When the long forms are used", func() {
			skills := e.ExtractSkills("Amazon ECS, Amazon EKS, Amazon RDS and AWS IAM policies; GitHub; SLOs")

			Convey("Then they are extracted", func() {
				So(skills, ShouldResemble, []string{
					"aws", "amazon ecs", "amazon eks", "amazon rds", "aws iam", "slos", "github",
				})
			})
		})

		Convey("When the text is empty", func() {
			So(e.ExtractSkills(""), ShouldBeEmpty)
		})
	})

	Convey("Given a custom vocabulary", t, func() {
		e := extract.New(extract.WithVocabulary(extract.NewVocabulary("Rust", " rust ", "", "Kafka")))

		Convey("Then tokens are normalized and deduplicated", func() {
			So(e.Vocabulary().Tokens(), ShouldResemble, []string{"rust", "kafka"})
			So(e.ExtractSkills("Kafka and RUST"), ShouldResemble, []string{"rust", "kafka"})
			So(e.ExtractSkills("terraform"), ShouldBeEmpty)
		})
	})

	Convey("Given the default vocabulary", t, func() {
		v := extract.DefaultVocabulary()

		Convey("Then it has no duplicates and no colliding short tokens", func() {
			seen := map[string]bool{}
			for _, tok := range v.Tokens() {
				So(seen[tok], ShouldBeFalse)
				seen[tok] = true
			}
			for _, tok := range []string{"go", "git", "rds", "sla", "ecs", "eks", "helm", "iam", "java"} {
				So(seen[tok], ShouldBeFalse)
			}
			So(seen["golang"], ShouldBeTrue)
		})
	})
}

func TestExtractYears(t *testing.T) {
	Convey("Given the default extractor", t, func() {
		e := extract.New()

		cases := []struct {
			text string
			want int
		}{
			{"Requires 3+ years of experience", 3},
			{"5-7 years experience required", 5},
			{"You have 4 years of experience", 4},
			{"No experience required", 0},
			{"2+ years required, ideally 5 years of experience", 2},
			{"3 to 5 years in operations", 3},
			{"10+ years", 10},
			{"1 year of experience", 1},
			{"founded 20 years ago", 0},
			{"", 0},
		}

		for _, c := range cases {
			Convey("When parsing "+c.text, func() {
				So(e.ExtractYears(c.text), ShouldEqual, c.want)
			})
		}
	})
}
