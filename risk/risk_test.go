package risk_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/risk"
)

// baseline returns a profile with a complete lipid panel and no extra risk
// factors so specs can flip one factor at a time.
func baseline(age int, sex string) risk.Profile {
	return risk.Profile{
		Age:              pointer.FromAny(age),
		Sex:              sex,
		SystolicBP:       pointer.FromAny(120),
		TotalCholesterol: pointer.FromAny(150.0),
		HDL:              pointer.FromAny(45.0),
	}
}

var _ = Describe("Framingham", func() {
	It("returns nil outside the validated age range", func() {
		Expect(risk.Framingham(baseline(25, "M"))).To(BeNil())
		Expect(risk.Framingham(baseline(80, "M"))).To(BeNil())
	})

	It("returns nil when the lipid panel is incomplete", func() {
		profile := baseline(55, "M")
		profile.HDL = nil
		Expect(risk.Framingham(profile)).To(BeNil())

		profile = baseline(55, "M")
		profile.Sex = ""
		Expect(risk.Framingham(profile)).To(BeNil())
	})

	It("accumulates points across all factors", func() {
		profile := baseline(55, "M")
		profile.SystolicBP = pointer.FromAny(150)
		profile.TotalCholesterol = pointer.FromAny(250.0)
		profile.HDL = pointer.FromAny(38.0)
		profile.Smoker = true
		profile.Diabetic = true

		result := risk.Framingham(profile)
		Expect(result).ToNot(BeNil())
		// age 5, cholesterol 2, hdl 2, untreated bp 1, smoker 2, diabetes 2
		Expect(result.Points).To(Equal(14))
		Expect(result.Percentage).To(Equal(22.0))
		Expect(result.Category).To(Equal(risk.CategoryMuyAlto))
		Expect(result.Algorithm).To(Equal(risk.AlgorithmFramingham))
	})

	It("weights smoking heavier for women", func() {
		male := baseline(42, "M")
		male.Smoker = true
		female := baseline(42, "F")
		female.Smoker = true

		// age 2 + smoker 2 = 4 points vs age 3 + smoker 3 = 6 points
		Expect(risk.Framingham(male).Points).To(Equal(4))
		Expect(risk.Framingham(female).Points).To(Equal(6))
		Expect(risk.Framingham(female).Percentage).To(Equal(6.5))
		Expect(risk.Framingham(female).Category).To(Equal(risk.CategoryModerado))
	})

	It("treats high HDL as protective", func() {
		profile := baseline(42, "M")
		profile.HDL = pointer.FromAny(65.0)
		// age 2 - hdl 1 = 1 point
		Expect(risk.Framingham(profile).Points).To(Equal(1))
	})

	It("penalizes treated blood pressure one band earlier", func() {
		treated := baseline(42, "M")
		treated.SystolicBP = pointer.FromAny(135)
		treated.OnBPMeds = true
		untreated := baseline(42, "M")
		untreated.SystolicBP = pointer.FromAny(135)

		Expect(risk.Framingham(treated).Points).To(Equal(3))
		Expect(risk.Framingham(untreated).Points).To(Equal(2))
	})

	It("floors the percentage at 1 for non-positive points", func() {
		profile := baseline(35, "M")
		profile.HDL = pointer.FromAny(70.0)
		result := risk.Framingham(profile)
		Expect(result.Points).To(Equal(-1))
		Expect(result.Percentage).To(Equal(1.0))
		Expect(result.Category).To(Equal(risk.CategoryBajo))
	})

	It("caps the percentage at 40", func() {
		profile := baseline(74, "F")
		profile.SystolicBP = pointer.FromAny(170)
		profile.TotalCholesterol = pointer.FromAny(300.0)
		profile.HDL = pointer.FromAny(30.0)
		profile.Smoker = true
		profile.Diabetic = true
		profile.OnBPMeds = true

		result := risk.Framingham(profile)
		// age 12, cholesterol 3, hdl 2, treated bp 3, smoker 3, diabetes 2
		Expect(result.Points).To(Equal(25))
		Expect(result.Percentage).To(Equal(40.0))
	})
})

var _ = Describe("ASCVD", func() {
	It("returns nil outside 40-79", func() {
		Expect(risk.ASCVD(baseline(35, "M"))).To(BeNil())
		Expect(risk.ASCVD(baseline(80, "M"))).To(BeNil())
	})

	It("builds a linear score from age and factors", func() {
		profile := baseline(60, "M")
		profile.SystolicBP = pointer.FromAny(145)
		profile.TotalCholesterol = pointer.FromAny(210.0)
		profile.HDL = pointer.FromAny(38.0)
		profile.Smoker = true
		profile.Diabetic = true

		result := risk.ASCVD(profile)
		Expect(result).ToNot(BeNil())
		// base 10 + chol 1.5 + hdl 2 + bp 1.5 + smoker 2.5 + diabetes 2.5
		Expect(result.Percentage).To(Equal(20.0))
		Expect(result.Category).To(Equal(risk.CategoryAlto))
	})

	It("adjusts the score by race", func() {
		profile := baseline(60, "M")
		profile.SystolicBP = pointer.FromAny(145)
		profile.TotalCholesterol = pointer.FromAny(210.0)
		profile.HDL = pointer.FromAny(38.0)
		profile.Smoker = true
		profile.Diabetic = true

		profile.Race = risk.RaceBlack
		Expect(risk.ASCVD(profile).Percentage).To(Equal(23.0))

		profile.Race = risk.RaceHispanic
		Expect(risk.ASCVD(profile).Percentage).To(Equal(19.0))
		Expect(risk.ASCVD(profile).Category).To(Equal(risk.CategoryIntermedio))
	})

	It("clamps the percentage to the 0.5-50 range", func() {
		low := baseline(40, "F")
		low.HDL = pointer.FromAny(65.0)
		result := risk.ASCVD(low)
		Expect(result.Percentage).To(Equal(0.5))
		Expect(result.Category).To(Equal(risk.CategoryBajo))
	})

	It("uses the borderline band between 5 and 7.5", func() {
		profile := baseline(55, "M")
		// base 7.5, no other factors
		result := risk.ASCVD(profile)
		Expect(result.Percentage).To(Equal(7.5))
		Expect(result.Category).To(Equal(risk.CategoryIntermedio))

		profile = baseline(54, "M")
		result = risk.ASCVD(profile)
		Expect(result.Percentage).To(Equal(7.0))
		Expect(result.Category).To(Equal(risk.CategoryBorderline))
	})
})

var _ = Describe("Ausangate", func() {
	It("returns nil outside 30-74", func() {
		Expect(risk.Ausangate(baseline(29, "M"))).To(BeNil())
		Expect(risk.Ausangate(baseline(75, "M"))).To(BeNil())
	})

	It("tiers glucose below the diabetes diagnosis", func() {
		prediabetes := baseline(40, "M")
		prediabetes.Glucose = pointer.FromAny(105.0)
		undiagnosed := baseline(40, "M")
		undiagnosed.Glucose = pointer.FromAny(130.0)
		diabetic := baseline(40, "M")
		diabetic.Glucose = pointer.FromAny(130.0)
		diabetic.Diabetic = true

		// base: age 3 + bp 1 = 4 points
		Expect(risk.Ausangate(prediabetes).Points).To(Equal(6))
		Expect(risk.Ausangate(undiagnosed).Points).To(Equal(7))
		Expect(risk.Ausangate(diabetic).Points).To(Equal(8))
	})

	It("scores BMI bands when present", func() {
		profile := baseline(40, "M")
		profile.BMI = pointer.FromAny(31.0)
		Expect(risk.Ausangate(profile).Points).To(Equal(6))

		profile.BMI = nil
		Expect(risk.Ausangate(profile).Points).To(Equal(4))
	})

	It("uses the lower protective HDL cutoff", func() {
		profile := baseline(40, "M")
		profile.HDL = pointer.FromAny(34.0)
		Expect(risk.Ausangate(profile).Points).To(Equal(7))

		profile.HDL = pointer.FromAny(38.0)
		Expect(risk.Ausangate(profile).Points).To(Equal(6))
	})

	It("maps points to the adapted percentage scale", func() {
		profile := baseline(45, "M")
		profile.SystolicBP = pointer.FromAny(165)
		profile.TotalCholesterol = pointer.FromAny(285.0)
		profile.HDL = pointer.FromAny(30.0)
		profile.Smoker = true
		profile.Diabetic = true
		profile.BMI = pointer.FromAny(36.0)

		result := risk.Ausangate(profile)
		// age 6 + bp 4 + chol 3 + hdl 3 + diabetes 4 + smoker 3 + bmi 3
		Expect(result.Points).To(Equal(26))
		Expect(result.Percentage).To(Equal(47.0))
		Expect(result.Category).To(Equal(risk.CategoryMuyAlto))
		Expect(result.Notes).ToNot(BeEmpty())
	})
})

var _ = Describe("Comprehensive", func() {
	It("returns the low-risk defaults when no algorithm applies", func() {
		comparison := risk.Comprehensive(baseline(25, "M"))
		Expect(comparison.Framingham).To(BeNil())
		Expect(comparison.ASCVD).To(BeNil())
		Expect(comparison.Ausangate).To(BeNil())
		Expect(comparison.HighestPercentage).To(BeZero())
		Expect(comparison.OverallCategory).To(Equal(risk.CategoryBajo))
		Expect(comparison.Recommended).To(Equal(risk.AlgorithmAusangate))
		Expect(comparison.Recommendations).To(HaveLen(2))
	})

	It("keeps ausangate as recommended on ties", func() {
		// Framingham and Ausangate both land on 3.0% here while ASCVD
		// clamps to 0.5%, so the default must survive.
		comparison := risk.Comprehensive(baseline(40, "M"))
		Expect(comparison.Framingham.Percentage).To(Equal(3.0))
		Expect(comparison.Ausangate.Percentage).To(Equal(3.0))
		Expect(comparison.ASCVD.Percentage).To(Equal(0.5))
		Expect(comparison.HighestPercentage).To(Equal(3.0))
		Expect(comparison.Recommended).To(Equal(risk.AlgorithmAusangate))
	})

	It("switches to ascvd only when it strictly exceeds the running maximum", func() {
		// At 79 only ASCVD runs.
		profile := baseline(79, "M")
		profile.SystolicBP = pointer.FromAny(140)

		comparison := risk.Comprehensive(profile)
		Expect(comparison.Framingham).To(BeNil())
		Expect(comparison.Ausangate).To(BeNil())
		Expect(comparison.Recommended).To(Equal(risk.AlgorithmASCVD))
		Expect(comparison.HighestPercentage).To(Equal(21.0))
		Expect(comparison.OverallCategory).To(Equal(risk.CategoryAlto))
		Expect(comparison.Recommendations).To(HaveLen(5))
	})

	It("hands the recommendation back to ausangate when it overtakes", func() {
		profile := baseline(45, "M")
		profile.Race = risk.RaceHispanic
		profile.SystolicBP = pointer.FromAny(165)
		profile.TotalCholesterol = pointer.FromAny(285.0)
		profile.HDL = pointer.FromAny(30.0)
		profile.Smoker = true
		profile.Diabetic = true
		profile.BMI = pointer.FromAny(36.0)

		comparison := risk.Comprehensive(profile)
		Expect(comparison.Framingham.Percentage).To(Equal(19.5))
		Expect(comparison.ASCVD.Percentage).To(Equal(14.7))
		Expect(comparison.Ausangate.Percentage).To(Equal(47.0))
		Expect(comparison.Recommended).To(Equal(risk.AlgorithmAusangate))
		Expect(comparison.OverallCategory).To(Equal(risk.CategoryMuyAlto))
		Expect(comparison.HighestPercentage).To(Equal(47.0))
	})

	It("bands the recommendations by the highest percentage", func() {
		moderate := baseline(50, "F")
		moderate.SystolicBP = pointer.FromAny(145)
		moderate.TotalCholesterol = pointer.FromAny(250.0)
		comparison := risk.Comprehensive(moderate)
		// Ausangate: age 4 + bp 3 + chol 2 = 9 points -> 11.0%
		Expect(comparison.HighestPercentage).To(Equal(11.0))
		Expect(comparison.Recommendations).To(HaveLen(4))
	})
})
