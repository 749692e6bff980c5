package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("SaturatingCounter", func() {
	It("should predict taken only in the upper two states", func() {
		Expect(predictor.StronglyNotTaken.Predict()).To(BeFalse())
		Expect(predictor.WeaklyNotTaken.Predict()).To(BeFalse())
		Expect(predictor.WeaklyTaken.Predict()).To(BeTrue())
		Expect(predictor.StronglyTaken.Predict()).To(BeTrue())
	})

	It("should saturate at 3 when taken", func() {
		c := predictor.StronglyTaken
		c.Adjust(true)
		Expect(c).To(Equal(predictor.StronglyTaken))
	})

	It("should saturate at 0 when not taken", func() {
		c := predictor.StronglyNotTaken
		c.Adjust(false)
		Expect(c).To(Equal(predictor.StronglyNotTaken))
	})

	It("should require 2 mispredictions to change direction", func() {
		c := predictor.StronglyTaken

		c.Adjust(false)
		Expect(c.Predict()).To(BeTrue())

		c.Adjust(false)
		Expect(c.Predict()).To(BeFalse())
	})

	It("should never leave the 2-bit range", func() {
		c := predictor.WeaklyNotTaken
		pattern := []bool{true, true, true, true, true, false, false, false, false, false, false, true}

		for i := 0; i < 50; i++ {
			c.Adjust(pattern[i%len(pattern)])
			Expect(c.Valid()).To(BeTrue())
			Expect(uint8(c)).To(BeNumerically("<=", 3))
		}
	})

	It("should name its states", func() {
		Expect(predictor.WeaklyNotTaken.String()).To(Equal("weakly-not-taken"))
		Expect(predictor.SaturatingCounter(7).String()).To(Equal("invalid"))
	})
})

var _ = Describe("PredictionTable", func() {
	It("should have 2^bits entries set to the initial state", func() {
		t := predictor.NewPredictionTable(4, predictor.WeaklyTaken)
		Expect(t.Size()).To(Equal(16))

		for _, c := range t.Snapshot() {
			Expect(c).To(Equal(predictor.WeaklyTaken))
		}
	})

	It("should clamp widths the index cannot address", func() {
		t := predictor.NewPredictionTable(64, predictor.WeaklyNotTaken)
		Expect(t.Size()).To(Equal(1 << predictor.MaxTableBits))

		Expect(func() { t.Lookup(^uint64(0)).Adjust(true) }).NotTo(Panic())
		Expect(t.Lookup(1<<predictor.MaxTableBits - 1).Predict()).To(BeTrue())
	})

	It("should reduce the index modulo its size", func() {
		t := predictor.NewPredictionTable(3, predictor.WeaklyNotTaken)

		t.Lookup(2).Adjust(true)
		Expect(t.Lookup(2 + 8)).To(BeIdenticalTo(t.Lookup(2)))
		Expect(t.Lookup(2 + 8*5).Predict()).To(BeTrue())
	})

	It("should return a mutable reference", func() {
		t := predictor.NewPredictionTable(2, predictor.WeaklyNotTaken)

		t.Lookup(1).Adjust(false)
		Expect(*t.Lookup(1)).To(Equal(predictor.StronglyNotTaken))
		Expect(*t.Lookup(0)).To(Equal(predictor.WeaklyNotTaken))
	})

	It("should return a snapshot that does not alias the table", func() {
		t := predictor.NewPredictionTable(1, predictor.WeaklyNotTaken)
		snap := t.Snapshot()

		t.Lookup(0).Adjust(true)
		Expect(snap[0]).To(Equal(predictor.WeaklyNotTaken))
	})

	It("should support a single-entry table", func() {
		t := predictor.NewPredictionTable(0, predictor.WeaklyNotTaken)
		Expect(t.Size()).To(Equal(1))
		Expect(t.Lookup(0xDEADBEEF)).To(BeIdenticalTo(t.Lookup(0)))
	})
})
