package engine

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

type recordingHook struct {
	outcomes  []BranchOutcome
	records   []trace.Record
	summaries []Summary
}

func (h *recordingHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosBranchResolved:
		h.records = append(h.records, ctx.Item.(trace.Record))
		h.outcomes = append(h.outcomes, ctx.Detail.(BranchOutcome))
	case HookPosRunFinished:
		h.summaries = append(h.summaries, ctx.Detail.(Summary))
	}
}

type failingSource struct {
	records []trace.Record
	err     error
}

func (s *failingSource) Next() (trace.Record, error) {
	if len(s.records) == 0 {
		return trace.Record{}, s.err
	}
	r := s.records[0]
	s.records = s.records[1:]
	return r, nil
}

type cancellingSource struct {
	cancel    context.CancelFunc
	remaining int
	served    int
}

func (s *cancellingSource) Next() (trace.Record, error) {
	s.served++
	s.remaining--
	if s.remaining == 0 {
		s.cancel()
	}
	return trace.Record{Addr: 0x10, Taken: true}, nil
}

var referenceTrace = []trace.Record{
	{Addr: 0x4, Taken: false},
	{Addr: 0x4, Taken: false},
	{Addr: 0x4, Taken: true},
	{Addr: 0x4, Taken: false},
}

var _ = Describe("Engine", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("construction", func() {
		It("should start Ready", func() {
			e, err := NewFromString("gshare:13")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.State()).To(Equal(StateReady))
			Expect(e.Summary().Config).To(Equal("gshare:13"))
		})

		It("should fail fast on a bad configuration", func() {
			e, err := NewFromString("tournament:9:10")
			Expect(e).To(BeNil())
			Expect(err).To(MatchError(predictor.ErrArity))
		})

		It("should refuse to run when uninitialized", func() {
			var e Engine
			Expect(e.State()).To(Equal(StateUninitialized))

			_, err := e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).To(MatchError(ErrNotReady))

			_, err = e.Step(referenceTrace[0])
			Expect(err).To(MatchError(ErrNotReady))
		})

		It("should accept hooks when uninitialized", func() {
			var e Engine
			hook := &recordingHook{}

			Expect(func() { e.AcceptHook(hook) }).NotTo(Panic())
			Expect(e.NumHooks()).To(Equal(1))

			_, err := e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).To(MatchError(ErrNotReady))
			Expect(hook.outcomes).To(BeEmpty())
		})

		It("should invoke hooks only when attached", func() {
			e, err := NewFromString("gshare:2")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.NumHooks()).To(BeZero())

			hook := &recordingHook{}
			e.AcceptHook(hook)
			Expect(e.NumHooks()).To(Equal(1))

			_, err = e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).NotTo(HaveOccurred())
			Expect(hook.outcomes).To(HaveLen(len(referenceTrace)))
		})

		It("should name its states", func() {
			Expect(StateUninitialized.String()).To(Equal("uninitialized"))
			Expect(StateReady.String()).To(Equal("ready"))
			Expect(StateFinished.String()).To(Equal("finished"))
		})
	})

	Describe("running a trace", func() {
		It("should reproduce the reference gshare run", func() {
			e, err := NewFromString("gshare:2")
			Expect(err).NotTo(HaveOccurred())

			hook := &recordingHook{}
			e.AcceptHook(hook)

			summary, err := e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Branches).To(Equal(uint64(4)))
			Expect(summary.Mispredictions).To(Equal(uint64(1)))
			Expect(summary.Correct).To(Equal(uint64(3)))
			Expect(summary.MispredictionRate()).To(Equal(0.25))

			predictions := make([]bool, 0, len(hook.outcomes))
			for _, o := range hook.outcomes {
				predictions = append(predictions, o.Predicted)
			}
			Expect(predictions).To(Equal([]bool{false, false, false, false}))
			Expect(hook.records).To(Equal(referenceTrace))
			Expect(hook.outcomes[2].Seq).To(Equal(uint64(3)))
			Expect(hook.outcomes[2].Mispredicted()).To(BeTrue())
			Expect(hook.summaries).To(Equal([]Summary{summary}))
		})

		It("should finish at the end of the trace", func() {
			e, _ := NewFromString("gshare:2")

			_, err := e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.State()).To(Equal(StateFinished))

			_, err = e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).To(MatchError(ErrFinished))

			_, err = e.Step(referenceTrace[0])
			Expect(err).To(MatchError(ErrFinished))
		})

		It("should handle an empty trace", func() {
			summary, err := Run(ctx, "tournament:9:10:10", trace.NewSliceSource(nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Branches).To(BeZero())
			Expect(summary.MispredictionRate()).To(BeZero())
		})

		It("should read a text trace", func() {
			input := "4 0\n4 0\n4 1\n4 0\n"
			summary, err := Run(ctx, "--gshare:2", trace.NewReader(strings.NewReader(input)))
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.String()).To(Equal(
				"Branches: 4 Incorrect: 1 Misprediction Rate: 25.000%"))
		})

		It("should fail the run on a malformed record", func() {
			input := "4 0\n4 maybe\n4 1\n"
			e, _ := NewFromString("gshare:2")

			summary, err := e.Run(ctx, trace.NewReader(strings.NewReader(input)))

			var malformed *trace.MalformedRecordError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(malformed.Line).To(Equal(2))
			Expect(err.Error()).To(HavePrefix("trace record 2:"))
			Expect(summary.Branches).To(Equal(uint64(1)))
			Expect(e.State()).To(Equal(StateFinished))
		})

		It("should wrap source errors", func() {
			boom := errors.New("disk on fire")
			src := &failingSource{records: referenceTrace[:2], err: boom}

			_, err := Run(ctx, "static", src)
			Expect(err).To(MatchError(boom))
		})

		It("should stop consuming when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			src := &cancellingSource{cancel: cancel, remaining: 3}
			e, _ := NewFromString("gshare:4")

			summary, err := e.Run(cctx, src)
			Expect(err).To(MatchError(context.Canceled))
			Expect(src.served).To(Equal(3))
			Expect(summary.Branches).To(Equal(uint64(3)))
			Expect(e.State()).To(Equal(StateReady))
		})

		It("should be deterministic across engines", func() {
			records := make([]trace.Record, 0, 3000)
			for i := 0; i < 3000; i++ {
				addr := uint64(0x1000 + (i*7919)%97*4)
				records = append(records, trace.Record{Addr: addr, Taken: (i*31)%5 < 3})
			}

			for _, config := range []string{"gshare:10", "tournament:9:10:10"} {
				first, err := Run(ctx, config, trace.NewSliceSource(records))
				Expect(err).NotTo(HaveOccurred())
				second, err := Run(ctx, config, trace.NewSliceSource(records))
				Expect(err).NotTo(HaveOccurred())
				Expect(second).To(Equal(first))
			}
		})
	})

	Describe("predict/update ordering", func() {
		var (
			mockCtrl *gomock.Controller
			mock     *MockPredictor
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			mock = NewMockPredictor(mockCtrl)
			mock.EXPECT().Name().Return("mock").AnyTimes()
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should predict before revealing the outcome", func() {
			gomock.InOrder(
				mock.EXPECT().Predict(uint64(0x10)).Return(true),
				mock.EXPECT().Update(uint64(0x10), false),
				mock.EXPECT().Predict(uint64(0x20)).Return(false),
				mock.EXPECT().Update(uint64(0x20), false),
			)

			e := NewWithPredictor(mock)
			summary, err := e.Run(ctx, trace.NewSliceSource([]trace.Record{
				{Addr: 0x10, Taken: false},
				{Addr: 0x20, Taken: false},
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Config).To(Equal("mock"))
			Expect(summary.Mispredictions).To(Equal(uint64(1)))
		})

		It("should return the prediction from Step", func() {
			mock.EXPECT().Predict(uint64(0x30)).Return(true)
			mock.EXPECT().Update(uint64(0x30), true)

			e := NewWithPredictor(mock)
			predicted, err := e.Step(trace.Record{Addr: 0x30, Taken: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(predicted).To(BeTrue())
			Expect(e.Summary().Correct).To(Equal(uint64(1)))
			Expect(e.State()).To(Equal(StateReady))
		})
	})

	Describe("LogHook", func() {
		It("should log mispredictions and the final summary", func() {
			var buf bytes.Buffer
			hook := NewLogHook(log.New(&buf, "", 0))

			e, _ := NewFromString("gshare:2")
			e.AcceptHook(hook)
			_, err := e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).NotTo(HaveOccurred())

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(Equal([]string{
				"#3 pc=0x4 predicted=N actual=T",
				"finished: Branches: 4 Incorrect: 1 Misprediction Rate: 25.000%",
			}))
		})

		It("should log every branch when asked to", func() {
			var buf bytes.Buffer
			hook := NewLogHook(log.New(&buf, "", 0))
			hook.LogAll = true

			e, _ := NewFromString("static")
			e.AcceptHook(hook)
			_, err := e.Run(ctx, trace.NewSliceSource(referenceTrace))
			Expect(err).NotTo(HaveOccurred())

			Expect(strings.Count(buf.String(), "pc=0x4")).To(Equal(4))
		})
	})
})

var _ = Describe("Summary", func() {
	It("should compute rates", func() {
		s := Summary{Branches: 8, Correct: 6, Mispredictions: 2}
		Expect(s.MispredictionRate()).To(Equal(0.25))
		Expect(s.Accuracy()).To(Equal(0.75))
	})

	It("should report zero rates for an empty run", func() {
		s := Summary{}
		Expect(s.Accuracy()).To(BeZero())
		Expect(s.String()).To(Equal("Branches: 0 Incorrect: 0 Misprediction Rate: 0.000%"))
	})
})
