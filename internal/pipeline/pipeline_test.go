package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
)

type tag struct{ Step int64 }

func noop() pipeline.Stage {
	return pipeline.StageFunc(func(context.Context, *ecs.World) error { return nil })
}

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

var _ = Describe("Builder", func() {
	It("levels stages after all of their dependencies", func() {
		d, err := pipeline.NewBuilder().
			Add("force", noop(), "rate", "gradient").
			Add("index", noop()).
			Add("intensity", noop(), "index").
			Add("gradient", noop(), "index").
			Add("detuning", noop(), "index").
			Add("rate", noop(), "detuning", "intensity").
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Levels()).To(Equal([][]string{
			{"index"},
			{"intensity", "gradient", "detuning"},
			{"rate"},
			{"force"},
		}))

		order := d.Order()
		Expect(indexOf(order, "index")).To(BeNumerically("<", indexOf(order, "detuning")))
		Expect(indexOf(order, "rate")).To(BeNumerically("<", indexOf(order, "force")))
	})

	It("rejects unknown dependencies", func() {
		_, err := pipeline.NewBuilder().Add("a", noop(), "missing").Build()
		Expect(err).To(MatchError(pipeline.ErrUnknownDependency))
	})

	It("rejects duplicate names", func() {
		_, err := pipeline.NewBuilder().Add("a", noop()).Add("a", noop()).Build()
		Expect(err).To(MatchError(pipeline.ErrDuplicateStage))
	})

	It("rejects empty names", func() {
		_, err := pipeline.NewBuilder().Add(" ", noop()).Build()
		Expect(err).To(MatchError(pipeline.ErrEmptyName))
	})

	It("rejects cycles", func() {
		_, err := pipeline.NewBuilder().
			Add("a", noop(), "c").
			Add("b", noop(), "a").
			Add("c", noop(), "b").
			Add("free", noop()).
			Build()
		Expect(err).To(MatchError(pipeline.ErrCyclicDependency))
	})

	It("builds an empty graph", func() {
		d, err := pipeline.NewBuilder().Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Order()).To(BeEmpty())
		Expect(d.Dispatch(context.Background(), ecs.NewWorld())).To(Succeed())
	})
})

var _ = Describe("Dispatcher", func() {
	var w *ecs.World

	BeforeEach(func() {
		w = ecs.NewWorld()
	})

	It("never lets a dependent observe the previous step's value", func() {
		var step atomic.Int64
		var written atomic.Int64
		var seen []int64
		var mu sync.Mutex

		slowIndexer := pipeline.StageFunc(func(context.Context, *ecs.World) error {
			time.Sleep(5 * time.Millisecond)
			written.Store(step.Load())
			return nil
		})
		detuning := pipeline.StageFunc(func(context.Context, *ecs.World) error {
			mu.Lock()
			seen = append(seen, written.Load())
			mu.Unlock()
			return nil
		})

		d, err := pipeline.NewBuilder().
			Add("detuning", detuning, "index").
			Add("index", slowIndexer).
			Add("unrelated", noop()).
			Build()
		Expect(err).NotTo(HaveOccurred())

		for i := int64(1); i <= 5; i++ {
			step.Store(i)
			Expect(d.Dispatch(context.Background(), w)).To(Succeed())
		}
		Expect(seen).To(Equal([]int64{1, 2, 3, 4, 5}))
	})

	It("waits for every stage of a level before the next level", func() {
		var done atomic.Int32
		var observed int32

		slow := func(delay time.Duration) pipeline.Stage {
			return pipeline.StageFunc(func(context.Context, *ecs.World) error {
				time.Sleep(delay)
				done.Add(1)
				return nil
			})
		}

		d, err := pipeline.NewBuilder().
			Add("a", slow(10*time.Millisecond)).
			Add("b", slow(1*time.Millisecond)).
			Add("c", slow(5*time.Millisecond)).
			Add("sink", pipeline.StageFunc(func(context.Context, *ecs.World) error {
				observed = done.Load()
				return nil
			}), "a", "b", "c").
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Dispatch(context.Background(), w)).To(Succeed())
		Expect(observed).To(Equal(int32(3)))
	})

	It("applies deferred commands at the level barrier", func() {
		ecs.Register[tag](w)
		e := w.CreateEntity()
		var visible bool

		d, err := pipeline.NewBuilder().
			Add("attach", pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
				ecs.InsertLater(w.Commands(), e, tag{Step: 1})
				return nil
			})).
			Add("read", pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
				visible = ecs.Storage[tag](w).Has(e)
				return nil
			}), "attach").
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Dispatch(context.Background(), w)).To(Succeed())
		Expect(visible).To(BeTrue())
	})

	It("aborts the step on the first stage error", func() {
		boom := errors.New("boom")
		var sinkRan atomic.Bool
		var timings []string
		var mu sync.Mutex

		d, err := pipeline.NewBuilder().
			WithObserver(func(stage string, _ time.Duration, _ error) {
				mu.Lock()
				timings = append(timings, stage)
				mu.Unlock()
			}).
			Add("index", pipeline.StageFunc(func(context.Context, *ecs.World) error { return boom })).
			Add("force", pipeline.StageFunc(func(context.Context, *ecs.World) error {
				sinkRan.Store(true)
				return nil
			}), "index").
			Build()
		Expect(err).NotTo(HaveOccurred())

		err = d.Dispatch(context.Background(), w)
		Expect(err).To(MatchError(boom))

		var stageErr *pipeline.StageError
		Expect(errors.As(err, &stageErr)).To(BeTrue())
		Expect(stageErr.Stage).To(Equal("index"))
		Expect(sinkRan.Load()).To(BeFalse())
		Expect(timings).To(ConsistOf("index"))
	})

	It("stops before the first level when the context is cancelled", func() {
		var ran atomic.Bool
		d, err := pipeline.NewBuilder().
			Add("a", pipeline.StageFunc(func(context.Context, *ecs.World) error {
				ran.Store(true)
				return nil
			})).
			Build()
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(d.Dispatch(ctx, w)).To(MatchError(context.Canceled))
		Expect(ran.Load()).To(BeFalse())
	})
})
