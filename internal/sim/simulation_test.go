package sim_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/metrics"
	"github.com/san-kum/levelflow/internal/sim"
)

// eager spawns on every tick and always picks the same index.
type eager struct {
	pick func(n int) int
}

func (e eager) Float64() float64 { return 0 }

func (e eager) Intn(n int) int {
	if e.pick == nil {
		return 0
	}
	return e.pick(n)
}

func newSim(rng eager) *sim.Simulation {
	opts := sim.DefaultOptions()
	opts.Rand = rng
	s, err := sim.New(opts)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func tickN(s *sim.Simulation, n int) {
	for i := 0; i < n; i++ {
		s.Tick(float64(i) * sim.FrameMillis)
	}
}

var _ = Describe("Simulation", func() {
	var s *sim.Simulation

	BeforeEach(func() {
		s = newSim(eager{})
	})

	It("starts idle with default parameters", func() {
		Expect(s.State()).To(Equal(sim.Idle))
		Expect(s.Complexity()).To(Equal(5))
		Expect(s.Coupling()).To(Equal(dynamo.Coupling{1, 1, 1}))
		Expect(s.Population()).To(BeZero())
		Expect(s.Description()).To(BeEmpty())
	})

	It("does not spawn while idle", func() {
		tickN(s, 100)
		Expect(s.Population()).To(BeZero())
		Expect(s.LastFrame().Tick).To(BeEquivalentTo(100))
	})

	It("returns and stores the mode description on toggle", func() {
		desc := s.ToggleMode(dynamo.EnergyFlow)
		Expect(desc).To(Equal(dynamo.EnergyFlow.Description()))
		Expect(s.Description()).To(Equal(desc))
		Expect(s.State()).To(Equal(sim.Running))

		s.ToggleMode(dynamo.EnergyFlow)
		Expect(s.State()).To(Equal(sim.Idle))
		Expect(s.Description()).To(Equal(desc))
	})

	Context("with a mode active", func() {
		BeforeEach(func() {
			s.ToggleMode(dynamo.FeedbackLoop)
		})

		It("never exceeds the population cap", func() {
			for i := 0; i < 300; i++ {
				stats := s.Tick(float64(i) * sim.FrameMillis)
				Expect(stats.Population).To(BeNumerically("<=", stats.Capacity))
				if i == 49 {
					Expect(stats.Population).To(Equal(spawnCap))
				}
			}
		})

		It("keeps every live particle within progress bounds", func() {
			for i := 0; i < 200; i++ {
				snap := s.Frame(float64(i) * sim.FrameMillis)
				for _, p := range snap.Particles {
					Expect(p.Progress).To(BeNumerically(">=", 0))
					Expect(p.Progress).To(BeNumerically("<=", 1))
					Expect(len(p.Trail)).To(BeNumerically("<=", 5))
				}
			}
		})

		It("expires particles after roughly fifty ticks at unit coupling", func() {
			s.Tick(0)
			Expect(s.Population()).To(Equal(1))
			snap := s.Snapshot()
			id := snap.Particles[0].ID

			tickN(s, 45)
			_, alive := s.Snapshot().Particle(id)
			Expect(alive).To(BeTrue())

			tickN(s, 10)
			_, alive = s.Snapshot().Particle(id)
			Expect(alive).To(BeFalse())
		})
	})

	Describe("controls", func() {
		It("rejects out-of-range complexity and leaves state unchanged", func() {
			err := s.SetComplexity(7)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			var ce *dynamo.ControlError
			Expect(err).To(BeAssignableToTypeOf(ce))
			Expect(s.Complexity()).To(Equal(5))

			Expect(s.SetComplexity(1)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(s.SetComplexity(2)).To(Succeed())
			Expect(s.Complexity()).To(Equal(2))
		})

		It("rejects out-of-range coupling and unknown pairs", func() {
			Expect(s.SetCoupling(0, 2.5)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(s.SetCoupling(0, 0.05)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(s.SetCoupling(3, 1)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(s.Coupling()).To(Equal(dynamo.Coupling{1, 1, 1}))

			Expect(s.SetCoupling(1, 2)).To(Succeed())
			Expect(s.Coupling()).To(Equal(dynamo.Coupling{1, 2, 1}))
		})

		It("drops particles addressing removed nodes when complexity shrinks", func() {
			s = newSim(eager{pick: func(n int) int { return n - 1 }})
			s.ToggleMode(dynamo.EnergyFlow)
			tickN(s, 5)
			Expect(s.Population()).To(Equal(5))

			Expect(s.SetComplexity(3)).To(Succeed())
			Expect(s.Population()).To(BeZero())
			tickN(s, 3)
			for _, p := range s.Snapshot().Particles {
				Expect(p.Start.Node).To(BeNumerically("<", 3))
				Expect(p.End.Node).To(BeNumerically("<", 3))
			}
		})

		It("restores defaults on reset", func() {
			s.ToggleMode(dynamo.Emergence)
			s.ToggleMode(dynamo.FeedbackLoop)
			Expect(s.SetComplexity(3)).To(Succeed())
			Expect(s.SetCoupling(2, 1.7)).To(Succeed())
			tickN(s, 300)
			Expect(s.MemoryEntries()).NotTo(BeEmpty())

			s.Reset()
			Expect(s.State()).To(Equal(sim.Idle))
			Expect(s.Population()).To(BeZero())
			Expect(s.MemoryEntries()).To(BeEmpty())
			Expect(s.Complexity()).To(Equal(5))
			Expect(s.Coupling()).To(Equal(dynamo.Coupling{1, 1, 1}))
			Expect(s.Description()).To(BeEmpty())
		})
	})

	Describe("edge memory", func() {
		It("reveals the learned color once an edge has settled", func() {
			s.ToggleMode(dynamo.Emergence)
			tickN(s, 400)

			key := dynamo.EdgeKey{StartLevel: dynamo.Quantum, StartNode: 0, EndLevel: dynamo.Molecular, EndNode: 0}
			var found bool
			for _, e := range s.Snapshot().Edges {
				if e.Key == key {
					found = true
					Expect(e.Learned).To(BeTrue())
					Expect(e.Color).To(Equal(dynamo.Green))
				}
			}
			Expect(found).To(BeTrue())
		})

		It("shows an edge's first color from its first recorded event", func() {
			s.ToggleMode(dynamo.Emergence)
			for i := 0; i < 100 && len(s.MemoryEntries()) == 0; i++ {
				s.Tick(float64(i) * sim.FrameMillis)
			}
			entries := s.MemoryEntries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Count).To(Equal(1))

			var found bool
			for _, e := range s.Snapshot().Edges {
				if e.Key == entries[0].Key {
					found = true
					Expect(e.Learned).To(BeTrue())
					Expect(e.Color).To(Equal(dynamo.Green))
				}
			}
			Expect(found).To(BeTrue())
		})

		It("draws learned non-adjacent edges at minimum weight", func() {
			s.ToggleMode(dynamo.FeedbackLoop)
			s.ToggleMode(dynamo.Emergence)
			tickN(s, 400)

			key := dynamo.EdgeKey{StartLevel: dynamo.Quantum, StartNode: 0, EndLevel: dynamo.Quantum, EndNode: 0}
			var found bool
			for _, e := range s.Snapshot().Edges {
				if e.Key == key {
					found = true
					Expect(e.Learned).To(BeTrue())
					Expect(e.Weight).To(Equal(dynamo.MinCoupling))
				}
			}
			Expect(found).To(BeTrue())
		})

		It("hides learned colors when the gate closes", func() {
			s.ToggleMode(dynamo.Emergence)
			tickN(s, 400)
			s.ToggleMode(dynamo.Emergence)

			for _, e := range s.Snapshot().Edges {
				Expect(e.Learned).To(BeFalse())
				Expect(e.Color).To(Equal(dynamo.IdleEdgeColor))
			}
		})

		It("does not record under Energy Flow alone", func() {
			s.ToggleMode(dynamo.EnergyFlow)
			tickN(s, 400)
			Expect(s.MemoryEntries()).To(BeEmpty())
		})
	})

	Describe("criticality", func() {
		It("pulses only at the optimal complexity", func() {
			Expect(s.SetComplexity(4)).To(Succeed())
			snap := s.Frame(1234)
			Expect(snap.Optimal).To(Equal(4))
			Expect(snap.Critical).To(BeTrue())
			Expect(snap.Intensity).To(BeNumerically(">=", 0))
			Expect(snap.Intensity).To(BeNumerically("<=", 1))

			Expect(s.SetComplexity(5)).To(Succeed())
			snap = s.Frame(1234)
			Expect(snap.Critical).To(BeFalse())
			Expect(snap.Intensity).To(BeZero())
		})
	})

	Describe("snapshot", func() {
		It("lays out every node and adjacent edge", func() {
			snap := s.Snapshot()
			Expect(snap.Nodes).To(HaveLen(4 * 5))
			Expect(snap.Edges).To(HaveLen(3 * 5 * 5))
			for _, e := range snap.Edges {
				Expect(e.Weight).To(Equal(1.0))
				Expect(e.Color).To(Equal(dynamo.IdleEdgeColor))
			}
		})

		It("dims unlearned edges while a mode is active", func() {
			s.ToggleMode(dynamo.EnergyFlow)
			for _, e := range s.Snapshot().Edges {
				Expect(e.Color).To(Equal(dynamo.ActiveEdgeColor))
			}
		})
	})

	It("feeds registered metrics every tick", func() {
		for _, m := range metrics.Defaults() {
			s.AddMetric(m)
		}
		s.ToggleMode(dynamo.FeedbackLoop)
		tickN(s, 100)
		vals := s.Metrics()
		Expect(vals).To(HaveKey("population"))
		Expect(vals["population"]).To(BeNumerically(">", 0))
		Expect(vals["acceptance"]).To(BeNumerically("~", 1.0, 1e-9))
	})
})

const spawnCap = 50

var _ = Describe("Scheduler", func() {
	It("delivers frames until stopped and none afterward", func() {
		s := newSim(eager{})
		sc := sim.NewScheduler(s, time.Millisecond)
		var frames atomic.Int64
		sc.OnFrame(func(sim.Snapshot) { frames.Add(1) })

		Expect(sc.Start(context.Background())).To(Succeed())
		Expect(sc.Start(context.Background())).To(MatchError(dynamo.ErrSchedulerRunning))
		Eventually(frames.Load).Should(BeNumerically(">", 3))

		Expect(sc.Done()).NotTo(BeClosed())
		sc.Stop()
		Expect(sc.Running()).To(BeFalse())
		Expect(sc.Done()).To(BeClosed())
		after := frames.Load()
		Consistently(frames.Load, 50*time.Millisecond, 5*time.Millisecond).Should(Equal(after))

		sc.Stop()
	})

	It("keeps ticking with no mode active", func() {
		s := newSim(eager{})
		sc := sim.NewScheduler(s, time.Millisecond)
		Expect(sc.Start(context.Background())).To(Succeed())
		DeferCleanup(sc.Stop)
		Eventually(func() uint64 { return s.LastFrame().Tick }).Should(BeNumerically(">", 3))
		Expect(s.Population()).To(BeZero())
	})

	It("stops when its context ends", func() {
		s := newSim(eager{})
		sc := sim.NewScheduler(s, time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		Expect(sc.Start(ctx)).To(Succeed())
		cancel()
		sc.Stop()
		tick := s.LastFrame().Tick
		Consistently(func() uint64 { return s.LastFrame().Tick }, 30*time.Millisecond).Should(Equal(tick))
	})

	It("skips frames while paused", func() {
		s := newSim(eager{})
		sc := sim.NewScheduler(s, time.Millisecond)
		sc.SetPaused(true)
		Expect(sc.Start(context.Background())).To(Succeed())
		DeferCleanup(sc.Stop)
		Consistently(sc.Frames, 30*time.Millisecond).Should(BeZero())

		snap := sc.Tick(0)
		Expect(snap.Tick).To(BeEquivalentTo(1))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independently seeded members", func() {
		opts := sim.DefaultOptions()
		opts.Modes = dynamo.ModeSet(0).With(dynamo.EnergyFlow)
		e := sim.NewEnsemble(opts, 4, 100, metrics.Defaults)

		results, err := e.Run(context.Background(), 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		for i, r := range results {
			Expect(r.Seed).To(BeEquivalentTo(100 + i))
			Expect(r.Metrics).To(HaveKey("throughput"))
			Expect(r.Population).To(BeNumerically("<=", spawnCap))
		}
		Expect(sim.Mean(results)).To(HaveKey("population"))
	})

	It("honors cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sim.NewEnsemble(sim.DefaultOptions(), 2, 1, nil).Run(ctx, 10)
		Expect(err).To(MatchError(context.Canceled))
	})
})
