package system_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/integrators"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/models"
	"github.com/san-kum/nonsmooth/internal/sim"
	"github.com/san-kum/nonsmooth/internal/system"
)

func build(name string, opts system.Options, p models.Params) *models.Model {
	m, err := models.Build(name, opts, p)
	Expect(err).NotTo(HaveOccurred())
	return m
}

func timeStepping() system.Options {
	opts := system.DefaultOptions()
	opts.Mode = event.TimeStepping
	return opts
}

func run(m *models.Model, stepper dynamo.Stepper, dt, duration float64) *sim.Result {
	cfg := dynamo.DefaultConfig()
	cfg.Dt, cfg.Duration = dt, duration
	res, err := sim.New(m.System, stepper).Run(context.Background(), m.Q0, m.U0, cfg)
	Expect(err).NotTo(HaveOccurred())
	return res
}

var _ = Describe("point mass dropped onto a plane", func() {
	const gTol = 1e-8

	Context("event-driven with a strict contact", func() {
		var (
			m   *models.Model
			res *sim.Result
		)

		BeforeEach(func() {
			m = build("drop", system.DefaultOptions(), models.Params{"height": 0.1})
			res = run(m, integrators.NewEventDriven(integrators.NewRK4()), 1e-3, 0.4)
		})

		It("locates the impact", func() {
			Expect(res.Events).NotTo(BeEmpty())
			Expect(res.Events[0]).To(BeNumerically("~", math.Sqrt(2*0.1/9.81), 1e-9))
		})

		It("comes to rest on the plane", func() {
			_, q, u := res.Final()
			Expect(q[1]).To(BeNumerically("<=", 0))
			Expect(q[1]).To(BeNumerically(">=", -gTol))
			Expect(math.Abs(u[1])).To(BeNumerically("<", 1e-9))
		})

		It("carries the weight with the contact force", func() {
			sl := m.System.Contacts()[0].Slots()[0]
			Expect(sl.Status).To(Equal(link.Active))
			Expect(sl.La[0]).To(BeNumerically("~", 9.81, 1e-9))
		})

		It("records one output row per accepted step", func() {
			Expect(m.System.Recorder().Len()).To(Equal(len(res.Times)))
			g, err := m.System.Recorder().Column("contact.g")
			Expect(err).NotTo(HaveOccurred())
			Expect(g[0]).To(BeNumerically("~", 0.1, 1e-12))
		})
	})

	Context("time-stepping from rest", func() {
		It("holds a strict contact at zero gap", func() {
			m := build("drop", timeStepping(), models.Params{"height": 0})
			res := run(m, integrators.NewMoreau(), 1e-3, 0.5)

			for i, q := range res.Q {
				Expect(q[1]).To(BeNumerically("~", 0, 1e-15), "step %d", i)
			}
			sl := m.System.Contacts()[0].Slots()[0]
			Expect(sl.La[0]).To(BeNumerically("~", 9.81, 1e-9))
		})

		It("settles a regularized contact inside the gap tolerance", func() {
			m := build("drop", timeStepping(), models.Params{"height": 0, "regularized": 1})
			res := run(m, integrators.NewMoreau(), 1e-3, 0.5)

			for i, q := range res.Q {
				Expect(q[1]).To(BeNumerically("<=", 0), "step %d", i)
				Expect(q[1]).To(BeNumerically(">=", -gTol), "step %d", i)
			}
			_, q, u := res.Final()
			Expect(q[1]).To(BeNumerically("~", -gTol/2, 1e-12))
			Expect(math.Abs(u[1])).To(BeNumerically("<", 1e-12))
			Expect(res.Unconverged).To(BeZero())
		})
	})

	It("is deterministic", func() {
		a := run(build("drop", system.DefaultOptions(), nil), integrators.NewEventDriven(integrators.NewRK4()), 1e-3, 0.3)
		b := run(build("drop", system.DefaultOptions(), nil), integrators.NewEventDriven(integrators.NewRK4()), 1e-3, 0.3)

		Expect(a.Times).To(Equal(b.Times))
		Expect(a.Q).To(Equal(b.Q))
		Expect(a.U).To(Equal(b.U))
	})
})

var _ = Describe("block sliding with Coulomb friction", func() {
	It("stops where the friction work equals the kinetic energy", func() {
		m := build("slider", system.DefaultOptions(), models.Params{"v0": 2, "mu": 0.3})
		res := run(m, integrators.NewEventDriven(integrators.NewRK4()), 1e-3, 1)

		stop := 2 / (0.3 * 9.81)
		Expect(res.Events).To(ContainElement(BeNumerically("~", stop, 1e-9)))

		_, q, u := res.Final()
		Expect(q[0]).To(BeNumerically("~", 4/(2*0.3*9.81), 1e-9))
		Expect(math.Abs(u[0])).To(BeNumerically("<", 1e-9))
		Expect(m.System.Contacts()[0].Slots()[0].Status).To(Equal(link.Sticking))
	})

	It("keeps the friction force inside the cone while sliding", func() {
		m := build("slider", system.DefaultOptions(), nil)
		u, err := m.System.ResetUponEvent(0, m.Q0, m.U0)
		Expect(err).NotTo(HaveOccurred())
		_, _, err = m.System.ComputeConstraintForces(0, m.Q0, u)
		Expect(err).NotTo(HaveOccurred())

		sl := m.System.Contacts()[0].Slots()[0]
		Expect(sl.Status).To(Equal(link.Sliding))
		Expect(math.Abs(sl.La[1])).To(BeNumerically("~", 0.3*sl.La[0], 1e-9))
	})
})

var _ = Describe("particle in a hollow drum", func() {
	It("rests at the bottom with a radial normal", func() {
		m := build("cylinder", system.DefaultOptions(), nil)
		q := dynamo.State{0, -0.5}

		_, err := m.System.ResetUponEvent(0, q, m.U0)
		Expect(err).NotTo(HaveOccurred())
		la, _, err := m.System.ComputeConstraintForces(0, q, m.U0)
		Expect(err).NotTo(HaveOccurred())

		ct := m.System.Contacts()[0]
		pt := ct.Points()[0]
		Expect(pt.Gap).To(BeNumerically("~", 0, 1e-12))
		Expect(pt.Normal[1]).To(BeNumerically("~", 1, 1e-12))
		Expect(la).To(HaveLen(1))
		Expect(la[0]).To(BeNumerically("~", 9.81, 1e-9))
	})

	It("stays inside the drum", func() {
		m := build("cylinder", system.DefaultOptions(), nil)
		ed := integrators.NewEventDriven(integrators.NewRK4())
		ed.Project = true
		res := run(m, ed, 1e-3, 0.6)

		Expect(res.Events).NotTo(BeEmpty())
		for i, q := range res.Q {
			Expect(math.Hypot(q[0], q[1])).To(BeNumerically("<=", 0.5+1e-8), "step %d", i)
		}
	})
})

var _ = Describe("relative chain with a pin joint", func() {
	It("sizes the state from every body", func() {
		m := build("chain", system.DefaultOptions(), nil)
		Expect(m.System.QSize()).To(Equal(5))
		Expect(m.System.USize()).To(Equal(5))
		Expect(m.Q0).To(HaveLen(5))
	})

	It("keeps the joint closed with projection", func() {
		m := build("chain", system.DefaultOptions(), nil)
		ed := integrators.NewEventDriven(integrators.NewRK4())
		ed.Project = true
		run(m, ed, 1e-3, 0.3)

		joint := m.System.Link("joint").Slots()[0]
		for _, g := range joint.G {
			Expect(math.Abs(g)).To(BeNumerically("<=", 1e-8))
		}
	})

	It("reports force solves stopped at the iteration limit", func() {
		opts := system.DefaultOptions()
		opts.Solver.MaxIter = 1
		m := build("chain", opts, nil)
		ed := integrators.NewEventDriven(integrators.NewRK4())
		ed.MaxHalvings = 0
		res := run(m, ed, 1e-3, 0.01)

		Expect(res.Unconverged).To(BeNumerically(">", 0))
	})
})

var _ = Describe("flow network", func() {
	It("integrates without constraint forces", func() {
		m := build("hydraulic", system.DefaultOptions(), nil)
		res := run(m, integrators.NewRK4(), 1e-3, 0.1)

		Expect(res.Events).To(BeEmpty())
		Expect(m.System.Stats().Size).To(BeZero())
		_, _, u := res.Final()
		Expect(u.IsValid()).To(BeTrue())
	})
})
