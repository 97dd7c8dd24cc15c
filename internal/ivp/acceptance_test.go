package ivp_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odeiv/internal/ivp"
	"github.com/san-kum/odeiv/internal/ode"
	"github.com/san-kum/odeiv/internal/steppers"
)

// decay is y' = -y with y(0) = 1, solution e^{-t}. The Jacobian is
// supplied so the implicit and multistep methods work too.
func decay() ode.System {
	return ode.System{
		Dim: 1,
		Func: func(t float64, y, dydt []float64) error {
			dydt[0] = -y[0]
			return nil
		},
		Jac: func(t float64, y, dfdy, dfdt []float64) error {
			dfdy[0] = -1
			dfdt[0] = 0
			return nil
		},
	}
}

var _ = Describe("Driver", func() {
	DescribeTable("reaches the analytic solution of an exponential decay",
		func(typ *steppers.Type) {
			d, err := ivp.NewDriverY(decay(), typ, 1e-6, 1e-8, 1e-8)
			Expect(err).NotTo(HaveOccurred())

			t, y := 0.0, []float64{1}
			Expect(d.Apply(&t, 2, y)).To(Succeed())
			Expect(t).To(Equal(2.0))
			Expect(y[0]).To(BeNumerically("~", math.Exp(-2), 1e-4))
			Expect(d.Count()).To(BeNumerically(">", 0))
		},
		Entry("rk2", steppers.RK2),
		Entry("rk4", steppers.RK4),
		Entry("rkf45", steppers.RKF45),
		Entry("rkck", steppers.RKCK),
		Entry("rk8pd", steppers.RK8PD),
		Entry("rk1imp", steppers.RK1Imp),
		Entry("rk2imp", steppers.RK2Imp),
		Entry("rk4imp", steppers.RK4Imp),
		Entry("bsimp", steppers.BSImp),
		Entry("msadams", steppers.MSAdams),
		Entry("msbdf", steppers.MSBDF),
	)

	It("lands exactly on the requested end time", func() {
		d, err := ivp.NewDriverY(decay(), steppers.RKF45, 1e-6, 1e-10, 1e-10)
		Expect(err).NotTo(HaveOccurred())

		t, y := 0.0, []float64{1}
		Expect(d.Apply(&t, 0.7, y)).To(Succeed())
		Expect(t).To(Equal(0.7))
	})

	It("leaves time and state consistent when the function aborts", func() {
		sys := decay()
		inner := sys.Func
		sys.Func = func(t float64, y, dydt []float64) error {
			if t > 0.5 {
				return ode.ErrBadFunc
			}
			return inner(t, y, dydt)
		}
		d, err := ivp.NewDriverY(sys, steppers.RKF45, 1e-3, 1e-10, 1e-10)
		Expect(err).NotTo(HaveOccurred())

		t, y := 0.0, []float64{1}
		err = d.Apply(&t, 2, y)
		Expect(err).To(MatchError(ode.ErrBadFunc))

		// y still lies on the trajectory at the rolled-back time
		Expect(t).To(BeNumerically("<", 0.7))
		Expect(y[0]).To(BeNumerically("~", math.Exp(-t), 1e-6))
	})

	It("reports no progress when hmin forbids resolving the problem", func() {
		relax := ode.System{
			Dim: 1,
			Func: func(t float64, y, dydt []float64) error {
				dydt[0] = -1000*(y[0]-math.Cos(t)) - math.Sin(t)
				return nil
			},
		}
		d, err := ivp.NewDriverY(relax, steppers.RKF45, 0.1, 1e-10, 1e-10)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.SetHMin(0.05)).To(Succeed())

		t, y := 0.0, []float64{1}
		Expect(d.Apply(&t, 1, y)).To(MatchError(ode.ErrNoProgress))
	})

	It("stops at the step budget", func() {
		d, err := ivp.NewDriverY(decay(), steppers.RKF45, 1e-8, 1e-10, 1e-10)
		Expect(err).NotTo(HaveOccurred())
		d.SetNMax(2)

		t, y := 0.0, []float64{1}
		Expect(d.Apply(&t, 5, y)).To(MatchError(ode.ErrMaxSteps))
		Expect(d.N()).To(Equal(uint64(2)))
		Expect(t).To(BeNumerically("<", 5))
	})

	It("produces identical trajectories for identical inputs", func() {
		solve := func() []float64 {
			d, err := ivp.NewDriverY(decay(), steppers.RK8PD, 1e-4, 1e-9, 1e-9)
			Expect(err).NotTo(HaveOccurred())
			t, y := 0.0, []float64{1}
			Expect(d.Apply(&t, 1, y)).To(Succeed())
			return y
		}
		Expect(solve()).To(Equal(solve()))
	})

	It("repeats a run after ResetHStart", func() {
		d, err := ivp.NewDriverY(decay(), steppers.MSAdams, 1e-6, 1e-8, 1e-8)
		Expect(err).NotTo(HaveOccurred())

		run := func() []float64 {
			t, y := 0.0, []float64{1}
			Expect(d.Apply(&t, 1, y)).To(Succeed())
			return y
		}
		first := run()
		Expect(d.ResetHStart(1e-6)).To(Succeed())
		Expect(run()).To(Equal(first))
	})
})
