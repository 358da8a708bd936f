package scheduler

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rainco77/evochora/compiler/ir"
	"github.com/rainco77/evochora/isa"
	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/world"
)

var _ = Describe("Scheduler", func() {
	var (
		w *world.World
		s *Scheduler
	)

	BeforeEach(func() {
		w = world.NewBuilder().WithDimensions([]int{8, 8}).WithSeed(1).Build()
		s = newTestScheduler(w)
	})

	singleNOPArtifact := func() *ir.Artifact {
		return &ir.Artifact{
			Cells: []ir.LinkedCell{
				{Coord: world.Zero(2), Molecule: molecule.New(molecule.Code, isa.OpcodeCode("NOP"))},
			},
			EntryPoint: world.Zero(2),
		}
	}

	Context("spawning an organism", func() {
		It("does not admit it into the active roster until the next sweep (§4.8 step 1)", func() {
			org := s.Spawn(singleNOPArtifact(), world.NewVector(0, 0), world.NewVector(1, 0))

			Expect(s.active).To(BeEmpty())
			Expect(s.pending).To(ConsistOf(org))

			s.sweepLocked()

			Expect(s.pending).To(BeEmpty())
			found := false
			for _, a := range s.active {
				if a.ID == org.ID {
					found = true
				}
			}
			Expect(found).To(BeTrue(), "organism should join the roster at the start of the sweep following Spawn")
		})

		It("assigns strictly increasing ids across repeated Spawn calls", func() {
			org1 := s.Spawn(singleNOPArtifact(), world.NewVector(0, 0), world.NewVector(1, 0))
			org2 := s.Spawn(singleNOPArtifact(), world.NewVector(4, 4), world.NewVector(1, 0))
			Expect(org2.ID).To(BeNumerically(">", org1.ID))
		})
	})
})
