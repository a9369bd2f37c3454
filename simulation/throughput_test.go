package simulation

import (
	"github.com/onsi/gomega/gmeasure"
	"github.com/sarchlab/trialsim/randomization"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Replicate throughput", func() {
	It("measure replicate speed per method", func() {
		experiment := gmeasure.NewExperiment("Replicate Speed")
		AddReportEntry(experiment.Name, experiment)

		for _, method := range randomization.Methods() {
			cfg := DefaultConfig()
			cfg.Method = method

			experiment.MeasureDuration(string(method), func() {
				for r := 0; r < 20; r++ {
					_, _, err := RunReplicate(cfg, r)
					Expect(err).NotTo(HaveOccurred())
				}
			})
		}
	})
})
