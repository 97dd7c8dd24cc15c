package ivp_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIVP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "IVP Suite")
}
