package usecase

import (
	"testing"

	"go.uber.org/goleak"
)

// The lifecycle and exchange use cases spawn fire-and-forget goroutines for
// key sync and rotation; every test must wait for them via the observation
// channels, and goleak catches the ones that slip through.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
