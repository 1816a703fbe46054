// Command role-sweep runs either the prover or the verifier at a fixed bit
// difficulty across payload sizes.
package main

import (
	"context"
	"os"

	"github.com/beholders/benchsweep/internal/sweep"
)

func main() {
	env := sweep.Env{Stdout: os.Stdout, Stderr: os.Stderr}
	os.Exit(sweep.Main(context.Background(), "role-sweep", sweep.KindRole, os.Args[1:], env))
}
