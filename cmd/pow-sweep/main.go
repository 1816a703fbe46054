// Command pow-sweep runs the prover across payload sizes, bit difficulties
// and payload fractions, recording one CSV row per run.
package main

import (
	"context"
	"os"

	"github.com/beholders/benchsweep/internal/sweep"
)

func main() {
	env := sweep.Env{Stdout: os.Stdout, Stderr: os.Stderr}
	os.Exit(sweep.Main(context.Background(), "pow-sweep", sweep.KindPow, os.Args[1:], env))
}
