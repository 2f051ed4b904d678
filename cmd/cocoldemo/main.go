// Command cocoldemo wires a tiny producer/consumer network over cocol
// channels and runs it to completion, printing each value as it is
// consumed. It exists to give the library a runnable example outside of
// its test suite.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cocol-go/cocol"
	"github.com/cocol-go/cocol/pool"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ch := cocol.NewChannel[int](cocol.WithName("nums"), cocol.WithBuffer(2))
	scope := pool.NewCapped(4)
	defer scope.Close()

	ctx := context.Background()

	done := make(chan error, 1)
	if err := scope.Go(ctx, func(ctx context.Context) {
		for i := 0; i < 10; i++ {
			if err := ch.Write(ctx, i); err != nil {
				log.WithError(err).Error("producer write failed")
				return
			}
		}
		ch.Retire(false)
	}); err != nil {
		log.WithError(err).Fatal("failed to start producer")
	}

	if err := scope.Go(ctx, func(ctx context.Context) {
		for {
			v, err := ch.Read(ctx)
			if err == cocol.ErrRetired {
				done <- nil
				return
			}
			if err != nil {
				done <- err
				return
			}
			fmt.Println(v)
		}
	}); err != nil {
		log.WithError(err).Fatal("failed to start consumer")
	}

	if err := <-done; err != nil {
		log.WithError(err).Error("consumer exited with an error")
		os.Exit(1)
	}
}
