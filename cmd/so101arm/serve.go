package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/ankithreddypati/so101arm-mcp/pkg/config"
	"github.com/ankithreddypati/so101arm-mcp/pkg/device"
	"github.com/ankithreddypati/so101arm-mcp/pkg/dispatch"
	"github.com/ankithreddypati/so101arm-mcp/pkg/gesture"
	"github.com/ankithreddypati/so101arm-mcp/pkg/httpapi"
	"github.com/ankithreddypati/so101arm-mcp/pkg/pose"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

type ServeCommand struct{}

// openArm connects to the arm, retrying with exponential backoff since
// serial devices often need a moment after plugging in.
func openArm(cfg config.Config) (*robot.Arm, error) {
	cal, err := robot.LoadCalibration(cfg.Calibration)
	if err != nil {
		return nil, err
	}

	var arm *robot.Arm
	connect := func() error {
		var err error
		arm, err = robot.NewArm(cfg.Port, cal)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second
	if err := backoff.Retry(connect, bo); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Port, err)
	}
	return arm, nil
}

func (c *ServeCommand) Execute(args []string) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	arm, err := openArm(cfg)
	if err != nil {
		return err
	}
	defer arm.Close()

	if err := arm.Enable(ctx); err != nil {
		return fmt.Errorf("enable torque: %w", err)
	}
	defer arm.Disable(context.Background())

	ch, err := device.Open(ctx, arm)
	if err != nil {
		return err
	}

	store := pose.NewStore(cfg.Poses)
	if err := store.Load(); err != nil {
		return err
	}
	log.Printf("Loaded %d poses from %s", len(store.List()), cfg.Poses)

	seq := gesture.NewSequencer(store, ch, cfg.SampleHz)
	d := dispatch.New(store, ch, seq, dispatch.Options{
		MoveDuration: time.Duration(cfg.MoveMS) * time.Millisecond,
		SampleRate:   cfg.SampleHz,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.New(d).Mux(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Robot %q on %s, serving on %s", cfg.ID, cfg.Port, cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down")
		ch.Cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
