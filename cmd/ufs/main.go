package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	gcTTLHoursEnv        = "UFS_GC_TTL_HOURS"
	gcIntervalMinEnv     = "UFS_GC_INTERVAL_MIN"
	defaultGCTTLHours    = 24
	defaultGCIntervalMin = 30
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fatal(os.Stderr, err)
	}
}

// fatal is the only exit path for startup and runtime failures.
func fatal(w io.Writer, err error) {
	fmt.Fprintf(w, "[ERROR]: %v\n", err)
	os.Exit(1)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ufs",
		Short:         "ufs command line tool",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newStartCmd(stderr), newUploadCmd(stdout, stderr))
	return root
}

// envDuration возвращает значение из переменной окружения (в единицах unit) либо дефолт.
func envDuration(lookup func(string) (string, bool), key string, def int, unit time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * unit
		}
	}
	return time.Duration(def) * unit
}
