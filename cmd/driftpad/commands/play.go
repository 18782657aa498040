package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/spf13/cobra"

	"github.com/driftaudio/driftpad/pkg/audio/pcm"
	"github.com/driftaudio/driftpad/pkg/engine"
	"github.com/driftaudio/driftpad/pkg/policy"
	"github.com/driftaudio/driftpad/pkg/session"
)

var (
	flagPlayFocus  float64
	flagPlayVolume float64
	flagPlaySeed   int64
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play generated audio on the local sound device",
	Long: `Play the generator through the default sound device until
interrupted. The texture policy is loaded from and saved back to the
per-user policy file, so listening sessions keep learning.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Float64Var(&flagPlayFocus, "focus", 50, "focus score 0..100")
	playCmd.Flags().Float64Var(&flagPlayVolume, "volume", 0.8, "output volume 0..1")
	playCmd.Flags().Int64Var(&flagPlaySeed, "seed", 0, "random seed, 0 uses the clock")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg := engine.DefaultConfig()
	cfg.Seed = flagPlaySeed

	policyPath, pathErr := defaultPolicyPath()
	sess, err := newLocalSession(cfg, policyPath, pathErr)
	if err != nil {
		return err
	}
	defer sess.Close()
	sess.SetFocus(flagPlayFocus)
	sess.SetVolume(flagPlayVolume)

	sr := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return fmt.Errorf("driftpad: speaker init: %w", err)
	}
	next := func() []float32 {
		raw := sess.NextChunk()
		out := make([]float32, len(raw)/4)
		pcm.DecodeFloats(out, raw)
		return out
	}
	speaker.Play(&chunkStreamer{next: next, remaining: -1})

	fmt.Println("Playing. Ctrl-C to stop.")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	speaker.Clear()

	if err := sess.Close(); err != nil {
		return err
	}
	if pathErr == nil {
		if err := policy.SaveFile(policyPath, sess.Engine().PolicyState()); err != nil {
			slog.Warn("policy save failed", "path", policyPath, "error", err)
		}
	}
	return nil
}

// newLocalSession starts a session seeded from the per-user policy file
// when one exists and still matches the configured textures.
func newLocalSession(cfg engine.Config, policyPath string, pathErr error) (*session.Session, error) {
	if pathErr == nil {
		if st, ok, err := policy.LoadFile(policyPath); err == nil && ok {
			sess, err := session.New(cfg, session.WithPolicyState(st))
			if err == nil {
				return sess, nil
			}
			slog.Warn("stale policy snapshot, starting fresh", "path", policyPath, "error", err)
		}
	}
	return session.New(cfg)
}
