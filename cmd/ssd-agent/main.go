package main

import (
	"bufio"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/hermanndegner/ssd-core-engine/internal/config"
	"github.com/hermanndegner/ssd-core-engine/internal/decision"
	"github.com/hermanndegner/ssd-core-engine/internal/provenance"
	"github.com/hermanndegner/ssd-core-engine/internal/replay"
	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

func init() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: "15:04:05",
		}),
	))
}

var defaultActions = []string{"observe", "explore", "rest", "drink", "eat", "avoid"}

// #region main
func main() {
	cfg := config.Default()
	if path := envOr("SSD_CONFIG", ""); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var store *provenance.Store
	if dbPath := envOr("SSD_DB", ""); dbPath != "" {
		var err error
		store, err = provenance.NewStore(dbPath)
		if err != nil {
			log.Fatalf("failed to open provenance store: %v", err)
		}
		defer store.Close()
		slog.Info("provenance enabled", "db", dbPath)
	}

	agent := &session{
		harness:  replay.NewHarness(cfg.ToOptions()),
		store:    store,
		tracker:  decision.NewOutcomeTracker(200),
		entities: map[string]*replay.EntitySpec{},
	}

	fmt.Println("SSD agent ready.")
	fmt.Printf("  seed=%d leap_mode=%s\n", cfg.Seed, cfg.LeapMode)
	fmt.Println("Commands: spawn <type> <id> [value] [rate] | stim <type> <intensity> | tick [n] | state | predict <id> | leaps | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		agent.dispatch(strings.Fields(line))
	}
}
// #endregion main

// #region session

type session struct {
	harness  *replay.Harness
	store    *provenance.Store
	tracker  *decision.OutcomeTracker
	entities map[string]*replay.EntitySpec
	order    []string
	stimuli  []replay.StimulusSpec
	clock    float64
	tick     int
}

func (s *session) dispatch(args []string) {
	switch args[0] {
	case "spawn":
		s.spawn(args[1:])
	case "stim":
		s.stim(args[1:])
	case "tick":
		n := 1
		if len(args) > 1 {
			n, _ = strconv.Atoi(args[1])
		}
		for i := 0; i < n; i++ {
			s.step()
		}
	case "state":
		s.printState()
	case "predict":
		if len(args) < 2 {
			fmt.Println("usage: predict <id>")
			return
		}
		s.predict(args[1])
	case "leaps":
		s.printLeaps()
	default:
		fmt.Printf("unknown command %q\n", args[0])
	}
}

func (s *session) spawn(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: spawn <type> <id> [value] [rate]")
		return
	}
	spec := &replay.EntitySpec{
		Type:         args[0],
		ID:           args[1],
		CurrentValue: 50,
		DeclineRate:  1,
		Meanings:     map[string]float64{"base": 0.6},
	}
	if len(args) > 2 {
		spec.CurrentValue, _ = strconv.ParseFloat(args[2], 64)
	}
	if len(args) > 3 {
		spec.DeclineRate, _ = strconv.ParseFloat(args[3], 64)
	}
	if _, exists := s.entities[spec.ID]; !exists {
		s.order = append(s.order, spec.ID)
	}
	s.entities[spec.ID] = spec
	slog.Info("spawned", "id", spec.ID, "type", spec.Type, "value", spec.CurrentValue)
}

func (s *session) stim(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: stim <type> <intensity>")
		return
	}
	intensity, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Printf("bad intensity %q\n", args[1])
		return
	}
	s.stimuli = append(s.stimuli, replay.StimulusSpec{
		ID:        fmt.Sprintf("stim-%d", len(s.stimuli)+1),
		Type:      args[0],
		Intensity: intensity,
	})
	slog.Info("stimulus queued", "type", args[0], "intensity", intensity)
}

func (s *session) step() {
	s.tick++
	in := replay.Interaction{Clock: s.clock, Actions: defaultActions, Stimuli: s.stimuli}
	for _, id := range s.order {
		in.Entities = append(in.Entities, *s.entities[id])
	}
	s.stimuli = nil

	trace, err := s.harness.Tick(in)
	if err != nil {
		slog.Error("tick failed", "err", err)
		return
	}

	// Perceived values decline between ticks.
	for _, id := range s.order {
		spec := s.entities[id]
		spec.CurrentValue -= spec.DeclineRate
		if spec.CurrentValue < 0 {
			spec.CurrentValue = 0
		}
	}
	s.clock++

	// An action that leaves the agent out of crisis counts as a success.
	if trace.Decision != "" {
		s.tracker.Record(trace.Decision, trace.CrisisLevel == "none")
	}

	slog.Info("tick",
		"n", trace.Tick,
		"E", fmt.Sprintf("%.3f", trace.E),
		"T", fmt.Sprintf("%.2f", trace.Temperature),
		"decision", trace.Decision,
		"crisis", trace.CrisisLevel,
		"leap", trace.LeapType,
	)
	s.persist(trace)
}

func (s *session) persist(trace replay.TickTrace) {
	if s.store == nil {
		return
	}
	tickID, err := s.store.RecordTick(provenance.TickRecord{
		Tick:        trace.Tick,
		Pressure:    trace.E,
		Temperature: trace.Temperature,
		MeanInertia: trace.MeanInertia,
		HeatLoss:    trace.HeatLoss,
	})
	if err != nil {
		slog.Error("record tick", "err", err)
		return
	}
	if trace.LeapFired {
		err := s.store.RecordLeap(tickID, provenance.LeapRecord{Type: trace.LeapType})
		if err != nil {
			slog.Error("record leap", "err", err)
		}
	}
}

func (s *session) printState() {
	stats := s.harness.Alignment().Statistics()
	fmt.Printf("E=%.3f  κ̄=%.3f  heat=%.3f  efficiency=%.2f\n",
		s.harness.Pressure().E(), stats.AvgInertia, stats.TotalHeatLoss, stats.ThermalEfficiency)
	for _, layer := range structure.Layers() {
		fmt.Printf("  %-8s %d elements\n", layer, len(s.harness.Arena().LayerElements(layer)))
	}
	if best := s.tracker.SuggestBest(defaultActions, 3); len(best) > 0 {
		fmt.Printf("  suggested: %s\n", strings.Join(best, ", "))
	}
}

func (s *session) predict(id string) {
	entities := map[string]*structure.Entity{}
	for _, spec := range s.entities {
		entities[spec.ID] = spec.ToEntity()
	}
	f := s.harness.Predictor().Predict(id, entities, 0, s.clock)
	fmt.Printf("%s: min=%.2f crisis=%s confidence=%.2f values=%v\n",
		id, f.MinValue, f.Crisis, f.Confidence, f.Values)
}

func (s *session) printLeaps() {
	if s.store == nil {
		fmt.Println("provenance store not enabled (set SSD_DB)")
		return
	}
	leaps, err := s.store.RecentLeaps(5)
	if err != nil {
		slog.Error("list leaps", "err", err)
		return
	}
	for _, l := range leaps {
		fmt.Printf("%s  type=%s magnitude=%.2f chaos=%.2f\n", l.ID, l.Type, l.Magnitude, l.ChaosFactor)
	}
	if len(leaps) == 0 {
		fmt.Println("no leaps recorded")
	}
}

// #endregion session

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion helpers
