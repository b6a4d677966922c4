// Package main tunes feedforward policy weights with CMA-ES, evaluating
// candidates headlessly against the foraging environment.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/colibri/config"
	"github.com/pthm-cable/colibri/game"
	"github.com/pthm-cable/colibri/neural"
	"github.com/pthm-cable/colibri/telemetry"
)

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	s := d - m*time.Minute

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s/time.Second)
	}
	return fmt.Sprintf("%dm%02ds", m, s/time.Second)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	episodes := flag.Int("episodes", 3, "Episodes per seed per evaluation")
	seeds := flag.Int("seeds", 2, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 300, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()
	if cfg.Episode.MaxStep <= 0 {
		log.Fatal("episode.max_step must be positive for tuning")
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := &fitnessEvaluator{
		cfg:      cfg,
		seeds:    evalSeeds,
		episodes: *episodes,
	}

	problem := optimize.Problem{
		Func: evaluator.Evaluate,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}

	dim := neural.Dim()
	popSize := *population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3.0*math.Log(float64(dim)))
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()
	logWriter.Write([]string{"eval", "fitness", "nectar_mean"})

	evalCount := 0
	bestFitness := 1e9
	var bestVector []float64
	startTime := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		if fitness < bestFitness {
			bestFitness = fitness
			bestVector = append(bestVector[:0], x...)
		}

		logWriter.Write([]string{
			strconv.Itoa(evalCount),
			fmt.Sprintf("%.6f", fitness),
			fmt.Sprintf("%.6f", -fitness),
		})
		logWriter.Flush()

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
		fmt.Printf("Eval %d/%d: nectar=%.4f (best=%.4f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, -fitness, -bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	initNet := neural.NewFFNN(rand.New(rand.NewSource(1)))
	initX := initNet.Vector()

	fmt.Printf("Starting CMA-ES over %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, episodes per seed: %d\n", *seeds, *episodes)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestVector == nil {
		bestVector = result.X
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best nectar per episode: %.4f\n", -bestFitness)

	best := &neural.FFNN{}
	if err := best.SetVector(bestVector); err != nil {
		log.Fatalf("restoring best network: %v", err)
	}
	weightsPath := filepath.Join(*outputDir, "best_weights.json")
	if err := best.SaveFile(weightsPath); err != nil {
		log.Fatalf("failed to write best weights: %v", err)
	}
	fmt.Printf("Best weights saved to: %s\n", weightsPath)
}

// fitnessEvaluator scores a weight vector by mean nectar per episode over a
// fixed seed set. Lower is better for the minimizer, so the score is negated.
type fitnessEvaluator struct {
	cfg      *config.Config
	seeds    []int64
	episodes int
}

func (e *fitnessEvaluator) Evaluate(x []float64) float64 {
	net := &neural.FFNN{}
	if err := net.SetVector(x); err != nil {
		log.Fatalf("evaluating candidate: %v", err)
	}

	var total float64
	var count int
	for _, seed := range e.seeds {
		env := game.NewEnv(e.cfg, seed, true)

		done := 0
		env.OnEpisode(func(rec telemetry.EpisodeRecord) {
			total += rec.Nectar
			count++
			done++
		})
		env.AddAgent(game.NewNetworkPolicy(net))

		for done < e.episodes {
			env.Step()
		}
	}

	return -total / float64(count)
}
