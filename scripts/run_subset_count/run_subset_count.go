package main

// Counts every subset of at least min_set_size items that occurs in at least
// sigma transactions and writes them to output_file.

// Sample usage in terminal.
// go run run_subset_count.go --input_file=retail.dat --sigma=500 --verbose
//
// sigma and min_set_size fall back to the config file, then to BASKET_SIGMA
// and BASKET_MIN_SET_SIZE, when the flags are not given. sigma must come
// from one of them.

import (
	"errors"
	"flag"
	"math/rand"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	C "basket/config"
	"basket/itemset"
	"basket/metrics"
	"basket/results"
	"basket/transactions"
)

var inputFileFlag = flag.String("input_file", "", "Whitespace separated transactions, one per line.")
var sigmaFlag = flag.Int("sigma", 0, "Minimum number of transactions a subset must occur in.")
var outputFileFlag = flag.String("output_file", "frequent_item_sets.txt", "Results written as '<len>, <count>, <items...>' per line.")
var minSetSizeFlag = flag.Int("min_set_size", itemset.DefaultMinSetSize, "Smallest subset size written to output.")
var verboseFlag = flag.Bool("verbose", false, "Log progress of every level.")
var verifyFlag = flag.Int("verify", 0, "Recount this many random results against the input. -1 recounts all.")
var configFilePathFlag = flag.String("config_filepath", "", "Optional json or yaml config file.")

var errSigmaRequired = errors.New("sigma is required from --sigma, the config file or BASKET_SIGMA")

func loadConfig() (*C.Configuration, error) {
	config := C.Default()
	if *configFilePathFlag != "" {
		var err error
		if config, err = C.LoadFile(*configFilePathFlag); err != nil {
			return nil, err
		}
	}
	if err := C.ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyFlags overrides config with the flags in setFlags and validates the
// result.
func applyFlags(config *C.Configuration, setFlags map[string]bool) error {
	if setFlags["sigma"] {
		config.Sigma = *sigmaFlag
	} else if *configFilePathFlag == "" && os.Getenv(C.EnvPrefix+"_SIGMA") == "" {
		return errSigmaRequired
	}
	if setFlags["min_set_size"] {
		config.MinSetSize = *minSetSizeFlag
	}
	if *inputFileFlag == "" {
		return errors.New("input_file is required")
	}
	return config.Validate()
}

func setFlagNames() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func main() {
	flag.Parse()
	os.Exit(run(setFlagNames()))
}

// run returns the process exit code. Metrics are exported before it returns.
func run(setFlags map[string]bool) int {
	config, err := loadConfig()
	if err != nil {
		log.WithError(err).Error("Failed to initialize config.")
		return 1
	}
	if err := applyFlags(config, setFlags); err != nil {
		log.WithError(err).Error("Invalid arguments.")
		return 1
	}
	config.InitLogging()

	exporter := metrics.InitMetrics(config.Env, "run_subset_count", config.MetricsProjectID, config.MetricsLocation)
	defer metrics.Shutdown(exporter)

	txs, err := transactions.LoadFile(*inputFileFlag)
	if err != nil {
		log.WithError(err).WithField("file", *inputFileFlag).Error("Failed to load transactions.")
		return 1
	}
	metrics.CountInt(metrics.CountTransactions, int64(len(txs)))

	startedAt := time.Now()
	res, err := itemset.Mine(txs, itemset.Options{
		Sigma:      config.Sigma,
		MinSetSize: config.MinSetSize,
		Verbose:    *verboseFlag,
		Reporter:   metrics.LevelReporter{},
	})
	if err != nil {
		metrics.Increment(metrics.IncrMineRunFailedCount)
		log.WithError(err).Error("Failed to mine subsets.")
		return 1
	}
	metrics.Increment(metrics.IncrMineRunCount)
	metrics.RecordLatency(metrics.LatencyMineRun, float64(time.Since(startedAt).Milliseconds()))
	log.WithFields(log.Fields{
		"transactions": len(txs),
		"subsets":      len(res),
		"sigma":        config.Sigma,
		"min_set_size": config.MinSetSize,
		"elapsed":      time.Since(startedAt).String(),
	}).Info("Mined subsets.")

	if err := results.WriteFile(*outputFileFlag, res); err != nil {
		log.WithError(err).Error("Failed to write results.")
		return 1
	}

	if *verifyFlag != 0 {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if err := itemset.Verify(txs, res, *verifyFlag, rng); err != nil {
			log.WithError(err).Error("Verification failed.")
			return 1
		}
		log.WithField("samples", *verifyFlag).Info("Verified results against input.")
	}
	return 0
}
