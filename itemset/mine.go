package itemset

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultMinSetSize is the smallest subset size kept in Mine's result when
// Options.MinSetSize is not set.
const DefaultMinSetSize = 3

// firstLevel is where candidate generation starts. Single item counts are
// never materialised.
const firstLevel = 2

var mineLog = log.WithField("prefix", "itemset#Mine")

// LevelStats describes one completed level of a mining run.
type LevelStats struct {
	Size     int
	Elapsed  time.Duration
	Elements int // distinct items still in play
	Subsets  int // frequent subsets found at this size
}

// LevelReporter receives the stats of every level as it completes.
type LevelReporter interface {
	ReportLevel(stats LevelStats)
}

// Options configure a mining run.
type Options struct {
	// Sigma is the minimum number of transactions a subset must occur in.
	Sigma int
	// MinSetSize is the smallest subset size kept in the result.
	// Zero means DefaultMinSetSize.
	MinSetSize int
	// Verbose logs per level progress.
	Verbose  bool
	Reporter LevelReporter
}

func (o Options) withDefaults() Options {
	if o.MinSetSize == 0 {
		o.MinSetSize = DefaultMinSetSize
	}
	return o
}

func (o Options) validate() error {
	if o.Sigma < 1 {
		return ErrInvalidSupport
	}
	if o.MinSetSize < 2 {
		return ErrInvalidMinSetSize
	}
	return nil
}

// Level is the frequency map computed for one subset size.
type Level struct {
	Size        int
	Frequencies Frequencies
}

// Mine counts all subsets of at least opts.MinSetSize items that occur in at
// least opts.Sigma transactions. Levels are computed for increasing sizes
// starting at 2, each pruned by the previous one, until a level has no
// frequent subsets.
func Mine(txs []Transaction, opts Options) (Frequencies, error) {
	opts = opts.withDefaults()
	result := make(Frequencies)
	err := mineLevels(txs, opts, func(level Level) {
		if level.Size >= opts.MinSetSize {
			result.Merge(level.Frequencies)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MineLevels runs the same iteration as Mine and returns every non empty
// level from size 2 upwards, regardless of opts.MinSetSize.
func MineLevels(txs []Transaction, opts Options) ([]Level, error) {
	opts = opts.withDefaults()
	levels := make([]Level, 0)
	err := mineLevels(txs, opts, func(level Level) {
		if len(level.Frequencies) > 0 {
			levels = append(levels, level)
		}
	})
	if err != nil {
		return nil, err
	}
	return levels, nil
}

func mineLevels(txs []Transaction, opts Options, visit func(Level)) error {
	if err := opts.validate(); err != nil {
		return err
	}

	var frontier Frontier
	for size := firstLevel; ; size++ {
		start := time.Now()
		freq, err := CountLevel(txs, opts.Sigma, size, frontier)
		if err != nil {
			return err
		}
		visit(Level{Size: size, Frequencies: freq})

		frontier = FrontierOf(freq)
		if opts.Verbose || opts.Reporter != nil {
			report(opts, LevelStats{
				Size:     size,
				Elapsed:  time.Since(start),
				Elements: len(frontier.Elements()),
				Subsets:  len(frontier),
			})
		}

		// No larger subset can be frequent once a level is empty.
		if len(frontier) == 0 {
			return nil
		}
	}
}

func report(opts Options, stats LevelStats) {
	if opts.Verbose {
		mineLog.WithFields(log.Fields{
			"size":     stats.Size,
			"elapsed":  stats.Elapsed.Seconds(),
			"elements": stats.Elements,
			"subsets":  stats.Subsets,
		}).Infof("Evaluated subset size %d in %.1fs: %d elements in %d subsets",
			stats.Size, stats.Elapsed.Seconds(), stats.Elements, stats.Subsets)
	}
	if opts.Reporter != nil {
		opts.Reporter.ReportLevel(stats)
	}
}
