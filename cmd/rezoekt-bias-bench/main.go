// Command rezoekt-bias-bench loads a tokenizer image and a regex
// pattern, builds one engine.Session, and replays a literal byte
// string through it while reporting the bias-mask size at each step --
// a minimal standalone harness for the core the way zoekt's smaller
// cmd/ tools (e.g. zoekt-merge-index) exercise a single package
// in isolation rather than standing up the full server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	sglog "github.com/sourcegraph/log"

	"github.com/sourcegraph/rezoekt/engine"
	"github.com/sourcegraph/rezoekt/internal/logging"
	"github.com/sourcegraph/rezoekt/tokenizer"
	"github.com/sourcegraph/rezoekt/trie"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("rezoekt-bias-bench", flag.ContinueOnError)
	var (
		tokenizerPath = fs.String("tokenizer", "", "path to a trie.Serialize() tokenizer image")
		pattern       = fs.String("pattern", "", "regex constraint, parsed via rx.RegexBuilder")
		input         = fs.String("input", "", "literal byte string to replay through the session")
	)
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("REZOEKT")); err != nil {
		return fmt.Errorf("rezoekt-bias-bench: parsing flags: %w", err)
	}
	if *tokenizerPath == "" || *pattern == "" {
		return fmt.Errorf("rezoekt-bias-bench: -tokenizer and -pattern are required")
	}

	log := logging.Scoped("bias-bench", "standalone constrained-decoding harness")

	hio := tokenizer.NewFileHostIO(*tokenizerPath, "")
	image, err := hio.ReadTokenTrie()
	if err != nil {
		return err
	}
	tt, err := trie.FromBytes(image)
	if err != nil {
		return fmt.Errorf("rezoekt-bias-bench: decoding tokenizer image: %w", err)
	}

	eng := engine.New(tt)
	sess, err := eng.NewSessionFromPattern(*pattern)
	if err != nil {
		return err
	}

	log.Info("session ready",
		sglog.String("engineID", eng.ID().String()),
		sglog.Int("vocabSize", tt.VocabSize()),
		sglog.String("pattern", *pattern))

	logits := make([]float32, tt.VocabSize()+1)
	start := time.Now()
	for i := 0; i < len([]byte(*input)); i++ {
		b := (*input)[i]

		for j := range logits {
			logits[j] = float32(1)
		}
		sess.Bias(logits)

		allowed := 0
		for _, v := range logits {
			if v == 0 {
				allowed++
			}
		}
		log.Debug("step",
			sglog.Int("i", i),
			sglog.Int("allowedTokens", allowed),
			sglog.Int("disallowedLogitEntries", len(logits)-allowed))

		if !sess.Allowed(b) {
			return fmt.Errorf("rezoekt-bias-bench: byte %q at offset %d is illegal in the current state", b, i)
		}
		sess.Advance(b)
	}

	log.Info("replay complete",
		sglog.Bool("accepting", sess.Accepting()),
		sglog.String("elapsed", time.Since(start).String()),
		sglog.String("stats", sess.Stats()))
	return nil
}
