package markov

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/CTAG07/Shannon/pkg/ngram"
)

// DefaultLength is the number of steps Generate takes when WithLength is
// not given.
const DefaultLength = 100

// reserveLimit caps the token capacity reserved up front. Longer runs grow
// the slice as they go, so a huge length that starves early costs nothing.
const reserveLimit = 1 << 16

// checkEvery is how many steps run between context checks.
const checkEvery = 1024

// Generation is the result of one generation run.
type Generation struct {
	Tokens    []string // Seed tokens followed by every sampled token
	Text      string   // Tokens rendered for the generator's modality
	Starved   bool     // Generation stopped because no key continued the context
	Fallbacks int      // Steps that fell back to a uniform pick
}

// generateOptions Is used by the generate functions to configure default options.
type generateOptions struct {
	length int
	rng    *rand.Rand
	seed   *uint64
	start  ngram.Key
}

// GenerateOption is a function that configures generation parameters.
type GenerateOption func(*generateOptions)

// WithLength sets the number of sampling steps. The output holds the seed
// tokens plus up to n sampled tokens; order 0 output holds exactly n.
// A negative length fails with ErrConfiguration.
func WithLength(n int) GenerateOption {
	return func(o *generateOptions) { o.length = n }
}

// WithRand sets the random source for one call. Sharing a *rand.Rand
// between concurrent calls is not safe.
func WithRand(rng *rand.Rand) GenerateOption {
	return func(o *generateOptions) { o.rng = rng }
}

// WithSeed makes the call reproducible by seeding a fresh PCG source.
// It is ignored when WithRand is also given.
func WithSeed(seed uint64) GenerateOption {
	return func(o *generateOptions) { o.seed = &seed }
}

// WithStart seeds the output with key instead of a random table key. The
// key must be present in the table.
func WithStart(key ngram.Key) GenerateOption {
	return func(o *generateOptions) { o.start = ngram.NewKey(key...) }
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// GenerateText is a convenience wrapper around Generate that returns only
// the rendered text.
func (g *Generator) GenerateText(ctx context.Context, opts ...GenerateOption) (string, error) {
	gen, err := g.Generate(ctx, opts...)
	if err != nil {
		return "", err
	}
	return gen.Text, nil
}

// Generate runs the Markov chain once. It starts from a key chosen
// uniformly from the table, then takes up to the requested number of
// steps, each drawing the next token from the keys whose prefix equals the
// trailing order-1 tokens. If no key matches, generation stops early and
// the result is marked Starved; that is not an error. A cancelled context
// aborts a long run with ctx.Err().
func (g *Generator) Generate(ctx context.Context, opts ...GenerateOption) (*Generation, error) {
	options := &generateOptions{length: DefaultLength}
	for _, opt := range opts {
		opt(options)
	}

	if options.length < 0 {
		return nil, fmt.Errorf("%w: length must be non-negative, got %d", ErrConfiguration, options.length)
	}
	if options.start != nil {
		if g.order == 0 {
			return nil, fmt.Errorf("%w: order 0 generation takes no start key", ErrConfiguration)
		}
		if _, ok := g.table.Weight(options.start); !ok {
			return nil, fmt.Errorf("%w: start key %q is not in the table", ErrConfiguration, options.start.String())
		}
	}

	rng := options.rng
	if rng == nil {
		if options.seed != nil {
			rng = newRand(*options.seed)
		} else {
			rng = newRand(rand.Uint64())
		}
	}

	var gen *Generation
	var err error
	if g.order == 0 {
		gen, err = g.generateUnconditional(ctx, rng, options.length)
	} else {
		gen, err = g.generateChain(ctx, rng, options.start, options.length)
	}
	if err != nil {
		return nil, err
	}
	gen.Text = g.modality.Join(gen.Tokens)

	if gen.Fallbacks > 0 {
		g.logger.DebugContext(ctx, "Weighted draw fell back to uniform selection",
			slog.String("modality", string(g.modality)),
			slog.Int("order", g.order),
			slog.Int("fallbacks", gen.Fallbacks),
		)
	}

	return gen, nil
}

// generateChain contains the main loop for order >= 1.
func (g *Generator) generateChain(ctx context.Context, rng *rand.Rand, start ngram.Key, length int) (*Generation, error) {
	if start == nil {
		start = g.starts[rng.IntN(len(g.starts))]
	}

	gen := &Generation{Tokens: make([]string, 0, len(start)+min(length, reserveLimit))}
	gen.Tokens = append(gen.Tokens, start...)

	contextLen := g.order - 1
	for step := 0; step < length; step++ {
		if step%checkEvery == checkEvery-1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		prefix := ngram.Key(gen.Tokens[len(gen.Tokens)-contextLen:])
		s, ok := g.candidates(prefix)
		if !ok { // Dead end in chain
			gen.Starved = true
			g.logger.DebugContext(ctx, "Generation starved",
				slog.String("modality", string(g.modality)),
				slog.Int("order", g.order),
				slog.String("context", prefix.String()),
				slog.Int("steps_taken", step),
				slog.Int("steps_requested", length),
			)
			break
		}
		token, fallback := s.draw(rng)
		if fallback {
			gen.Fallbacks++
		}
		gen.Tokens = append(gen.Tokens, token)
	}

	return gen, nil
}

// generateUnconditional draws every token independently, ignoring history.
func (g *Generator) generateUnconditional(ctx context.Context, rng *rand.Rand, length int) (*Generation, error) {
	s, _ := g.candidates(nil)
	gen := &Generation{Tokens: make([]string, 0, min(length, reserveLimit))}
	for step := range length {
		if step%checkEvery == checkEvery-1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		token, fallback := s.draw(rng)
		if fallback {
			gen.Fallbacks++
		}
		gen.Tokens = append(gen.Tokens, token)
	}
	return gen, nil
}
