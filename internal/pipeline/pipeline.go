package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ppiankov/otpraat/internal/cache"
	"github.com/ppiankov/otpraat/internal/emit"
	"github.com/ppiankov/otpraat/internal/model"
	"github.com/ppiankov/otpraat/internal/parse"
)

// ConflictResolver decides whether an existing output file may be replaced
type ConflictResolver interface {
	Resolve(path string) (emit.OverwritePolicy, error)
}

// StaticResolver answers every conflict with the same policy
type StaticResolver emit.OverwritePolicy

// Resolve returns the fixed policy
func (s StaticResolver) Resolve(string) (emit.OverwritePolicy, error) {
	return emit.OverwritePolicy(s), nil
}

// Pipeline converts OT-Soft tableau files into Praat grammar and pair distribution files
type Pipeline struct {
	fs       afero.Fs
	config   *model.Config
	cache    cache.Cache
	resolver ConflictResolver
	log      *zap.Logger
}

// NewPipeline creates a new pipeline with the given configuration.
// A nil resolver refuses to replace existing files.
func NewPipeline(fs afero.Fs, cfg *model.Config, resolver ConflictResolver, log *zap.Logger) *Pipeline {
	var c cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		c = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
	}
	if resolver == nil {
		resolver = StaticResolver(emit.Abort)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		fs:       fs,
		config:   cfg,
		cache:    c,
		resolver: resolver,
		log:      log,
	}
}

// ConvertResult describes one finished conversion
type ConvertResult struct {
	Paths   Paths
	Tableau *model.Tableau
}

// Load parses the tableau at path, reusing an earlier parse of identical content
func (p *Pipeline) Load(path string) (*model.Tableau, error) {
	data, err := parse.ReadFile(p.fs, path)
	if err != nil {
		return nil, err
	}

	key := cache.CacheKey(data)
	if tab, ok := p.cache.Get(key); ok {
		p.log.Debug("tableau cache hit", zap.String("path", path))
		return tab, nil
	}

	tab, err := parse.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, tab, 0)

	p.log.Debug("parsed tableau",
		zap.String("path", path),
		zap.Int("constraints", len(tab.Constraints)),
		zap.Int("inputs", len(tab.Inputs())),
		zap.Int("candidates", tab.Len()),
	)
	return tab, nil
}

// Convert parses input and writes the grammar file, then the pair distribution file.
// A conflict the resolver refuses stops the run before anything later is written.
func (p *Pipeline) Convert(ctx context.Context, input string) (*ConvertResult, error) {
	// 1. Derive output paths
	paths, err := OutputPaths(input, p.config.Input, p.config.Output)
	if err != nil {
		return nil, err
	}

	// 2. Parse
	tab, err := p.Load(input)
	if err != nil {
		return nil, err
	}

	// 3. Grammar file
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = p.write(paths.Grammar, func(w io.Writer) error {
		return emit.WriteGrammar(w, tab, p.config.Grammar)
	})
	if err != nil {
		return nil, err
	}

	// 4. Pair distribution file
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = p.write(paths.PairDistribution, func(w io.Writer) error {
		return emit.WritePairDistribution(w, tab)
	})
	if err != nil {
		return nil, err
	}

	return &ConvertResult{Paths: paths, Tableau: tab}, nil
}

func (p *Pipeline) write(path string, render emit.Render) error {
	policy := emit.Abort

	exists, err := afero.Exists(p.fs, path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if exists {
		policy, err = p.resolver.Resolve(path)
		if err != nil {
			return fmt.Errorf("resolve conflict for %s: %w", path, err)
		}
		p.log.Debug("output exists", zap.String("path", path), zap.Stringer("policy", policy))
	}

	if err := emit.WriteFile(p.fs, path, policy, render); err != nil {
		return err
	}

	p.log.Info("wrote file", zap.String("path", path))
	return nil
}
