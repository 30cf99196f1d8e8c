package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
)

// FallbackModelName is reported when predictions come from the synthetic
// fallback forest instead of a saved artifact.
const FallbackModelName = "fallback random-forest (synthetic)"

// LoadedModelName reports the display name for a saved artifact.
func LoadedModelName(path string) string {
	return fmt.Sprintf("saved model (%s)", filepath.Base(path))
}

// Resolution is the outcome of resolving a model path: a ready classifier
// plus the name and state callers surface to users.
type Resolution struct {
	Classifier contract.Classifier
	Name       string
	State      schema.ModelState
}

// Provider resolves model paths to classifiers exactly once per path. The
// first Get for a path moves it from unloaded to either loaded or fallback,
// and that outcome is cached for the life of the process. Concurrent Gets on
// a cold path share one resolution via singleflight.
type Provider struct {
	mu    sync.RWMutex
	cache map[string]*Resolution
	group singleflight.Group
}

// Default is the process-wide provider used by commands and servers.
var Default = NewProvider()

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{cache: make(map[string]*Resolution)}
}

// Get returns the classifier for path, loading or falling back on first use.
// The returned resolution is shared and read-only.
func (p *Provider) Get(path string) (*Resolution, error) {
	p.mu.RLock()
	res, ok := p.cache[path]
	p.mu.RUnlock()
	if ok {
		return res, nil
	}

	v, err, _ := p.group.Do(path, func() (any, error) {
		p.mu.RLock()
		cached, hit := p.cache[path]
		p.mu.RUnlock()
		if hit {
			return cached, nil
		}

		resolved, rerr := resolve(path)
		if rerr != nil {
			return nil, rerr
		}

		p.mu.Lock()
		p.cache[path] = resolved
		p.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolution), nil
}

// State reports the current lifecycle state for path without resolving it.
func (p *Provider) State(path string) schema.ModelState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if res, ok := p.cache[path]; ok {
		return res.State
	}
	return schema.ModelUnloaded
}

// resolve loads the artifact at path, or trains the synthetic fallback when
// the artifact is missing or unusable. A missing file is the normal first-run
// case and stays quiet; a corrupt artifact is worth a warning.
func resolve(path string) (*Resolution, error) {
	artifact, err := LoadArtifact(path)
	if err == nil {
		return &Resolution{
			Classifier: artifact.Forest,
			Name:       LoadedModelName(path),
			State:      schema.ModelLoaded,
		}, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		contract.LogWarn("Model artifact unusable, training fallback", err)
	}

	forest, terr := trainFallback()
	if terr != nil {
		return nil, fmt.Errorf("train fallback model: %w", terr)
	}
	return &Resolution{
		Classifier: forest,
		Name:       FallbackModelName,
		State:      schema.ModelFallback,
	}, nil
}
