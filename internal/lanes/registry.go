package lanes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"packcall/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// fileConfig maps the lanes yaml file.
type fileConfig struct {
	Lanes map[string]Lane `yaml:"lanes"`
}

// Snapshot is an immutable view of the lane set, ordered safest first.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Lanes    []Lane
}

// Lane returns the lane with the given name, if present.
func (s Snapshot) Lane(name string) (Lane, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, lane := range s.Lanes {
		if lane.Name == name {
			return lane, true
		}
	}
	return Lane{}, false
}

// Last returns the least restrictive lane, the ranking catch-all.
func (s Snapshot) Last() (Lane, bool) {
	if len(s.Lanes) == 0 {
		return Lane{}, false
	}
	return s.Lanes[len(s.Lanes)-1], true
}

// ChangeListener fires after a successful reload.
type ChangeListener func(Snapshot)

// Registry loads lane definitions from a yaml file, validates them against an
// embedded JSON Schema, and hot-reloads on file change. With an empty path it
// serves the built-in default lanes.
type Registry struct {
	path string

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry builds a registry. path may be empty, in which case the default
// SAFE/SAFE_HIGH/AGGRESSIVE lanes are served and no watcher is started.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: strings.TrimSpace(path)}
	if r.path == "" {
		r.snapshot = Snapshot{Version: 1, LoadedAt: time.Now(), Lanes: DefaultLanes()}
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(r.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read lanes config failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("lanes reload failed: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot returns the current lane set.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// OnChange registers a reload listener.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	cfg, err := readLanesFile(r.path)
	if err != nil {
		return err
	}
	ordered := make([]Lane, 0, len(cfg.Lanes))
	for name, lane := range cfg.Lanes {
		ordered = append(ordered, normalizeLane(name, lane))
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].Name < ordered[j].Name
	})
	if len(ordered) == 0 {
		return fmt.Errorf("lanes file %s defines no lanes", filepath.Base(r.path))
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Lanes:    ordered,
	}
	r.mu.Unlock()
	logger.Infof("lane registry loaded %d lanes from %s", len(ordered), filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorf("lane listener panic: %v", rec)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{Version: src.Version, LoadedAt: src.LoadedAt}
	dst.Lanes = append([]Lane(nil), src.Lanes...)
	return dst
}

func readLanesFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read lanes config failed: %w", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fileConfig{}, fmt.Errorf("parse lanes config failed: %w", err)
	}
	if err := validateLanesDoc(generic); err != nil {
		return fileConfig{}, fmt.Errorf("lanes config schema: %w", err)
	}
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse lanes config failed: %w", err)
	}
	return cfg, nil
}

// lanesSchema constrains the lanes file shape: thresholds are non-negative
// numbers and weights carry the three known components only.
const lanesSchema = `{
  "type": "object",
  "required": ["lanes"],
  "properties": {
    "lanes": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "order": {"type": "integer", "minimum": 0},
          "max_spread_pct": {"type": "number", "minimum": 0},
          "min_yield": {"type": "number", "minimum": 0},
          "strike_factor": {"type": "number", "minimum": 0},
          "weights": {
            "type": "object",
            "properties": {
              "yield": {"type": "number"},
              "risk": {"type": "number"},
              "signal": {"type": "number"}
            },
            "additionalProperties": false
          }
        },
        "additionalProperties": false
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func validateLanesDoc(doc map[string]any) error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("lanes.json", strings.NewReader(lanesSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("lanes.json")
	})
	if schemaErr != nil {
		return schemaErr
	}
	return compiledSchema.Validate(jsonRoundTrip(doc))
}

// jsonRoundTrip coerces yaml-decoded values into json-native types so the
// schema validator sees what it expects.
func jsonRoundTrip(doc map[string]any) any {
	raw, err := json.Marshal(doc)
	if err != nil {
		return doc
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return doc
	}
	return out
}
