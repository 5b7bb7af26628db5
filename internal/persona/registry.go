package persona

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultProfiles []byte

// VoiceProfile is the declarative description of how a persona writes.
type VoiceProfile struct {
	ID           ID       `yaml:"id"`
	KoreanName   string   `yaml:"korean_name"`
	Vibe         []string `yaml:"vibe"`
	Focus        []string `yaml:"focus"`
	Voice        string   `yaml:"voice"`
	AddressTerms []string `yaml:"address_terms"`
	Triggers     Triggers `yaml:"triggers"`
	OpeningLines []string `yaml:"opening_lines"`
	Identity     string   `yaml:"identity"`

	// BannedPhrases are stock phrases the persona must never produce. The
	// registry merges the shared list into every profile.
	BannedPhrases []string `yaml:"banned_phrases"`
}

// Triggers are the selection heuristics, in descending priority.
type Triggers struct {
	Emotion []string `yaml:"emotion"`
	Theme   []string `yaml:"theme"`
	Style   []string `yaml:"style"`
}

type registryFile struct {
	BannedPhrases []string       `yaml:"banned_phrases"`
	Personas      []VoiceProfile `yaml:"personas"`
}

// Registry holds the immutable set of voice profiles. It is safe for
// concurrent use because nothing mutates it after ParseRegistry returns.
type Registry struct {
	profiles map[ID]VoiceProfile
	banned   []string
}

// ParseRegistry decodes a YAML registry and checks that every persona of the
// fixed set is described exactly once.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse persona registry: %w", err)
	}

	profiles := make(map[ID]VoiceProfile, len(IDs))
	for _, p := range file.Personas {
		if !p.ID.Valid() {
			return nil, fmt.Errorf("persona registry: unknown persona %q", p.ID)
		}
		if _, dup := profiles[p.ID]; dup {
			return nil, fmt.Errorf("persona registry: duplicate persona %q", p.ID)
		}
		if p.Identity == "" || p.KoreanName == "" {
			return nil, fmt.Errorf("persona registry: %s is missing identity or korean_name", p.ID)
		}
		p.BannedPhrases = mergePhrases(file.BannedPhrases, p.BannedPhrases)
		profiles[p.ID] = p
	}
	for _, id := range IDs {
		if _, ok := profiles[id]; !ok {
			return nil, fmt.Errorf("persona registry: missing persona %q", id)
		}
	}

	return &Registry{profiles: profiles, banned: mergePhrases(file.BannedPhrases, nil)}, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the embedded registry. It panics if the embedded
// file is invalid, which can only happen at build time.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r, err := ParseRegistry(defaultProfiles)
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Profile returns the voice profile of id.
func (r *Registry) Profile(id ID) (VoiceProfile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// Profiles returns all profiles in the fixed persona order.
func (r *Registry) Profiles() []VoiceProfile {
	out := make([]VoiceProfile, 0, len(IDs))
	for _, id := range IDs {
		out = append(out, r.profiles[id])
	}
	return out
}

// BannedPhrases returns the phrases banned for every persona.
func (r *Registry) BannedPhrases() []string {
	return append([]string(nil), r.banned...)
}

func mergePhrases(shared, own []string) []string {
	seen := make(map[string]bool, len(shared)+len(own))
	merged := make([]string, 0, len(shared)+len(own))
	for _, list := range [][]string{shared, own} {
		for _, phrase := range list {
			if phrase == "" || seen[phrase] {
				continue
			}
			seen[phrase] = true
			merged = append(merged, phrase)
		}
	}
	return merged
}
