package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aristath/valuescreen/internal/modules/fundamentals"
	"github.com/aristath/valuescreen/internal/modules/indicators"
	"github.com/aristath/valuescreen/internal/modules/pipeline"
	"github.com/aristath/valuescreen/internal/modules/screening"
	"github.com/aristath/valuescreen/internal/modules/sentiment"
)

// Profile is a screening profile: which indicators to compute, how to weigh
// and threshold them, how to aggregate news and which multiples fair values
// use.
type Profile struct {
	Indicators []indicators.Request   `yaml:"indicators" json:"indicators"`
	Screening  screening.Config       `yaml:"screening" json:"screening"`
	Sentiment  SentimentProfile       `yaml:"sentiment" json:"sentiment"`
	Valuation  fundamentals.Valuation `yaml:"valuation" json:"valuation"`
}

// UnmarshalJSON overlays the document on DefaultProfile, the same way
// LoadProfile treats YAML.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	profile := plain(DefaultProfile())
	if err := json.Unmarshal(data, &profile); err != nil {
		return err
	}
	*p = Profile(profile)
	return nil
}

// SentimentProfile configures the news lookback. A zero DecayHalfLife
// weights items linearly.
type SentimentProfile struct {
	Window        time.Duration `yaml:"window" json:"window"`
	DecayHalfLife time.Duration `yaml:"decay_half_life,omitempty" json:"decay_half_life,omitempty"`
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() Profile {
	def := pipeline.DefaultConfig()
	return Profile{
		Indicators: def.Indicators,
		Screening:  def.Screening,
		Sentiment:  SentimentProfile{Window: def.SentimentWindow},
		Valuation:  *def.Valuation,
	}
}

// LoadProfile reads a YAML profile. Keys present in the file replace the
// defaults; lists replace the default lists as a whole. An empty path
// returns DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return profile, nil
}

// PipelineConfig converts the profile into runner configuration.
func (p Profile) PipelineConfig(workers int) pipeline.Config {
	cfg := pipeline.Config{
		Indicators:      p.Indicators,
		Screening:       p.Screening,
		SentimentWindow: p.Sentiment.Window,
		Valuation:       &p.Valuation,
		Workers:         workers,
	}
	if p.Sentiment.DecayHalfLife != 0 {
		cfg.Sentiment.Decay = &sentiment.Decay{HalfLife: p.Sentiment.DecayHalfLife}
	}
	return cfg
}
