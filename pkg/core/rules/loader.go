package rules

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"credit_analysis/pkg/core/validate"
)

// Table names, also the file base names looked up on disk.
const (
	TableIndicators = "indicators"
	TableThresholds = "thresholds"
	TableScoring    = "scoring"
)

// Tables lists the rule tables in load order.
var Tables = []string{TableIndicators, TableThresholds, TableScoring}

// Extensions accepted for a table file, in lookup priority.
var Extensions = []string{".yaml", ".yml", ".hjson", ".json"}

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// scoringFile is the on-disk shape of the scoring table: categories keyed by
// name, ordered by their `order` field.
type scoringFile struct {
	Categories map[string]ScoringCategory `yaml:"categories" json:"categories"`
	Ratings    []RatingBand               `yaml:"ratings" json:"ratings"`
}

// Default returns the built-in rule set.
func Default() (*Set, error) {
	set := &Set{}
	for _, table := range Tables {
		name := path.Join("defaults", table+".yaml")
		data, err := defaultsFS.ReadFile(name)
		if err != nil {
			return nil, &validate.ConfigurationError{Source: name, Reason: "missing embedded table", Err: err}
		}
		if err := Parse(set, table, name, data); err != nil {
			return nil, err
		}
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// MustDefault is like Default but panics on error. The embedded tables are
// covered by tests, so a failure here is a build defect.
func MustDefault() *Set {
	set, err := Default()
	if err != nil {
		panic(err)
	}
	return set
}

// LoadFromDirectory starts from the built-in rules and replaces each table
// for which dir holds a file (indicators.yaml, thresholds.hjson, ...).
// The merged set is validated before it is returned.
//
// Expected structure:
//
//	dir/
//	  indicators.yaml
//	  thresholds.yaml
//	  scoring.yaml
func LoadFromDirectory(dir string, log zerolog.Logger) (*Set, error) {
	log = log.With().Str("component", "rules").Logger()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &validate.ConfigurationError{Source: dir, Reason: "rules directory not readable", Err: err}
	}
	if !info.IsDir() {
		return nil, &validate.ConfigurationError{Source: dir, Reason: "not a directory"}
	}

	set, err := Default()
	if err != nil {
		return nil, err
	}

	for _, table := range Tables {
		file, ok := findTable(dir, table)
		if !ok {
			log.Debug().Str("table", table).Msg("no override, using built-in table")
			continue
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return nil, &validate.ConfigurationError{Source: file, Reason: "read failed", Err: err}
		}
		if err := Parse(set, table, file, data); err != nil {
			return nil, err
		}
		log.Info().Str("table", table).Str("file", file).Msg("loaded rule table")
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Int("indicators", len(set.Indicators)).
		Int("thresholds", len(set.Thresholds)).
		Int("categories", len(set.Scoring.Categories)).
		Msg("rules ready")
	return set, nil
}

func findTable(dir, table string) (string, bool) {
	for _, ext := range Extensions {
		p := filepath.Join(dir, table+ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Parse decodes one table into set, replacing what it held. The format is
// picked from the extension of source.
func Parse(set *Set, table, source string, data []byte) error {
	switch table {
	case TableIndicators:
		var defs map[string]IndicatorDefinition
		if err := decode(source, data, &defs); err != nil {
			return err
		}
		if len(defs) == 0 {
			return &validate.ConfigurationError{Source: source, Reason: "no indicator definitions"}
		}
		for name, d := range defs {
			d.Name = name
			defs[name] = d
		}
		set.Indicators = defs

	case TableThresholds:
		var defs map[string]ThresholdDefinition
		if err := decode(source, data, &defs); err != nil {
			return err
		}
		if len(defs) == 0 {
			return &validate.ConfigurationError{Source: source, Reason: "no threshold definitions"}
		}
		set.Thresholds = defs

	case TableScoring:
		var sf scoringFile
		if err := decode(source, data, &sf); err != nil {
			return err
		}
		if len(sf.Categories) == 0 {
			return &validate.ConfigurationError{Source: source, Reason: "no scoring categories"}
		}
		cats := make([]ScoringCategory, 0, len(sf.Categories))
		for name, c := range sf.Categories {
			c.Name = name
			cats = append(cats, c)
		}
		sortCategories(cats)
		sortRatings(sf.Ratings)
		set.Scoring = Scoring{Categories: cats, Ratings: sf.Ratings}

	default:
		return &validate.ConfigurationError{Source: source, Reason: fmt.Sprintf("unknown table %q", table)}
	}
	return nil
}

func decode(source string, data []byte, v any) error {
	var err error
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(data, v)
	case ".hjson", ".json":
		err = hjson.Unmarshal(data, v)
	default:
		return &validate.ConfigurationError{Source: source, Reason: "unsupported format"}
	}
	if err != nil {
		return &validate.ConfigurationError{Source: source, Reason: "malformed", Err: err}
	}
	return nil
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cerr *validate.ConfigurationError
	return errors.As(err, &cerr)
}
