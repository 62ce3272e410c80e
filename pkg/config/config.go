// Package config reads planner configurations: the WA*, shared MRW and MRW
// flag strings, and a YAML file carrying them together with the run settings
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/mrw"
	"github.com/IlikeChooros/go-arvand/pkg/wastar"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// File is the YAML form of a planner configuration
//
//	seeds: [1, 2]
//	iterative: true
//	plan_file: sas_plan
//	wa: "-heur FF -pref FF -weight_list [-1,5,3,2,1]"
//	mrw_shared: "-res_type SMART"
//	mrw:
//	  - "-heur FF -walk_type MDA"
//	  - "-heur FF -walk_type MHA"
type File struct {
	Seeds     []int64 `yaml:"seeds"`
	Iterative bool    `yaml:"iterative"`
	PlanFile  string  `yaml:"plan_file"`
	// Wall-clock budget of the whole run in seconds, 0 for none
	TimeLimit float64   `yaml:"time_limit" validate:"gte=0"`
	Log       LogConfig `yaml:"log"`

	WA     string   `yaml:"wa"`
	Shared string   `yaml:"mrw_shared"`
	MRW    []string `yaml:"mrw"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
}

// Settings is a parsed and completed configuration
type Settings struct {
	// nil when WA* does not run
	WA *wastar.Params
	// nil when MRW does not run
	Shared *mrw.SharedParams
	MRW    []mrw.Params

	Seeds     []int64
	Iterative bool
	PlanFile  string
	TimeLimit float64
	Log       logging.Config
}

// RunsMRW reports whether any MRW worker runs
func (s *Settings) RunsMRW() bool {
	return s.Shared != nil && len(s.MRW) > 0
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration, unknown fields are errors
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &f, nil
}

// Resolve parses the flag strings and fills in the defaults: MRW settings
// without MRW configurations run one default configuration, MRW configurations
// without shared settings use the default shared ones, and an empty file runs
// a single default MRW
func (f *File) Resolve() (*Settings, error) {
	s := &Settings{
		Seeds:     f.Seeds,
		Iterative: f.Iterative,
		PlanFile:  f.PlanFile,
		TimeLimit: f.TimeLimit,
		Log:       logging.Config{Level: f.Log.Level, JSON: f.Log.JSON},
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if f.WA != "" {
		p, err := ParseWA(f.WA)
		if err != nil {
			return nil, err
		}
		s.WA = &p
	}
	if f.Shared != "" {
		p, err := ParseShared(f.Shared)
		if err != nil {
			return nil, err
		}
		s.Shared = &p
	}
	for i, conf := range f.MRW {
		p, err := ParseMRW(conf)
		if err != nil {
			return nil, fmt.Errorf("mrw[%d]: %w", i, err)
		}
		s.MRW = append(s.MRW, p)
	}

	switch {
	case len(s.MRW) == 0 && s.Shared != nil:
		s.MRW = []mrw.Params{mrw.DefaultParams()}
	case len(s.MRW) > 0 && s.Shared == nil:
		p := mrw.DefaultSharedParams()
		s.Shared = &p
	case s.WA == nil && s.Shared == nil:
		p := mrw.DefaultSharedParams()
		s.Shared = &p
		s.MRW = []mrw.Params{mrw.DefaultParams()}
	}
	return s, nil
}
