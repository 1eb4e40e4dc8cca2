package split

import (
	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/tracelink"
)

// Role names a partition in a training run
type Role string

const (
	RoleTrain Role = "train"
	RoleVal   Role = "val"
	RoleEval  Role = "eval"
)

// RoleConfig describes a train/val/eval split. The training partition gets
// whatever the val and eval percentages leave.
type RoleConfig struct {
	Strategy       Strategy
	ValPercentage  float64
	EvalPercentage float64
	Config
}

// Roles holds the partitions of a train/val/eval split
type Roles struct {
	Train *tracelink.Dataset
	Val   *tracelink.Dataset
	Eval  *tracelink.Dataset
}

// Get returns the partition for a role
func (r *Roles) Get(role Role) *tracelink.Dataset {
	switch role {
	case RoleTrain:
		return r.Train
	case RoleVal:
		return r.Val
	case RoleEval:
		return r.Eval
	}
	return nil
}

// RoleSplitter splits a dataset into train, val and eval partitions
type RoleSplitter struct {
	splitter *Splitter
}

// NewRoleSplitter validates the percentages eagerly; a percentage outside
// [0,1] or a val+eval sum above 1 is a configuration error
func NewRoleSplitter(cfg RoleConfig) (*RoleSplitter, error) {
	if cfg.ValPercentage < 0 || cfg.ValPercentage > 1 {
		return nil, errors.NewConfigurationError("val_percentage must be in [0,1], got %v", cfg.ValPercentage)
	}
	if cfg.EvalPercentage < 0 || cfg.EvalPercentage > 1 {
		return nil, errors.NewConfigurationError("eval_percentage must be in [0,1], got %v", cfg.EvalPercentage)
	}
	train := 1 - cfg.ValPercentage - cfg.EvalPercentage
	if train < -fractionEpsilon {
		return nil, errors.NewConfigurationError("val_percentage + eval_percentage = %v exceeds 1",
			cfg.ValPercentage+cfg.EvalPercentage)
	}
	s, err := New(cfg.Strategy, cfg.Config, max(train, 0), cfg.ValPercentage, cfg.EvalPercentage)
	if err != nil {
		return nil, err
	}
	return &RoleSplitter{splitter: s}, nil
}

// Split returns the train, val and eval partitions of ds
func (r *RoleSplitter) Split(ds *tracelink.Dataset) (*Roles, error) {
	parts, err := r.splitter.Split(ds)
	if err != nil {
		return nil, err
	}
	return &Roles{Train: parts[0], Val: parts[1], Eval: parts[2]}, nil
}

// Passthrough reports whether the underlying strategy yields no trace links
func (r *RoleSplitter) Passthrough() bool {
	return r.splitter.Passthrough()
}
