package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stwalsh4118/tnb/internal/fiscal"
	"github.com/stwalsh4118/tnb/internal/models"
	"github.com/stwalsh4118/tnb/internal/workflow"
)

// policyFile mirrors the layout of the policy file. Sections left out of
// the file keep their defaults. Decimal values are read as strings so they
// never pass through float64.
type policyFile struct {
	Exemption struct {
		Tiers []struct {
			MaxSurface    string `mapstructure:"max_surface"`
			DurationYears int    `mapstructure:"duration_years"`
		} `mapstructure:"tiers"`
	} `mapstructure:"exemption"`
	Indivision struct {
		Tolerance string `mapstructure:"tolerance"`
	} `mapstructure:"indivision"`
	Surface struct {
		Max string `mapstructure:"max"`
	} `mapstructure:"surface"`
	Workflow struct {
		Roles       []string `mapstructure:"roles"`
		RevertRoles []string `mapstructure:"revert_roles"`
		Transitions []struct {
			From  string   `mapstructure:"from"`
			To    string   `mapstructure:"to"`
			Roles []string `mapstructure:"roles"`
		} `mapstructure:"transitions"`
		Mutations []struct {
			State      string   `mapstructure:"state"`
			Operations []string `mapstructure:"operations"`
			Roles      []string `mapstructure:"roles"`
		} `mapstructure:"mutations"`
	} `mapstructure:"workflow"`
}

// loadPolicyFile reads a YAML/TOML/JSON policy file into cfg.
//
// Example (YAML):
//
//	exemption:
//	  tiers:
//	    - {max_surface: 100, duration_years: 3}
//	    - {max_surface: 500, duration_years: 5}
//	    - {duration_years: 7}
//	indivision:
//	  tolerance: "0.0001"
//	workflow:
//	  revert_roles: [admin]
func loadPolicyFile(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var raw policyFile
	if err := v.Unmarshal(&raw); err != nil {
		return fmt.Errorf("failed to decode policy file %s: %w", path, err)
	}

	if len(raw.Exemption.Tiers) > 0 {
		tiers := make([]fiscal.ExemptionTier, 0, len(raw.Exemption.Tiers))
		for i, t := range raw.Exemption.Tiers {
			tier := fiscal.ExemptionTier{DurationYears: t.DurationYears}
			if t.MaxSurface == "" {
				tier.Unbounded = true
			} else {
				bound, err := decimal.NewFromString(t.MaxSurface)
				if err != nil {
					return fmt.Errorf("exemption.tiers[%d].max_surface: %w", i, err)
				}
				tier.MaxSurface = bound
			}
			tiers = append(tiers, tier)
		}
		cfg.Fiscal.Tiers = tiers
	}

	if raw.Indivision.Tolerance != "" {
		tolerance, err := decimal.NewFromString(raw.Indivision.Tolerance)
		if err != nil {
			return fmt.Errorf("indivision.tolerance: %w", err)
		}
		cfg.Fiscal.ShareTolerance = tolerance
	}

	if raw.Surface.Max != "" {
		ceiling, err := decimal.NewFromString(raw.Surface.Max)
		if err != nil {
			return fmt.Errorf("surface.max: %w", err)
		}
		cfg.Fiscal.MaxSurface = ceiling
	}

	wf := raw.Workflow
	if len(wf.Roles) > 0 {
		cfg.Workflow.Roles = toRoles(wf.Roles)
	}
	if len(wf.RevertRoles) > 0 {
		cfg.Workflow.RevertRoles = toRoles(wf.RevertRoles)
	}
	if len(wf.Transitions) > 0 {
		rules := make([]workflow.TransitionRule, 0, len(wf.Transitions))
		for _, t := range wf.Transitions {
			rules = append(rules, workflow.TransitionRule{
				From:  models.WorkflowState(t.From),
				To:    models.WorkflowState(t.To),
				Roles: toRoles(t.Roles),
			})
		}
		cfg.Workflow.Transitions = rules
	}
	if len(wf.Mutations) > 0 {
		rules := make([]workflow.MutationRule, 0, len(wf.Mutations))
		for _, m := range wf.Mutations {
			ops := make([]models.Operation, 0, len(m.Operations))
			for _, op := range m.Operations {
				ops = append(ops, models.Operation(op))
			}
			rules = append(rules, workflow.MutationRule{
				State:      models.WorkflowState(m.State),
				Operations: ops,
				Roles:      toRoles(m.Roles),
			})
		}
		cfg.Workflow.Mutations = rules
	}

	return nil
}

func toRoles(names []string) []models.Role {
	roles := make([]models.Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, models.Role(name))
	}
	return roles
}
