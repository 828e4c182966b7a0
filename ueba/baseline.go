// Package ueba records which pipeline agent touched which resource and flags
// every access outside the agent's baseline permission set.
package ueba

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Pipeline agents.
const (
	DataAnalysisAgent          = "DataAnalysisAgent"
	DiagnosisAgent             = "DiagnosisAgent"
	SchedulingAgent            = "SchedulingAgent"
	CustomerEngagementAgent    = "CustomerEngagementAgent"
	FeedbackAgent              = "FeedbackAgent"
	ManufacturingInsightsAgent = "ManufacturingInsightsAgent"
)

// Resources the agents read or write.
const (
	TelematicsStream = "telematics_stream"
	MaintenanceDB    = "maintenance_db"
	AnalysisResults  = "analysis_results"
	CustomerProfile  = "customer_profile"
	SchedulerAPI     = "scheduler_api"
	FeedbackDB       = "feedback_db"
	RCACAPADB        = "rca_capa_db"
)

// Policy is the configuration form of a baseline: agent name to allowed
// resources.
type Policy map[string][]string

// Baseline is an immutable allow-set per agent. Agents absent from the
// baseline have an empty set, so all of their accesses are anomalous.
type Baseline struct {
	allow map[string]map[string]struct{}
}

// NewBaseline copies policy into a Baseline. Later changes to policy do not
// affect it.
func NewBaseline(policy Policy) Baseline {
	allow := make(map[string]map[string]struct{}, len(policy))
	for agent, resources := range policy {
		set := make(map[string]struct{}, len(resources))
		for _, r := range resources {
			set[r] = struct{}{}
		}
		allow[agent] = set
	}
	return Baseline{allow: allow}
}

// DefaultPolicy is the permission set of the six pipeline agents.
func DefaultPolicy() Policy {
	return Policy{
		DataAnalysisAgent:          {TelematicsStream, MaintenanceDB},
		DiagnosisAgent:             {AnalysisResults},
		CustomerEngagementAgent:    {CustomerProfile, AnalysisResults},
		SchedulingAgent:            {SchedulerAPI, CustomerProfile},
		FeedbackAgent:              {FeedbackDB, CustomerProfile},
		ManufacturingInsightsAgent: {MaintenanceDB, RCACAPADB},
	}
}

func DefaultBaseline() Baseline {
	return NewBaseline(DefaultPolicy())
}

// Allows reports whether resource is in agent's allow-set.
func (b Baseline) Allows(agent, resource string) bool {
	_, ok := b.allow[agent][resource]
	return ok
}

// Policy returns a copy of the baseline in configuration form with sorted
// resource lists.
func (b Baseline) Policy() Policy {
	policy := make(Policy, len(b.allow))
	for agent, set := range b.allow {
		policy[agent] = slices.Sorted(maps.Keys(set))
	}
	return policy
}

// LoadPolicy reads a YAML policy file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}
	return policy, nil
}
