// SPDX-License-Identifier: Apache-2.0

// Package pipeline is the Pipeline Orchestrator (C11): it wires discovery,
// synthesis, introspection, diffing, risk assessment, phase planning, SQL
// emission, and tag expansion into one run, then hands the result to
// whatever external serializer the caller configured. Nothing outside this package imports every other
// pipeline stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xataio/driftplan/pkg/config"
	"github.com/xataio/driftplan/pkg/db"
	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/discovery"
	"github.com/xataio/driftplan/pkg/emit"
	"github.com/xataio/driftplan/pkg/entity"
	"github.com/xataio/driftplan/pkg/introspect"
	"github.com/xataio/driftplan/pkg/plan"
	"github.com/xataio/driftplan/pkg/risk"
	"github.com/xataio/driftplan/pkg/schema"
	"github.com/xataio/driftplan/pkg/secrets"
	"github.com/xataio/driftplan/pkg/synth"
	"github.com/xataio/driftplan/pkg/tagtemplate"
)

// Clock supplies the wall-clock values tagtemplate.Fallbacks needs, kept as
// an injected seam so Run itself never calls time.Now (mirroring
// pkg/tagtemplate's own purity requirement one layer up).
type Clock interface {
	Date() string      // YYYY-MM-DD
	Timestamp() string // YYYYMMDDHHmmss, used as the build-number fallback
}

// GitInfo supplies branch/repo/commit metadata; the caller's implementation
// may shell out to git with its own short timeout and return zero values on
// failure — the orchestrator treats an empty GitInfo as "unavailable" and
// lets tagtemplate.Fallbacks fill deterministic defaults.
type GitInfo struct {
	Branch         string
	Repo           string
	CommitHash     string
	CommitHashFull string
}

// Tags is the full set of sanitized tag variants the Tag Template Engine
// produces for one run.
type Tags struct {
	Generated         string
	DockerTag         string
	HelmChartVersion  string
	KubernetesLabel   string
	FileSafe          string
	AzureResourceName string
}

// Result is everything the Orchestrator hands to the external serializer.
type Result struct {
	Entities      []entity.DiscoveredEntity
	CurrentSchema *schema.Schema
	TargetSchema  *schema.Schema
	Changes       []diff.SchemaChange
	Assessment    risk.Assessment
	Plan          plan.DeploymentPlan
	CompiledSQL   string
	Tags          Tags

	Warnings []string
}

// Run executes one full pipeline invocation: discover -> synthesize ->
// introspect -> diff -> assess -> plan -> emit -> tag. It returns as much of
// Result as was completed before a fatal error, since the serializer still
// runs on partial output in validate-only mode.
func Run(ctx context.Context, cfg *config.Config, discoverer discovery.Discoverer, clock Clock, git GitInfo, sourcePaths []string) (Result, error) {
	var result Result

	if err := config.Validate(cfg); err != nil {
		return result, err
	}

	if cfg.Vault.Type != config.VaultNone {
		resolver, err := secrets.New(cfg.Vault)
		if err != nil {
			return result, err
		}
		if cfg.Database.Password == "" {
			pw, err := resolver.Resolve(ctx, "database.password")
			if err != nil {
				return result, err
			}
			cfg.Database.Password = pw
		}
	}

	rawEntities, err := discoverer.Discover(ctx, sourcePaths, cfg.TrackAttribute)
	if err != nil {
		var noEntities discovery.NoEntitiesError
		if !cfg.IgnoreExportAttribute || !errors.As(err, &noEntities) {
			return result, err
		}
		result.Warnings = append(result.Warnings, err.Error())
	}
	if errs := entity.Validate(rawEntities); len(errs) > 0 {
		for _, e := range errs {
			result.Warnings = append(result.Warnings, e.Error())
		}
	}
	result.Entities = entity.Normalize(rawEntities)

	synthResult, err := synth.Synthesize(result.Entities, synth.Options{
		Dialect:                cfg.Database.Provider,
		GenerateFKIndexes:      true,
		CrossSchemaRefsEnabled: false,
		IgnoreExportAttribute:  cfg.IgnoreExportAttribute,
	})
	result.Warnings = append(result.Warnings, synthResult.Warnings...)
	if err != nil {
		return result, err
	}
	if len(synthResult.Errors) > 0 && cfg.Mode != config.ModeValidate {
		return result, SchemaValidationError{Errors: synthResult.Errors}
	}
	result.TargetSchema = synthResult.Schema

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return result, err
	}
	defer conn.Close()

	inspector, err := introspect.New(cfg.Database.Provider)
	if err != nil {
		return result, err
	}
	result.CurrentSchema, err = inspector.Introspect(ctx, conn, cfg.Database.Schema)
	if err != nil {
		return result, err
	}

	result.Changes = diff.Diff(result.CurrentSchema, result.TargetSchema)
	result.Assessment = risk.Assess(result.Changes)

	result.Plan, err = plan.Plan(result.Changes, plan.Options{
		Enable29PhaseDeployment: cfg.Enable29PhaseDeployment,
		SkipBackup:              cfg.SkipBackup,
		SkipWarningPhases:       cfg.SkipWarningPhases,
		CustomPhaseOrder:        cfg.CustomPhaseOrder,
	})
	if err != nil {
		return result, err
	}
	if result.Plan.Metadata == nil {
		result.Plan.Metadata = make(map[string]any)
	}
	result.Plan.Metadata["runID"] = uuid.New().String()

	emitter, err := emit.New(cfg.Database.Provider)
	if err != nil {
		return result, err
	}
	result.CompiledSQL, err = compile(emitter, &result.Plan, result.CurrentSchema, result.TargetSchema)
	if err != nil {
		return result, err
	}

	result.Tags, err = buildTags(cfg, result.Entities, clock, git)
	if err != nil {
		return result, err
	}

	return result, nil
}

// compile fills in each operation's SQLCommand via the Emitter, replaces a
// CREATE operation's rollback placeholder with the Emitter's DROP statement
// when it can render one, and renders the full deployment script
// banner-separated by phase.
func compile(emitter emit.Emitter, p *plan.DeploymentPlan, cur, tgt *schema.Schema) (string, error) {
	var sb strings.Builder
	for pi := range p.Phases {
		phase := &p.Phases[pi]
		sb.WriteString(fmt.Sprintf("-- Phase %d: %s\n", phase.Number, phase.Name))
		for oi := range phase.Operations {
			op := &phase.Operations[oi]
			stmt, err := emitter.Statement(op.Change, cur, tgt)
			if err != nil {
				return "", SQLGenerationError{Change: string(op.Change.ObjectType) + " " + op.Change.ObjectName, Err: err}
			}
			op.SQLCommand = stmt
			if op.Change.Kind == diff.Create {
				inverse := op.Change
				inverse.Kind = diff.Drop
				if rollback, err := emitter.Statement(inverse, tgt, cur); err == nil {
					op.RollbackCommand = rollback
				}
			}
			sb.WriteString(stmt)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// BuildTags runs just the tag-expansion stage, for callers that need the
// generated tag without opening a database connection (e.g. the CLI's tag
// subcommand).
func BuildTags(cfg *config.Config, entities []entity.DiscoveredEntity, clock Clock, git GitInfo) (Tags, error) {
	return buildTags(cfg, entities, clock, git)
}

func buildTags(cfg *config.Config, entities []entity.DiscoveredEntity, clock Clock, git GitInfo) (Tags, error) {
	template := cfg.TagTemplate
	if err := tagtemplate.Validate(template); err != nil {
		return Tags{}, TagTemplateError{Err: err}
	}

	properties, relationships := 0, 0
	for _, e := range entities {
		properties += len(e.Properties)
		relationships += len(e.Relationships)
	}

	m := tagtemplate.Metadata{
		Branch:            git.Branch,
		Repo:              git.Repo,
		CommitHash:        git.CommitHash,
		CommitHashFull:    git.CommitHashFull,
		Database:          cfg.Database.DatabaseName,
		Environment:       cfg.Environment,
		Vertical:          cfg.Vertical,
		EntityCount:       len(entities),
		PropertyCount:     properties,
		RelationshipCount: relationships,
	}
	m = tagtemplate.Fallbacks(m, clock.Date(), clock.Timestamp())

	generated := tagtemplate.Expand(template, m)
	return Tags{
		Generated:         generated,
		DockerTag:         tagtemplate.DockerTag(generated),
		HelmChartVersion:  tagtemplate.HelmChartVersion(generated),
		KubernetesLabel:   tagtemplate.KubernetesLabel(generated),
		FileSafe:          tagtemplate.FileSafe(generated),
		AzureResourceName: tagtemplate.AzureResourceName(generated),
	}, nil
}
