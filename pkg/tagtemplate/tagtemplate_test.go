// SPDX-License-Identifier: Apache-2.0

package tagtemplate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xataio/driftplan/pkg/tagtemplate"
)

func TestValidateRejectsUnknownToken(t *testing.T) {
	err := tagtemplate.Validate("{branch}/{bogus}")
	var unknown tagtemplate.UnknownTokenError
	assert.ErrorAs(t, err, &unknown)
}

func TestValidateRejectsUnbalancedBraces(t *testing.T) {
	err := tagtemplate.Validate("{branch/{repo}")
	var unbalanced tagtemplate.UnbalancedBracesError
	assert.ErrorAs(t, err, &unbalanced)
}

func TestValidateRejectsNestedBraces(t *testing.T) {
	err := tagtemplate.Validate("{branch{repo}}")
	var unbalanced tagtemplate.UnbalancedBracesError
	assert.ErrorAs(t, err, &unbalanced)
}

func TestValidateAcceptsKnownTemplate(t *testing.T) {
	assert.NoError(t, tagtemplate.Validate("{branch}/{repo}/schema/{version}"))
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	assert.NoError(t, tagtemplate.Validate("{BRANCH}/{Repo}"))
}

// TestScenarioS5TagExpansionFallback checks that the
// template {branch}/{repo}/schema/{version} with no git metadata and 12
// entities summing to 137 properties+relationships expands to
// main/unknown-repo/schema/1.2.37.
func TestScenarioS5TagExpansionFallback(t *testing.T) {
	m := tagtemplate.Fallbacks(tagtemplate.Metadata{
		EntityCount: 12, PropertyCount: 100, RelationshipCount: 37,
	}, "2026-07-30", "20260730120000")

	generated := tagtemplate.Expand("{branch}/{repo}/schema/{version}", m)
	assert.Equal(t, "main/unknown-repo/schema/1.2.37", generated)
	assert.Equal(t, "main-unknown-repo-schema-1.2.37", tagtemplate.DockerTag(generated))
}

func TestVersionMinorTiers(t *testing.T) {
	cases := []struct {
		entities int
		want     string
	}{
		{0, "1.0.0"}, {3, "1.1.0"}, {10, "1.2.0"}, {25, "1.3.0"}, {100, "1.9.0"},
	}
	for _, tc := range cases {
		v := tagtemplate.Version(tagtemplate.Metadata{EntityCount: tc.entities})
		assert.Equal(t, tc.want, v, "entities=%d", tc.entities)
	}
}

func TestExpansionIsPure(t *testing.T) {
	m := tagtemplate.Metadata{Branch: "feature/x", Repo: "acme", EntityCount: 3, PropertyCount: 5, RelationshipCount: 1}
	a := tagtemplate.Expand("{branch}/{repo}/{version}", m)
	b := tagtemplate.Expand("{branch}/{repo}/{version}", m)
	assert.Equal(t, a, b)
}

func TestGitTagSanitization(t *testing.T) {
	assert.Equal(t, "feature-x/acme/1.2.3", tagtemplate.GitTag("feature-x/acme/1.2.3"))
	assert.Equal(t, "featurex", tagtemplate.GitTag("feature~x"))
	assert.Equal(t, "a.b", tagtemplate.GitTag("a....b"))
	assert.Equal(t, "feature", tagtemplate.GitTag("-.feature"))
}

func TestHelmChartVersionExtractsSemVerOrFallsBack(t *testing.T) {
	assert.Equal(t, "1.2.3", tagtemplate.HelmChartVersion("main/repo/schema/1.2.3"))
	assert.Equal(t, "1.0.0", tagtemplate.HelmChartVersion("main/repo/schema/no-version-here"))
}

func TestKubernetesLabelAndAzureAndFileSafe(t *testing.T) {
	assert.Equal(t, "main-repo-schema-1.2.3", tagtemplate.KubernetesLabel("main/repo/schema/1.2.3"))
	assert.Equal(t, "main-repo-schema-1-2-3", tagtemplate.AzureResourceName("main/repo/schema/1.2.3"))
	assert.Equal(t, "main-repo-schema-1.2.3", tagtemplate.FileSafe("main/repo/schema/1.2.3"))
}
