package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"custos/pkg/platform/audit"
)

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics("custos")

	assert.Equal(t, "custos.audit.compliance", topics.Compliance)
	assert.Equal(t, "custos.audit.security", topics.Security)
	assert.Equal(t, "custos.audit.operations", topics.Operations)
	assert.Equal(t, []string{
		"custos.audit.compliance",
		"custos.audit.security",
		"custos.audit.operations",
	}, topics.Names())
}

func TestTopicsForCategory(t *testing.T) {
	topics := DefaultTopics("custos")

	assert.Equal(t, topics.Compliance, topics.forCategory(string(audit.CategoryCompliance)))
	assert.Equal(t, topics.Security, topics.forCategory(string(audit.CategorySecurity)))
	assert.Equal(t, topics.Operations, topics.forCategory(string(audit.CategoryOperations)))

	// Unknown categories land on the operations topic rather than dropping.
	assert.Equal(t, topics.Operations, topics.forCategory("unknown"))
}
