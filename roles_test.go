package pandaqa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleCustomerSupport, RoleCustomerSupport.Valid())
	assert.Equal(t, RoleSales, RoleSales.Valid())
	assert.Equal(t, RoleTechnical, RoleTechnical.Valid())
	assert.Equal(t, RoleDefault, RoleDefault.Valid())
	assert.Equal(t, RoleDefault, Role("bogus").Valid())
}

func TestRole_Framing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		role     Role
		query    string
		expected string
	}{
		{
			"default role leaves the query alone",
			RoleDefault,
			"what is the refund policy?",
			"what is the refund policy?",
		},
		{
			"customer support framing",
			RoleCustomerSupport,
			"what is the refund policy?",
			"As a customer support agent, help with: what is the refund policy?",
		},
		{
			"unknown role falls back to default",
			Role("pirate"),
			"what is the refund policy?",
			"what is the refund policy?",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Query{Text: tc.query, Role: tc.role}
			assert.Equal(t, tc.expected, q.Framed())
		})
	}
}

func TestRole_SystemPrompt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultPrompt, RoleDefault.SystemPrompt())
	assert.Equal(t, defaultPrompt, Role("bogus").SystemPrompt())
	assert.Equal(t, customerSupportPrompt, RoleCustomerSupport.SystemPrompt())
	assert.Equal(t, salesPrompt, RoleSales.SystemPrompt())
	assert.Equal(t, technicalPrompt, RoleTechnical.SystemPrompt())
}
