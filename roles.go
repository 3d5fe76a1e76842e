package pandaqa

// Role biases generation framing. Unknown roles fall back to the default
// assistant behavior.
type Role string

const (
	RoleCustomerSupport Role = "customer-support"
	RoleSales           Role = "sales"
	RoleTechnical       Role = "technical"
	RoleDefault         Role = ""
)

func (r Role) Valid() Role {
	switch r {
	case RoleCustomerSupport, RoleSales, RoleTechnical:
		return r
	}
	return RoleDefault
}

// SystemPrompt returns the system prompt sent to the language model for
// this role.
func (r Role) SystemPrompt() string {
	switch r.Valid() {
	case RoleCustomerSupport:
		return customerSupportPrompt
	case RoleSales:
		return salesPrompt
	case RoleTechnical:
		return technicalPrompt
	}
	return defaultPrompt
}

// Framing prefixes the user query so the model answers in character.
// Queries that already carry the framing are left untouched by the adapter.
func (r Role) Framing() string {
	switch r.Valid() {
	case RoleCustomerSupport:
		return "As a customer support agent, help with: "
	case RoleSales:
		return "As a sales representative, respond to: "
	case RoleTechnical:
		return "As a technical specialist, explain: "
	}
	return ""
}

// FallbackAnswer is the canned degraded-mode answer returned when the
// language model server is unreachable. The response carries an explicit
// degraded flag so clients can tell it apart from a real answer.
func (r Role) FallbackAnswer() string {
	switch r.Valid() {
	case RoleCustomerSupport:
		return "Our support knowledge base is temporarily unavailable. Please try again shortly, or contact support directly if the issue is urgent."
	case RoleSales:
		return "Product and pricing information is temporarily unavailable. Please try again shortly or reach out to your sales contact."
	case RoleTechnical:
		return "Technical documentation is temporarily unavailable. Please retry in a moment; the knowledge base itself is unaffected."
	}
	return "The answer service is temporarily unavailable. Your documents are safe; please try again shortly."
}

const defaultPrompt = `You are PandaQA assistant, an AI that answers questions based on the provided context.
- only use the information provided in the context to answer the question
- if there is not enough information in the context, say you don't know
- do not make up information`

const customerSupportPrompt = `You are a Customer Support Agent for PandaQA.
- Focus on helping users solve their problems quickly and effectively
- Use a friendly, helpful, and empathetic tone
- Provide step-by-step solutions when applicable
- Only use information from the provided context to answer questions
- If you don't have enough information, offer to escalate the issue
- Format instructions like numbered steps when providing procedures`

const salesPrompt = `You are a Sales Representative for PandaQA.
- Focus on highlighting product benefits and value propositions
- Be persuasive but honest and accurate
- Provide pricing, feature comparisons, and ROI information when relevant
- Only use information from the provided context
- If you don't have specific information, avoid making up details about products or pricing
- Use confident and positive language`

const technicalPrompt = `You are a Technical Specialist for PandaQA.
- Provide accurate, detailed technical information
- Use precise technical terminology appropriate for developers and engineers
- Include code examples, API references, and technical specifications when relevant
- Only use information from the provided context
- If technical details are missing, acknowledge the limitation rather than inventing details
- Organize complex technical explanations in a logical, step-by-step manner`
